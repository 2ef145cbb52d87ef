package observability

import (
	"github.com/searchktools/diary-server/core/codec"
	"github.com/searchktools/diary-server/core/http"
)

// Handler serves a snapshot of s, as protobuf when the client accepts
// application/x-protobuf and as JSON otherwise.
func Handler(s *Stats) http.HandlerFunc {
	return func(req *http.Request) (*http.Response, error) {
		snap := s.Snapshot()

		c := codec.ForAccept(req.Header(http.HeaderAccept))
		if c.Name() == "protobuf" {
			msg, err := snap.Proto()
			if err != nil {
				return nil, err
			}
			return http.Encoded(http.StatusOK, c, msg)
		}
		return http.Encoded(http.StatusOK, c, snap)
	}
}
