package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/searchktools/diary-server/core/pools"
)

const chunkSize = 4096

var headerTerminator = []byte("\r\n\r\n")

// Framing faults. The connection is dropped without a response.
var (
	ErrIncompleteFrame = errors.New("connection closed before request was complete")
	ErrFrameTooLarge   = errors.New("request exceeds size limit")
)

// ReadFrame accumulates bytes from r until a full request has arrived: the
// header block plus the declared Content-Length. A positive limit caps the
// total size. The returned buffer may hold bytes past the frame.
func ReadFrame(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, 0, chunkSize)
	chunk := pools.GetBytes(chunkSize)
	defer pools.PutBytes(chunk)
	total := -1

	for {
		if total < 0 {
			if n, ok := FrameLength(buf); ok {
				total = n
			}
		}
		if limit > 0 && (total > limit || (total < 0 && len(buf) > limit)) {
			return nil, ErrFrameTooLarge
		}
		if total >= 0 && len(buf) >= total {
			return buf, nil
		}

		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if total < 0 {
				if t, ok := FrameLength(buf); ok {
					total = t
				}
			}
			if total >= 0 && len(buf) >= total && (limit <= 0 || total <= limit) {
				return buf, nil
			}
			if errors.Is(err, io.EOF) {
				return nil, ErrIncompleteFrame
			}
			return nil, fmt.Errorf("%w: %w", ErrIncompleteFrame, err)
		}
	}
}

// FrameLength reports the full message length once the header terminator is
// in buf: header block, terminator and declared body.
func FrameLength(buf []byte) (int, bool) {
	end := bytes.Index(buf, headerTerminator)
	if end < 0 {
		return 0, false
	}
	return end + len(headerTerminator) + scanContentLength(buf[:end]), true
}

// scanContentLength finds Content-Length in a raw header block, ignoring case.
func scanContentLength(head []byte) int {
	length := 0
	for _, line := range bytes.Split(head, []byte("\n")) {
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := bytes.TrimSpace(line[:colon])
		if bytes.EqualFold(key, []byte(HeaderContentLength)) {
			length = parseContentLength(string(line[colon+1:]))
		}
	}
	return length
}

// parseContentLength yields 0 for absent, negative or non-numeric values.
func parseContentLength(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
