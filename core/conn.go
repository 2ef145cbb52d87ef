package core

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
	"github.com/searchktools/diary-server/core/middleware"
	"github.com/searchktools/diary-server/core/pools"
	"github.com/searchktools/diary-server/core/transport"
)

// ConnState is a step of the per-connection lifecycle.
type ConnState int

// Connection states
const (
	StateAccepted ConnState = iota
	StateFraming
	StateParsed
	StateRouted
	StateResponding
	StateClosed
)

var stateNames = [...]string{
	StateAccepted:   "accepted",
	StateFraming:    "framing",
	StateParsed:     "parsed",
	StateRouted:     "routed",
	StateResponding: "responding",
	StateClosed:     "closed",
}

func (s ConnState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
	return stateNames[s]
}

// driver carries one connection through its states.
type driver struct {
	log   *logging.Logger
	state ConnState
}

func (d *driver) enter(s ConnState) {
	d.log.Debug().Stringer("from", d.state).Stringer("to", s).Msg("conn state")
	d.state = s
}

func notFound(*http.Request) (*http.Response, error) {
	return http.Error(http.StatusNotFound), nil
}

// ServeConn performs exactly one request/response cycle on c and closes it.
// A request that never completes gets no response.
func (e *Engine) ServeConn(c *transport.Conn) {
	d := &driver{log: e.log.With("conn", c.ID()), state: StateAccepted}
	e.stats.ConnAccepted()
	defer func() {
		if err := c.Close(); err != nil {
			d.log.Debug().Err(err).Msg("close failed")
		}
		d.enter(StateClosed)
		e.stats.ConnClosed()
	}()

	d.enter(StateFraming)
	if e.readTimeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(e.readTimeout)); err != nil {
			d.log.Debug().Err(err).Msg("read deadline not set")
		}
	}
	frame, err := http.ReadFrame(c, e.maxRequestBytes)
	if err != nil {
		e.stats.FramingFault()
		d.log.Warn().Err(err).Msg("request abandoned")
		return
	}

	req := http.ParseRequest(frame)
	d.enter(StateParsed)
	start := time.Now()

	h, prefix, ok := e.router.Match(req.Method, req.Path)
	route := req.Method + " " + prefix
	if !ok {
		e.stats.RouteMiss()
		h, route = notFound, ""
	}
	d.enter(StateRouted)

	res := e.dispatch(d.log, middleware.Chain(e.guard(d.log, h), e.middleware...), req)
	d.enter(StateResponding)

	if e.writeTimeout > 0 {
		if err := c.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
			d.log.Debug().Err(err).Msg("write deadline not set")
		}
	}
	wire := http.AppendResponse(pools.GetBytes(http.EncodedSize(res))[:0], res)
	if err := c.SendAll(wire); err != nil {
		d.log.Warn().Err(err).Msg("response not delivered")
	}
	pools.PutBytes(wire)
	e.stats.RecordResponse(route, res.StatusCode().Code(), time.Since(start))
}

// guard settles h's faults before any middleware sees the result, so an
// internal error still passes through request ids and access logging.
func (e *Engine) guard(log *logging.Logger, h http.HandlerFunc) http.HandlerFunc {
	return func(req *http.Request) (*http.Response, error) {
		return e.dispatch(log, h, req), nil
	}
}

// dispatch runs h, turning an error, a panic or a nil response into
// something the encoder can send.
func (e *Engine) dispatch(log *logging.Logger, h http.HandlerFunc, req *http.Request) (res *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.stats.HandlerFault()
			log.Error().
				Str("method", req.Method).
				Str("path", req.Path).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			res = http.Error(http.StatusInternalServerError)
		}
	}()

	res, err := h(req)
	if err != nil {
		e.stats.HandlerFault()
		log.Error().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("handler failed")
		return http.Error(http.StatusInternalServerError)
	}
	if res == nil {
		return http.NewResponse()
	}
	return res
}
