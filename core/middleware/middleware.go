// Package middleware wraps handlers with cross-cutting behavior.
package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
)

// Middleware decorates a handler.
type Middleware func(next http.HandlerFunc) http.HandlerFunc

// Chain wraps h so that the first middleware listed runs outermost.
func Chain(h http.HandlerFunc, mws ...Middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// HeaderRequestID carries the per-request identifier.
const HeaderRequestID = "X-Request-ID"

// RequestID stamps every response with X-Request-ID, reusing the client's
// value when one was sent.
func RequestID() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) (*http.Response, error) {
			id := req.Header(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			res, err := next(req)
			if res != nil {
				res.SetHeader(HeaderRequestID, id)
			}
			return res, err
		}
	}
}

// AccessLog writes one line per handled request.
func AccessLog(log *logging.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			res, err := next(req)

			var ev *zerolog.Event
			if err != nil {
				ev = log.Error().Err(err)
			} else {
				ev = log.Info()
			}
			status, size := 0, 0
			if res != nil {
				status, size = res.StatusCode().Code(), len(res.Body)
			}
			ev.Str("method", req.Method).
				Str("path", req.Path).
				Int("status", status).
				Int("bytes", size).
				Dur("duration", time.Since(start)).
				Msg("request")
			return res, err
		}
	}
}

// RateLimit answers 429 when limiter has no token available.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) (*http.Response, error) {
			if !limiter.Allow() {
				return http.Error(http.StatusTooManyRequests), nil
			}
			return next(req)
		}
	}
}

// CORS adds permissive CORS headers and answers preflight requests directly.
func CORS() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) (*http.Response, error) {
			var res *http.Response
			if req.Method == "OPTIONS" {
				res = http.NewResponse().SetStatus(http.StatusNoContent)
			} else {
				var err error
				if res, err = next(req); err != nil || res == nil {
					return res, err
				}
			}
			res.SetHeader("Access-Control-Allow-Origin", "*")
			res.SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			res.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
			return res, nil
		}
	}
}
