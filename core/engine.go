package core

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
	"github.com/searchktools/diary-server/core/middleware"
	"github.com/searchktools/diary-server/core/observability"
	"github.com/searchktools/diary-server/core/router"
	"github.com/searchktools/diary-server/core/transport"
)

// Option configures an Engine.
type Option func(*Engine)

// WithReadTimeout bounds how long a peer may take to deliver a complete
// request. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.readTimeout = d }
}

// WithWriteTimeout bounds the response write. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(e *Engine) { e.writeTimeout = d }
}

// WithMaxRequestBytes abandons requests larger than n bytes. Zero means no limit.
func WithMaxRequestBytes(n int) Option {
	return func(e *Engine) { e.maxRequestBytes = n }
}

// WithMaxConns caps the connections served at once by Run. Zero means no cap.
func WithMaxConns(n int) Option {
	return func(e *Engine) { e.maxConns = n }
}

// WithRouter installs a router built by the caller.
func WithRouter(r *router.Router) Option {
	return func(e *Engine) { e.router = r }
}

// WithStrictRoutes makes duplicate registrations panic. Ignored when
// WithRouter supplies the router.
func WithStrictRoutes() Option {
	return func(e *Engine) { e.strict = true }
}

// WithStats records connection and response counters into s.
func WithStats(s *observability.Stats) Option {
	return func(e *Engine) { e.stats = s }
}

// Engine accepts connections and drives each one through a single
// request/response cycle on its own goroutine.
type Engine struct {
	router *router.Router
	log    *logging.Logger
	stats  *observability.Stats

	middleware []middleware.Middleware

	readTimeout     time.Duration
	writeTimeout    time.Duration
	maxRequestBytes int
	maxConns        int
	strict          bool

	frozen atomic.Bool

	mu       sync.Mutex
	listener *transport.Listener
	done     chan struct{} // closed when the accept loop exits

	conns sync.WaitGroup
}

// NewEngine creates a new engine instance
func NewEngine(log *logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	e := &Engine{
		log:          log,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.router == nil {
		var ropts []router.Option
		if e.strict {
			ropts = append(ropts, router.WithStrictRoutes())
		}
		e.router = router.New(log, ropts...)
	}
	if e.stats == nil {
		e.stats = observability.NewStats()
	}
	return e
}

// Router returns the engine's route table.
func (e *Engine) Router() *router.Router { return e.router }

// Stats returns the counters the engine records into.
func (e *Engine) Stats() *observability.Stats { return e.stats }

// Handle registers h for method and every path under prefix.
func (e *Engine) Handle(method, prefix string, h http.HandlerFunc) {
	e.mustNotBeFrozen()
	e.router.Register(method, prefix, h)
}

// GET registers a GET route
func (e *Engine) GET(prefix string, h http.HandlerFunc) { e.Handle("GET", prefix, h) }

// POST registers a POST route
func (e *Engine) POST(prefix string, h http.HandlerFunc) { e.Handle("POST", prefix, h) }

// PUT registers a PUT route
func (e *Engine) PUT(prefix string, h http.HandlerFunc) { e.Handle("PUT", prefix, h) }

// DELETE registers a DELETE route
func (e *Engine) DELETE(prefix string, h http.HandlerFunc) { e.Handle("DELETE", prefix, h) }

// Use appends middleware applied to every request, including unmatched ones.
func (e *Engine) Use(mws ...middleware.Middleware) {
	e.mustNotBeFrozen()
	e.middleware = append(e.middleware, mws...)
}

func (e *Engine) mustNotBeFrozen() {
	if e.frozen.Load() {
		panic(ErrRoutesFrozen)
	}
}

// Run listens on port and serves until ctx is cancelled. In-flight
// connections are not waited for; call Shutdown for that.
func (e *Engine) Run(ctx context.Context, port int) error {
	var opts []transport.Option
	if e.maxConns > 0 {
		opts = append(opts, transport.WithMaxConns(e.maxConns))
	}
	l, err := transport.Listen(port, opts...)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	return e.Serve(l)
}

// Serve runs the accept loop on l. It returns nil once l is closed. Route
// registration is rejected from the moment Serve is called.
func (e *Engine) Serve(l *transport.Listener) error {
	e.mu.Lock()
	if e.listener != nil {
		e.mu.Unlock()
		return ErrServing
	}
	e.frozen.Store(true)
	e.listener = l
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()
	defer close(done)

	e.log.Info().
		Str("addr", l.Addr().String()).
		Int("routes", len(e.router.Routes())).
		Msg("server listening")

	var delay time.Duration
	for {
		c, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				e.log.Info().Msg("listener closed")
				return nil
			}
			if delay == 0 {
				delay = minAcceptDelay
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			e.log.Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			time.Sleep(delay)
			continue
		}
		delay = 0

		e.conns.Add(1)
		go func() {
			defer e.conns.Done()
			e.ServeConn(c)
		}()
	}
}

// Addr reports the serving address, or nil before Serve.
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Shutdown closes the listener and waits for in-flight connections to
// finish or for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	l, done := e.listener, e.done
	e.mu.Unlock()
	if l == nil {
		return nil
	}
	if err := l.Close(); err != nil {
		e.log.Warn().Err(err).Msg("listener close failed")
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	drained := make(chan struct{})
	go func() {
		e.conns.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		e.log.Info().Msg("server stopped")
		return nil
	case <-ctx.Done():
		e.log.Warn().Msg("shutdown deadline reached with connections in flight")
		return ctx.Err()
	}
}
