// Package transport owns the passive TCP socket and the blocking byte-stream
// primitives used on each accepted connection.
package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/net/netutil"
)

// DefaultBacklog is the accept queue length requested from the kernel.
const DefaultBacklog = 128

// Option configures a Listener.
type Option func(*options)

type options struct {
	backlog  int
	maxConns int
}

// WithBacklog overrides DefaultBacklog.
func WithBacklog(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// WithMaxConns bounds the number of connections open at once. Further peers
// wait in the kernel backlog until a slot is released. Zero means unbounded.
func WithMaxConns(n int) Option {
	return func(o *options) { o.maxConns = n }
}

func buildOptions(opts []Option) options {
	o := options{backlog: DefaultBacklog}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Listener accepts connections on a bound socket.
type Listener struct {
	ln     net.Listener
	nextID atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// Listen binds all local interfaces on port with address reuse enabled and
// starts listening. Port 0 picks an ephemeral port.
func Listen(port int, opts ...Option) (*Listener, error) {
	o := buildOptions(opts)
	ln, err := listenTCP(port, o.backlog)
	if err != nil {
		return nil, err
	}
	return wrap(ln, o), nil
}

// Wrap adapts an already listening socket.
func Wrap(ln net.Listener, opts ...Option) *Listener {
	return wrap(ln, buildOptions(opts))
}

func wrap(ln net.Listener, o options) *Listener {
	if o.maxConns > 0 {
		ln = netutil.LimitListener(ln, o.maxConns)
	}
	return &Listener{ln: ln}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept blocks until a peer connects. After Close it returns an error that
// satisfies errors.Is(err, net.ErrClosed).
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, err
		}
		return nil, &Error{Op: ErrAccept, Err: err}
	}
	return newConn(c, l.nextID.Add(1)), nil
}

// Close stops listening. Safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}
