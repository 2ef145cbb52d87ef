package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Conn is one accepted connection. It serves exactly one request/response
// cycle and is then closed.
type Conn struct {
	nc net.Conn
	id uint64

	closeOnce sync.Once
	closeErr  error
}

func newConn(nc net.Conn, id uint64) *Conn {
	return &Conn{nc: nc, id: id}
}

// NewConn wraps nc for use outside a Listener, e.g. with net.Pipe in tests.
func NewConn(nc net.Conn, id uint64) *Conn {
	return newConn(nc, id)
}

// ID identifies the connection in log lines.
func (c *Conn) ID() uint64 { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Receive reads into buf. It returns 0 and io.EOF once the peer has closed
// its side; other failures are wrapped as ErrReceive.
func (c *Conn) Receive(buf []byte) (int, error) {
	n, err := c.nc.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, &Error{Op: ErrReceive, Err: err}
	}
	return n, nil
}

// Read lets a Conn feed io.Reader based framers.
func (c *Conn) Read(buf []byte) (int, error) {
	return c.Receive(buf)
}

// SendAll writes b in full, retrying short writes.
func (c *Conn) SendAll(b []byte) error {
	for len(b) > 0 {
		n, err := c.nc.Write(b)
		if err != nil {
			return &Error{Op: ErrSend, Err: err}
		}
		if n == 0 {
			return &Error{Op: ErrSend, Err: io.ErrShortWrite}
		}
		b = b[n:]
	}
	return nil
}

// SetReadDeadline bounds subsequent Receive calls. Zero clears it.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.nc.SetReadDeadline(t)
}

// SetWriteDeadline bounds subsequent SendAll calls. Zero clears it.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.nc.SetWriteDeadline(t)
}

// Close releases the connection. Only the first call has effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}
