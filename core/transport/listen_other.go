//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package transport

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// listenTCP relies on the runtime for address reuse and backlog sizing.
func listenTCP(port, _ int) (net.Listener, error) {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", port))
	if err != nil {
		op := ErrListen
		if errors.Is(err, syscall.EADDRINUSE) {
			op = ErrBind
		}
		return nil, &Error{Op: op, Port: port, Err: err}
	}
	return ln, nil
}
