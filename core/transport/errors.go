package transport

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against an *Error of the same Op.
var (
	ErrSocket  = errors.New("socket")
	ErrBind    = errors.New("bind")
	ErrListen  = errors.New("listen")
	ErrAccept  = errors.New("accept")
	ErrReceive = errors.New("receive")
	ErrSend    = errors.New("send")
)

// Error is a transport fault. Bind and listen faults are fatal to startup;
// the rest are local to one connection.
type Error struct {
	Op   error // one of the sentinels above
	Port int
	Err  error
}

func (e *Error) Error() string {
	if e.Port > 0 {
		return fmt.Sprintf("transport: %v on port %d: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("transport: %v: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Op }
