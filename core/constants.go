package core

import (
	"errors"
	"time"
)

// Engine defaults
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Accept loop backoff bounds
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Error definitions
var (
	ErrRoutesFrozen = errors.New("routes cannot be registered once the engine is serving")
	ErrServing      = errors.New("engine is already serving")
)
