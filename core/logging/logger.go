// Package logging is the process-wide log sink. Writes from many connection
// goroutines funnel into a single consumer so lines never interleave.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// Level mirrors the DEBUG|INFO|WARN|ERROR|FATAL levels of the server.
type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
	LevelFatal = zerolog.FatalLevel
)

// Default ring size and drain interval of the async writer.
const (
	DefaultBufferSize   = 1024
	DefaultPollInterval = 10 * time.Millisecond
)

// Options configures a Logger.
type Options struct {
	Level   string    // debug, info, warn, error, fatal
	Output  io.Writer // defaults to os.Stdout
	File    string    // optional file appended to alongside Output
	Console bool      // human readable lines instead of JSON
	Sync    bool      // write inline instead of through the ring buffer

	BufferSize   int
	PollInterval time.Duration
}

// Logger wraps a zerolog.Logger together with the writers it owns.
type Logger struct {
	zerolog.Logger

	closers   []io.Closer
	closeOnce sync.Once
}

// keepOpen hides Close so the diode never closes stdout on shutdown.
type keepOpen struct{ io.Writer }

// ParseLevel maps a level name to a Level. Unknown or empty names yield info.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelInfo, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	l := &Logger{}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.closers = append(l.closers, f)
		out = zerolog.MultiLevelWriter(out, f)
	}

	if !opts.Sync {
		size := opts.BufferSize
		if size <= 0 {
			size = DefaultBufferSize
		}
		interval := opts.PollInterval
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		dw := diode.NewWriter(keepOpen{out}, size, interval, func(missed int) {
			fmt.Fprintf(os.Stderr, "logging: dropped %d messages\n", missed)
		})
		// The diode must drain before the file beneath it is closed.
		l.closers = append([]io.Closer{dw}, l.closers...)
		out = dw
	}

	l.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()
	return l, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// With returns a child Logger carrying the given field, sharing the parent's
// writers. Closing the child is a no-op.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{Logger: l.Logger.With().Interface(key, value).Logger()}
}

// Fatal logs at fatal level without exiting; the caller decides how the
// process ends, after Close has flushed the queue.
func (l *Logger) Fatal() *zerolog.Event {
	return l.Logger.WithLevel(zerolog.FatalLevel)
}

// Close flushes queued lines and releases owned writers. Idempotent.
func (l *Logger) Close() error {
	var first error
	l.closeOnce.Do(func() {
		for _, c := range l.closers {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	})
	return first
}
