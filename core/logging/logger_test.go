package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"WARN", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSyncLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Output: &buf, Sync: true})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer l.Close()

	l.With("conn", 7).Warn().Msg("slow peer")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["message"] != "slow peer" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["conn"] != float64(7) {
		t.Errorf("conn = %v, want 7", entry["conn"])
	}
	caller, _ := entry["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Errorf("caller = %q, want this file", caller)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "error", Output: &buf, Sync: true})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	l.Info().Msg("hidden")
	l.Error().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info line written at error level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("error line missing")
	}
}

func TestFatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Options{Output: &buf, Sync: true})
	l.Fatal().Msg("bind failed")

	if !strings.Contains(buf.String(), `"level":"fatal"`) {
		t.Errorf("missing fatal line: %q", buf.String())
	}
}

// lockedBuffer lets the diode consumer and the test read the same buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncConcurrentProducers(t *testing.T) {
	out := &lockedBuffer{}
	l, err := New(Options{Output: out, BufferSize: 4096})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			child := l.With("conn", id)
			for j := 0; j < 50; j++ {
				child.Info().Int("n", j).Msg("line")
			}
		}(i)
	}
	wg.Wait()

	if err := l.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines, want 400", len(lines))
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("corrupted line %q: %v", line, err)
		}
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf, File: path})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	l.Info().Msg("to both")
	if err := l.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "to both") {
		t.Errorf("file missing line: %q", data)
	}
	if !strings.Contains(buf.String(), "to both") {
		t.Errorf("output missing line: %q", buf.String())
	}
}
