package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/searchktools/diary-server/config"
	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/observability"
	"github.com/searchktools/diary-server/core/router"
	"github.com/searchktools/diary-server/core/transport"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Port = 0
	cfg.AssetsDir = filepath.Join(root, "assets")
	cfg.DiaryDir = filepath.Join(root, "diaries")

	cube := filepath.Join(cfg.AssetsDir, "html", "3D_cube.html")
	if err := os.MkdirAll(filepath.Dir(cube), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cube, []byte("<canvas id=cube></canvas>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// start runs a until the test ends and returns its address.
func start(t *testing.T, a *App) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Run = %v", err)
			}
		case <-time.After(ShutdownGrace + time.Second):
			t.Error("Run did not return after cancel")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for a.Engine().Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_, port, _ := net.SplitHostPort(a.Engine().Addr().String())
	return net.JoinHostPort("127.0.0.1", port)
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	c.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(c, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(out)
}

func TestDiaryFlow(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := start(t, a)

	form := "title=Monday&content=rainy+day"
	out := roundTrip(t, addr, "POST /post_write HTTP/1.1\r\nContent-Length: 30\r\n\r\n"+form)
	if !strings.HasPrefix(out, "HTTP/1.1 302 Found\r\n") || !strings.Contains(out, "Location: /\r\n") {
		t.Fatalf("post_write response: %q", out)
	}

	out = roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") || !strings.Contains(out, ")Monday</td>") {
		t.Fatalf("index response: %q", out)
	}
	if !strings.Contains(out, "X-Request-ID: ") {
		t.Error("request id middleware not installed")
	}

	out = roundTrip(t, addr, "GET /diary/nothing-here HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") || !strings.HasSuffix(out, "diary not found") {
		t.Errorf("missing diary response: %q", out)
	}

	out = roundTrip(t, addr, "GET /cube HTTP/1.1\r\n\r\n")
	if !strings.HasSuffix(out, "<canvas id=cube></canvas>") {
		t.Errorf("cube response: %q", out)
	}

	out = roundTrip(t, addr, "GET /assets/../diaries HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 403 Forbidden\r\n") {
		t.Errorf("escaping asset response: %q", out)
	}
}

func TestStatsEndpoint(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := start(t, a)

	roundTrip(t, addr, "GET /write HTTP/1.1\r\n\r\n")
	out := roundTrip(t, addr, "GET /_stats HTTP/1.1\r\nAccept: application/json\r\n\r\n")
	if !strings.Contains(out, "Access-Control-Allow-Origin: *\r\n") {
		t.Errorf("stats endpoint missing CORS header: %q", out)
	}

	_, body, _ := strings.Cut(out, "\r\n\r\n")
	var snap observability.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, body)
	}
	found := false
	for _, r := range snap.Routes {
		if r.Route == "GET /write" && r.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("GET /write not counted: %+v", snap.Routes)
	}
}

func TestRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := start(t, a)

	roundTrip(t, addr, "GET /write HTTP/1.1\r\n\r\n")
	out := roundTrip(t, addr, "GET /write HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 429 Too Many Requests\r\n") {
		t.Errorf("second request: %q", out)
	}
}

func TestRunBindFailure(t *testing.T) {
	busy, err := transport.Listen(0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cfg := testConfig(t)
	cfg.Port = busy.Addr().(*net.TCPAddr).Port
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = a.Run(context.Background())
	if !errors.Is(err, transport.ErrBind) {
		t.Errorf("Run = %v, want ErrBind", err)
	}
}

func TestStrictRoutesRejectsDuplicates(t *testing.T) {
	cfg := testConfig(t)
	cfg.StrictRoutes = true
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, router.ErrDuplicateRoute) {
			t.Errorf("recover() = %v, want ErrDuplicateRoute", err)
		}
	}()
	a.Engine().GET("/write", func(*http.Request) (*http.Response, error) { return nil, nil })
}
