package tests

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/nettest"
	"golang.org/x/sync/errgroup"

	"github.com/searchktools/diary-server/core"
	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/transport"
)

func startEngine(t testing.TB, opts ...transport.Option) (*core.Engine, string) {
	t.Helper()
	e := core.NewEngine(nil)
	e.GET("/", func(*http.Request) (*http.Response, error) {
		return http.Text(http.StatusOK, "home"), nil
	})
	e.POST("/echo", func(req *http.Request) (*http.Response, error) {
		return http.Data(http.StatusOK, http.MIMEOctetStream, req.Body), nil
	})

	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	l := transport.Wrap(ln, opts...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Serve(l)
	}()
	t.Cleanup(func() {
		l.Close()
		<-done
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.Shutdown(ctx)
	})
	return e, ln.Addr().String()
}

func do(addr, raw string) (string, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer c.Close()
	c.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.WriteString(c, raw); err != nil {
		return "", err
	}
	out, err := io.ReadAll(c)
	return string(out), err
}

func TestStressConcurrentClients(t *testing.T) {
	const clients = 200
	e, addr := startEngine(t)

	var g errgroup.Group
	g.SetLimit(64)
	for i := 0; i < clients; i++ {
		i := i
		g.Go(func() error {
			payload := strings.Repeat(fmt.Sprint(i%10), 100+i)
			raw := fmt.Sprintf("POST /echo HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s", len(payload), payload)
			out, err := do(addr, raw)
			if err != nil {
				return fmt.Errorf("client %d: %w", i, err)
			}
			if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") || !strings.HasSuffix(out, "\r\n\r\n"+payload) {
				return fmt.Errorf("client %d: unexpected response %.80q", i, out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	snap := e.Stats().Snapshot()
	if snap.Accepted != clients {
		t.Errorf("Accepted = %d, want %d", snap.Accepted, clients)
	}
	if snap.StatusClasses[1] != clients {
		t.Errorf("2xx responses = %d, want %d", snap.StatusClasses[1], clients)
	}
}

func TestStressWithConnLimit(t *testing.T) {
	const clients = 50
	_, addr := startEngine(t, transport.WithMaxConns(4))

	var wg sync.WaitGroup
	errs := make(chan error, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := do(addr, "GET / HTTP/1.1\r\n\r\n")
			if err == nil && !strings.HasSuffix(out, "home") {
				err = fmt.Errorf("unexpected response %q", out)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	_, addr := startEngine(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := do(addr, "GET / HTTP/1.1\r\n\r\n"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
