/*
Package diaryserver is a small HTTP/1.1 server and the diary application it
hosts.

Every accepted connection is served by its own goroutine through exactly one
request/response cycle: the request is framed by its header terminator and
Content-Length, parsed, dispatched through a longest-prefix router, and
answered with a response that always carries Connection: close.

Layout

  - core/transport: listening socket and blocking connection I/O
  - core/http: request framing and parsing, response encoding
  - core/router: method and path-prefix route table
  - core: the engine that drives each connection
  - core/middleware, core/codec, core/observability, core/logging: handler
    decoration, body codecs, counters and the log sink
  - config, app, cmd/diaryd: configuration, process lifecycle and entry point
  - handlers/assets, handlers/diary: the static file server and diary pages

Quick Start

	cfg, _ := config.Load(os.Args[1:])
	log, _ := logging.New(logging.Options{Level: cfg.LogLevel})
	a, _ := app.New(cfg, log)
	a.Engine().GET("/hello", func(req *http.Request) (*http.Response, error) {
		return http.Text(http.StatusOK, "Hello, World!"), nil
	})
	a.Run(context.Background())
*/
package diaryserver
