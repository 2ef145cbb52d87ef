package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/searchktools/diary-server/config"
	"github.com/searchktools/diary-server/core"
	"github.com/searchktools/diary-server/core/http"
	"github.com/searchktools/diary-server/core/logging"
	"github.com/searchktools/diary-server/core/middleware"
	"github.com/searchktools/diary-server/core/observability"
	"github.com/searchktools/diary-server/core/router"
	"github.com/searchktools/diary-server/handlers/assets"
	"github.com/searchktools/diary-server/handlers/diary"
)

// ShutdownGrace is how long in-flight connections get after a stop signal.
const ShutdownGrace = 5 * time.Second

// App is the diary server process: one engine with its routes and the
// signal handling around it.
type App struct {
	cfg    *config.Config
	log    *logging.Logger
	engine *core.Engine
}

// New creates an application instance with every route registered.
func New(cfg *config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	stats := observability.NewStats()

	var ropts []router.Option
	if cfg.StrictRoutes {
		ropts = append(ropts, router.WithStrictRoutes())
	}
	engine := core.NewEngine(log,
		core.WithRouter(router.New(log, ropts...)),
		core.WithStats(stats),
		core.WithReadTimeout(cfg.ReadTimeout),
		core.WithWriteTimeout(cfg.WriteTimeout),
		core.WithMaxConns(cfg.MaxConns),
		core.WithMaxRequestBytes(cfg.MaxRequestBytes),
	)

	engine.Use(middleware.AccessLog(log), middleware.RequestID())
	if cfg.RateLimit > 0 {
		engine.Use(middleware.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	store, err := diary.NewStore(cfg.DiaryDir)
	if err != nil {
		return nil, err
	}
	pages, err := diary.New(store, log, cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}
	pages.Register(engine)

	engine.GET("/assets", assets.Handler(cfg.AssetsDir))
	engine.GET("/cube", assets.File(filepath.Join(cfg.AssetsDir, "html", "3D_cube.html"), http.MIMETextHTML))
	engine.GET("/_stats", middleware.Chain(observability.Handler(stats), middleware.CORS()))

	return &App{cfg: cfg, log: log, engine: engine}, nil
}

// Engine returns the underlying engine
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight connections for up to ShutdownGrace. A failure to bind is
// returned immediately.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	a.log.Info().
		Int("port", a.cfg.Port).
		Str("env", a.cfg.Env).
		Str("diaries", a.cfg.DiaryDir).
		Msg("diary server starting")

	g.Go(func() error {
		return a.engine.Run(ctx, a.cfg.Port)
	})

	g.Go(func() error {
		a.awaitSignal(ctx, cancel)

		sctx, done := context.WithTimeout(context.Background(), ShutdownGrace)
		defer done()
		return a.engine.Shutdown(sctx)
	})

	return g.Wait()
}

func (a *App) awaitSignal(ctx context.Context, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.log.Info().Stringer("signal", sig).Msg("signal received, shutting down")
		cancel()
	case <-ctx.Done():
	}
}
