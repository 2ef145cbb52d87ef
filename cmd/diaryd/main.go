// Command diaryd serves the diary application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/searchktools/diary-server/app"
	"github.com/searchktools/diary-server/config"
	"github.com/searchktools/diary-server/core/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "diaryd: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "diaryd: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server startup failed")
		log.Close()
		os.Exit(1)
	}
	log.Close()
}

func run(cfg *config.Config, log *logging.Logger) error {
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	return a.Run(context.Background())
}
