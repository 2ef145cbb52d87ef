// Package config loads the server configuration from defaults, an optional
// YAML file, command-line flags and the environment, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxConns        int           `yaml:"max_conns"`
	MaxRequestBytes int           `yaml:"max_request_bytes"`
	StrictRoutes    bool          `yaml:"strict_routes"`

	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	Env      string `yaml:"env"` // development or production
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	AssetsDir    string `yaml:"assets_dir"`
	DiaryDir     string `yaml:"diary_dir"`
	TemplatesDir string `yaml:"templates_dir"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateBurst:    20,
		Env:          "development",
		LogLevel:     "debug",
		AssetsDir:    "assets",
		DiaryDir:     "diaries",
	}
}

// Load builds a Config from args (without the program name). Explicit flags
// win over the file named by -config; PORT wins over both.
func Load(args []string) (*Config, error) {
	cfg := Default()
	var path string

	fs := flag.NewFlagSet("diaryd", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "YAML configuration file")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Time allowed to receive a full request (0 disables)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Time allowed to send a response (0 disables)")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Connections served at once (0 is unbounded)")
	fs.IntVar(&cfg.MaxRequestBytes, "max-request-bytes", cfg.MaxRequestBytes, "Largest accepted request (0 is unbounded)")
	fs.BoolVar(&cfg.StrictRoutes, "strict-routes", cfg.StrictRoutes, "Fail on duplicate route registration")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second (0 disables)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "Requests allowed in a burst")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development/production)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug/info/warn/error/fatal)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Append logs to this file as well")
	fs.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Static asset directory")
	fs.StringVar(&cfg.DiaryDir, "diaries", cfg.DiaryDir, "Diary storage directory")
	fs.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "Directory overriding the built-in page templates")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		// Reapply explicit flags over the file values.
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	return c.decode(f)
}

func (c *Config) decode(r io.Reader) error {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot be served.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.ReadTimeout < 0, c.WriteTimeout < 0:
		return errors.New("timeouts cannot be negative")
	case c.MaxConns < 0:
		return errors.New("max_conns cannot be negative")
	case c.MaxRequestBytes < 0:
		return errors.New("max_request_bytes cannot be negative")
	case c.RateLimit < 0:
		return errors.New("rate_limit cannot be negative")
	case c.RateLimit > 0 && c.RateBurst < 1:
		return errors.New("rate_burst must be at least 1 when rate_limit is set")
	case c.Env != "development" && c.Env != "production":
		return fmt.Errorf("unknown env %q", c.Env)
	case c.DiaryDir == "":
		return errors.New("diary_dir is required")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }
