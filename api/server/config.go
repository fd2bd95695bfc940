package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/malbeclabs/analyst/api/handlers"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
	defaultRequestTimeout    = 5 * time.Minute
)

// Pinger reports whether the dataset engine is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Logger   *slog.Logger
	Listener net.Listener // HTTP server listener
	Analyzer handlers.Analyzer
	Ingester handlers.Ingester
	Pinger   Pinger // Used by /readyz (optional)

	AllowedOrigins    []string      // CORS origins (from ANALYST_ALLOWED_ORIGINS if empty)
	MaxUploadBytes    int64         // Upload size limit
	RequestTimeout    time.Duration // Deadline applied to every API request
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// LoadFromEnv loads configuration from environment variables.
// ANALYST_ALLOWED_ORIGINS format: "http://a,http://b"
func (cfg *Config) LoadFromEnv() error {
	if len(cfg.AllowedOrigins) > 0 {
		return nil
	}
	for _, origin := range strings.Split(os.Getenv("ANALYST_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:8080", "http://localhost:5173"}
	}
	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Listener == nil {
		return errors.New("listener is required")
	}
	if cfg.Analyzer == nil {
		return errors.New("analyzer is required")
	}
	if cfg.Ingester == nil {
		return errors.New("ingester is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = handlers.DefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}
