package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/analyst/api/metrics"
	"github.com/malbeclabs/analyst/api/server"
	"github.com/malbeclabs/analyst/internal/app"
	"github.com/malbeclabs/analyst/internal/config"
	"github.com/malbeclabs/analyst/utils/pkg/logger"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = ":8080"
	defaultMetricsAddr = ":2112"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg config.Config
	cfg.BindFlags(flag.CommandLine)
	showVersionFlag := flag.Bool("version", false, "show version and exit")
	verboseFlag := flag.Bool("verbose", false, "verbose mode - show debug logs")
	listenAddrFlag := flag.String("listen-addr", getenv("LISTEN_ADDR", defaultListenAddr), "address to listen on for the API (env: LISTEN_ADDR)")
	metricsAddrFlag := flag.String("metrics-addr", getenv("METRICS_ADDR", defaultMetricsAddr), "address to listen on for prometheus metrics (env: METRICS_ADDR)")
	requestTimeoutFlag := flag.Duration("request-timeout", 5*time.Minute, "deadline for each API request")
	maxUploadFlag := flag.Int64("max-upload-bytes", 64<<20, "maximum CSV upload size in bytes")
	flag.Parse()

	if *showVersionFlag {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	log := logger.New(*verboseFlag)

	// Start prometheus metrics server
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", *metricsAddrFlag)
			if err != nil {
				log.Error("Failed to start prometheus metrics server listener", "error", err)
				os.Exit(1)
			}
			log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("Failed to start prometheus metrics server", "error", err)
				os.Exit(1)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, log, &cfg, app.Options{WithAnalyst: true})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(context.Background())

	listener, err := net.Listen("tcp", *listenAddrFlag)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer listener.Close()

	srv, err := server.New(ctx, server.Config{
		Logger:         log,
		Listener:       listener,
		Analyzer:       a.Analyst,
		Ingester:       a.Ingester,
		Pinger:         a.Mongo,
		MaxUploadBytes: *maxUploadFlag,
		RequestTimeout: *requestTimeoutFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("analyst api starting",
		"version", version,
		"mongoDatabase", cfg.MongoDatabase,
		"collection", cfg.MongoCollection,
		"llmProvider", cfg.LLMProvider,
		"maxRetries", cfg.MaxRetries,
		"boundPolicy", cfg.BoundPolicy,
	)

	return srv.Run(ctx)
}
