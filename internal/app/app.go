// Package app wires the analyst, executor, and ingestion pipeline from a
// shared configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
	"github.com/malbeclabs/analyst/internal/config"
	"github.com/malbeclabs/analyst/pkg/mongo"
	"github.com/malbeclabs/analyst/pkg/superstore"
)

type App struct {
	Mongo    *mongo.Client
	Store    *mongo.Store
	Executor *mongo.Executor
	Ingester *superstore.Ingester

	// Analyst is nil when the app was opened without generation.
	Analyst *pipeline.Analyst
}

type Options struct {
	WithAnalyst bool
	OnProgress  pipeline.ProgressCallback
}

// Open connects to MongoDB and builds every component the options ask for.
func Open(ctx context.Context, log *slog.Logger, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.WithAnalyst {
		if err := cfg.ValidateLLM(); err != nil {
			return nil, err
		}
	}

	client, err := mongo.NewClient(ctx, log, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	coll := client.Collection(cfg.MongoCollection)

	a := &App{
		Mongo:    client,
		Store:    mongo.NewStore(log, coll),
		Executor: mongo.NewExecutor(log, coll),
	}

	a.Ingester, err = superstore.NewIngester(&superstore.IngestConfig{
		Logger:      log,
		Upserter:    a.Store,
		BatchSize:   cfg.IngestBatchSize,
		Concurrency: cfg.IngestConcurrency,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	if opts.WithAnalyst {
		a.Analyst, err = NewAnalyst(log, cfg, a.Executor, opts.OnProgress)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	return a, nil
}

// NewAnalyst builds an Analyst that runs its pipelines on exec.
func NewAnalyst(log *slog.Logger, cfg *config.Config, exec pipeline.Executor, onProgress pipeline.ProgressCallback) (*pipeline.Analyst, error) {
	llm, err := pipeline.NewLLMClient(log, cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	prompts, err := pipeline.LoadPrompts()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	policy, err := pipeline.ParseBoundPolicy(cfg.BoundPolicy)
	if err != nil {
		return nil, err
	}
	return pipeline.New(&pipeline.Config{
		Logger:      log,
		Generator:   pipeline.NewDegradingGenerator(log, llm),
		Executor:    exec,
		Prompts:     prompts,
		MaxRetries:  cfg.MaxRetries,
		BoundPolicy: policy,
		OnProgress:  onProgress,
	})
}

func (a *App) Close(ctx context.Context) {
	if a.Ingester != nil {
		a.Ingester.Close()
	}
	if a.Mongo != nil {
		_ = a.Mongo.Close(ctx)
	}
}
