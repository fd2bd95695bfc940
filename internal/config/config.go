// Package config holds the settings shared by the server and the CLI. Every
// flag defaults to an environment variable so both binaries can run from a
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
	"github.com/malbeclabs/analyst/pkg/mongo"
	"github.com/malbeclabs/analyst/pkg/superstore"
)

const (
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "SuperStoreDB"
)

type Config struct {
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	LLMProvider     string
	LLMModel        string
	LLMMaxTokens    int64
	GeminiAPIKey    string
	AnthropicAPIKey string

	MaxRetries  int
	BoundPolicy string

	IngestBatchSize   int
	IngestConcurrency int
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// BindFlags registers the shared flags on fs with environment defaults.
func (cfg *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.MongoURI, "mongo-uri", getenv("MONGO_URI", defaultMongoURI), "MongoDB connection URI (env: MONGO_URI)")
	fs.StringVar(&cfg.MongoDatabase, "mongo-database", getenv("MONGO_DATABASE", defaultMongoDatabase), "MongoDB database (env: MONGO_DATABASE)")
	fs.StringVar(&cfg.MongoCollection, "mongo-collection", getenv("MONGO_COLLECTION", mongo.DefaultCollection), "MongoDB collection (env: MONGO_COLLECTION)")

	fs.StringVar(&cfg.LLMProvider, "llm-provider", getenv("LLM_PROVIDER", string(pipeline.ProviderGemini)), "text generation provider: gemini or anthropic (env: LLM_PROVIDER)")
	fs.StringVar(&cfg.LLMModel, "llm-model", getenv("LLM_MODEL", ""), "model name, provider default if empty (env: LLM_MODEL)")
	fs.Int64Var(&cfg.LLMMaxTokens, "llm-max-tokens", int64(getenvInt("LLM_MAX_TOKENS", 4096)), "maximum output tokens per generation (env: LLM_MAX_TOKENS)")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", getenv("GEMINI_API_KEY", ""), "Gemini API key (env: GEMINI_API_KEY)")
	fs.StringVar(&cfg.AnthropicAPIKey, "anthropic-api-key", getenv("ANTHROPIC_API_KEY", ""), "Anthropic API key (env: ANTHROPIC_API_KEY)")

	fs.IntVar(&cfg.MaxRetries, "max-retries", getenvInt("ANALYST_MAX_RETRIES", pipeline.DefaultMaxRetries), "correction rounds beyond the first attempt (env: ANALYST_MAX_RETRIES)")
	fs.StringVar(&cfg.BoundPolicy, "bound-policy", getenv("ANALYST_BOUND_POLICY", string(pipeline.BoundDiscardFinal)), "behavior at the retry bound: discard-final or execute-final (env: ANALYST_BOUND_POLICY)")

	fs.IntVar(&cfg.IngestBatchSize, "ingest-batch-size", getenvInt("INGEST_BATCH_SIZE", superstore.DefaultBatchSize), "documents per insert batch (env: INGEST_BATCH_SIZE)")
	fs.IntVar(&cfg.IngestConcurrency, "ingest-concurrency", getenvInt("INGEST_CONCURRENCY", superstore.DefaultConcurrency), "concurrent insert batches (env: INGEST_CONCURRENCY)")
}

func (cfg *Config) Validate() error {
	if cfg.MongoURI == "" {
		return errors.New("mongo URI is empty (set MONGO_URI or --mongo-uri)")
	}
	if cfg.MongoDatabase == "" {
		return errors.New("mongo database is empty (set MONGO_DATABASE or --mongo-database)")
	}
	if cfg.MongoCollection == "" {
		cfg.MongoCollection = mongo.DefaultCollection
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max retries must be >= 1, got %d", cfg.MaxRetries)
	}
	if _, err := pipeline.ParseBoundPolicy(cfg.BoundPolicy); err != nil {
		return err
	}
	return nil
}

// ValidateLLM checks that the selected provider has a key. Ingestion does
// not need one, so it is checked separately.
func (cfg *Config) ValidateLLM() error {
	llm := cfg.LLMConfig()
	switch llm.Provider {
	case pipeline.ProviderGemini:
		if llm.APIKey == "" {
			return errors.New("gemini API key is empty (set GEMINI_API_KEY or --gemini-api-key)")
		}
	case pipeline.ProviderAnthropic:
		if llm.APIKey == "" {
			return errors.New("anthropic API key is empty (set ANTHROPIC_API_KEY or --anthropic-api-key)")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
	return nil
}

// LLMConfig returns the generation settings for the selected provider.
func (cfg *Config) LLMConfig() pipeline.LLMConfig {
	provider := pipeline.Provider(cfg.LLMProvider)
	if provider == "" {
		provider = pipeline.ProviderGemini
	}
	key := cfg.GeminiAPIKey
	if provider == pipeline.ProviderAnthropic {
		key = cfg.AnthropicAPIKey
	}
	return pipeline.LLMConfig{
		Provider:  provider,
		APIKey:    key,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	}
}
