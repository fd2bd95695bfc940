package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
)

func parse(t *testing.T, args ...string) *Config {
	t.Helper()
	var cfg Config
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &cfg
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANALYST_MAX_RETRIES", "")

	cfg := parse(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultMongoURI, cfg.MongoURI)
	assert.Equal(t, "superstore", cfg.MongoCollection)
	assert.Equal(t, pipeline.DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, string(pipeline.BoundDiscardFinal), cfg.BoundPolicy)
	assert.Equal(t, pipeline.ProviderGemini, cfg.LLMConfig().Provider)
}

func TestConfig_EnvFallback(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("MONGO_DATABASE", "analytics")
	t.Setenv("ANALYST_MAX_RETRIES", "3")
	t.Setenv("ANALYST_BOUND_POLICY", "execute-final")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := parse(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "analytics", cfg.MongoDatabase)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "execute-final", cfg.BoundPolicy)
	require.NoError(t, cfg.ValidateLLM())
	assert.Equal(t, "g-key", cfg.LLMConfig().APIKey)
}

func TestConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MONGO_DATABASE", "from-env")

	cfg := parse(t, "--mongo-database", "from-flag", "--llm-provider", "anthropic", "--anthropic-api-key", "a-key")
	assert.Equal(t, "from-flag", cfg.MongoDatabase)

	llm := cfg.LLMConfig()
	assert.Equal(t, pipeline.ProviderAnthropic, llm.Provider)
	assert.Equal(t, "a-key", llm.APIKey)
}

func TestConfig_InvalidIntEnvUsesDefault(t *testing.T) {
	t.Setenv("ANALYST_MAX_RETRIES", "lots")
	cfg := parse(t)
	assert.Equal(t, pipeline.DefaultMaxRetries, cfg.MaxRetries)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("bad policy", func(t *testing.T) {
		cfg := parse(t, "--bound-policy", "sometimes")
		require.ErrorContains(t, cfg.Validate(), "invalid bound policy")
	})

	t.Run("zero retries", func(t *testing.T) {
		cfg := parse(t, "--max-retries", "0")
		require.Error(t, cfg.Validate())
	})

	t.Run("empty database", func(t *testing.T) {
		cfg := parse(t, "--mongo-database", "")
		require.ErrorContains(t, cfg.Validate(), "database")
	})
}

func TestConfig_ValidateLLM(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := parse(t)
	require.ErrorContains(t, cfg.ValidateLLM(), "GEMINI_API_KEY")

	cfg = parse(t, "--llm-provider", "anthropic")
	require.ErrorContains(t, cfg.ValidateLLM(), "ANTHROPIC_API_KEY")

	cfg = parse(t, "--llm-provider", "openai")
	require.ErrorContains(t, cfg.ValidateLLM(), "unknown LLM provider")
}
