package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("EVALUATOR_PROVIDER", "mock")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 0.8, cfg.Similarity.Threshold)
	assert.Equal(t, 3000, cfg.Gateway.SoftTimeoutMS)
	assert.False(t, cfg.Gateway.IsEnabled())
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[store]
backend = "redis"

[similarity]
threshold = 0.75
candidate_limit = 50

[gateway]
provider = "openai"
model = "gpt-4o-mini"
soft_timeout_ms = 2000
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CANDIDATE_LIMIT", "25")
	t.Setenv("EVALUATOR_PROVIDER", "")
	t.Setenv("EVALUATOR_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_URI", "redis://cache:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 0.75, cfg.Similarity.Threshold)
	assert.Equal(t, 25, cfg.Similarity.CandidateLimit)
	assert.Equal(t, "openai", cfg.Gateway.Provider)
	assert.Equal(t, "sk-test", cfg.Gateway.APIKey)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 8000, cfg.Gateway.HardTimeoutMS)
	assert.True(t, cfg.Gateway.IsEnabled())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.HardTimeoutMS = 100
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Similarity.Threshold = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestModelEndpoint(t *testing.T) {
	g := defaultGateway()
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", g.ModelEndpoint("gemini-2.0-flash"))
	g.BaseURL = "http://localhost:9999"
	assert.Equal(t, "http://localhost:9999/m:generateContent", g.ModelEndpoint("m"))
}

func TestBackendsNeeded(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.NeedsMongo())
	assert.False(t, cfg.NeedsRedis())

	cfg.Store.Content = "mongo"
	assert.True(t, cfg.NeedsMongo())
	assert.False(t, cfg.NeedsRedis())

	cfg.Store.CacheContent = true
	assert.True(t, cfg.NeedsRedis())

	cfg = Default()
	cfg.Store.Backend = "redis"
	assert.True(t, cfg.NeedsRedis())
	assert.False(t, cfg.NeedsMongo())

	cfg.Telemetry.Persist = true
	assert.True(t, cfg.NeedsMongo())
}
