package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, float64(10), cfg.Server.RateLimitRPS)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "memory", cfg.Checkpoint.Backend)
	assert.Equal(t, 12, cfg.Pipeline.QuestionQuota)
	assert.Equal(t, 8000, cfg.Pipeline.CVTokenBudget)
	assert.Zero(t, cfg.Pipeline.MaxFeedbackRounds)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_port: 9090
  read_timeout: 10s
llm:
  model: gpt-4o-mini
  rpm_limit: 30
checkpoint:
  backend: redis
  redis:
    addr: redis.internal:6379
    ttl: 48h
pipeline:
  question_quota: 8
  max_feedback_rounds: 5
log:
  level: debug
  format: json
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	// Unset file keys keep their defaults.
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.RPMLimit)
	assert.Equal(t, "redis", cfg.Checkpoint.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Checkpoint.Redis.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Checkpoint.Redis.TTL)
	assert.Equal(t, 8, cfg.Pipeline.QuestionQuota)
	assert.Equal(t, 5, cfg.Pipeline.MaxFeedbackRounds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_port: 9090
llm:
  model: gpt-4o-mini
`)

	t.Setenv("CAREERFLOW_SERVER_HTTP_PORT", "7070")
	t.Setenv("CAREERFLOW_SERVER_READ_TIMEOUT", "45s")
	t.Setenv("CAREERFLOW_SERVER_RATE_LIMIT_RPS", "2.5")
	t.Setenv("CAREERFLOW_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example, ")
	t.Setenv("CAREERFLOW_LLM_API_KEY", "sk-test")
	t.Setenv("CAREERFLOW_TELEMETRY_ENABLED", "true")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	// Env beats the file; untouched file values survive.
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2.5, cfg.Server.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoadCustomEnvPrefix(t *testing.T) {
	t.Setenv("CF_LLM_MODEL", "gpt-4")
	cfg, err := NewLoader().WithEnvPrefix("CF").Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad backend", func(c *Config) { c.Checkpoint.Backend = "postgres" }, `unknown checkpoint backend "postgres"`},
		{"negative quota", func(c *Config) { c.Pipeline.QuestionQuota = -1 }, "question_quota must not be negative"},
		{"negative rounds", func(c *Config) { c.Pipeline.MaxFeedbackRounds = -2 }, "max_feedback_rounds must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadInvalidEnvValue(t *testing.T) {
	t.Setenv("CAREERFLOW_SERVER_HTTP_PORT", "not-a-number")
	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAREERFLOW_SERVER_HTTP_PORT")
}
