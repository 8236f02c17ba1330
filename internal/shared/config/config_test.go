package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"HOST", "PORT", "ENV", "CORS_ALLOW_ORIGINS", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"OPENAI_MODEL", "OPENAI_VISION_MODEL", "OPENAI_MAX_TOKENS", "OPENAI_TEMPERATURE",
	"ANALYSIS_TIMEOUT", "MAX_REQUEST_BODY_SIZE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"LOG_LEVEL", "CONFIG_FILE",
}

// isolate runs the test in an empty directory with a clean config env.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configEnvKeys {
		// Setenv registers the restore; the key must then be absent so
		// .env files may fill it.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8003", cfg.Port)
	assert.Equal(t, "0.0.0.0:8003", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigin)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "gpt-4o", cfg.OpenAIVisionModel)
	assert.Equal(t, 1000, cfg.OpenAIMaxTokens)
	assert.InDelta(t, 0.1, cfg.OpenAITemperature, 0.0001)
	assert.Equal(t, 60*time.Second, cfg.AnalysisTimeout)
	assert.EqualValues(t, 220<<20, cfg.MaxRequestBodySize)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.False(t, cfg.OpenAIConfigured())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "prod")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_VISION_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_MAX_TOKENS", "500")
	t.Setenv("ANALYSIS_TIMEOUT", "15s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowOrigin)
	assert.True(t, cfg.OpenAIConfigured())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIVisionModel)
	assert.Equal(t, 500, cfg.OpenAIMaxTokens)
	assert.Equal(t, 15*time.Second, cfg.AnalysisTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_MAX_TOKENS", "lots")
	t.Setenv("ANALYSIS_TIMEOUT", "-5s")
	t.Setenv("OPENAI_TEMPERATURE", "warm")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.OpenAIMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.AnalysisTimeout)
	assert.InDelta(t, 0.1, cfg.OpenAITemperature, 0.0001)
}

func TestLoadInvalidPort(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "99999")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fixme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"8100\"\nopenai_model: gpt-4.1\nanalysis_timeout: 45s\ncors_allow_origins:\n  - http://yaml.example\n",
	), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_MODEL", "gpt-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8100", cfg.Port)
	assert.Equal(t, "gpt-env", cfg.OpenAIModel)
	assert.Equal(t, 45*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, []string{"http://yaml.example"}, cfg.CORSAllowOrigin)
}

func TestLoadMissingYAMLFile(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIG_FILE", "/does/not/exist.yaml")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_MODEL=gpt-dotenv\nPORT=8200\n"), 0o600))
	t.Setenv("PORT", "8300")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-dotenv", cfg.OpenAIModel)
	assert.Equal(t, "8300", cfg.Port)
}
