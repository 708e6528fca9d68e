package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultLunarBaseURL, cfg.Lunar.BaseURL)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.Equal(t, DefaultListenAddr, cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Worker.Concurrency)
	assert.False(t, cfg.Lunar.Enabled())
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.Lunar.UseRedis())
}

func TestLoadFileYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
lunar:
  base_url: "https://lunar.example.com/"
  api_key: file-key
  timeout: 3s
  cache_ttl: 1h
ai:
  api_key: " ai-file-key "
  model: some-model
  max_tokens: 512
server:
  addr: ":9090"
worker:
  concurrency: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("YIJING_LUNAR_API_KEY", "env-key")
	t.Setenv("YIJING_LUNAR_REDIS_ADDR", "localhost:6379")
	t.Setenv("YIJING_AI_TEMPERATURE", "0.2")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://lunar.example.com", cfg.Lunar.BaseURL)
	assert.Equal(t, "env-key", cfg.Lunar.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Lunar.Timeout)
	assert.Equal(t, time.Hour, cfg.Lunar.CacheTTL)
	assert.True(t, cfg.Lunar.Enabled())
	assert.True(t, cfg.Lunar.UseRedis())

	assert.Equal(t, "ai-file-key", cfg.AI.APIKey)
	assert.Equal(t, "some-model", cfg.AI.Model)
	assert.Equal(t, DefaultMindmapModel, cfg.AI.MindmapModel)
	assert.Equal(t, 512, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-9)
	assert.True(t, cfg.AI.Enabled())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ai":{"api_key":"k","model":""},"worker":{"concurrency":-1}}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.AI.APIKey)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.Equal(t, 6, cfg.Worker.Concurrency)
}

func TestLoadFileJSONDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lunar":{"timeout":"5s","cache_ttl":"90m"},"ai":{"timeout":"1m30s"}}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Lunar.Timeout)
	assert.Equal(t, 90*time.Minute, cfg.Lunar.CacheTTL)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
}

func TestLoadFileRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lunar: [unclosed"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadReadsPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o644))
	t.Setenv(envConfigPath, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}
