package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "CORS_ORIGINS", "CACHE_BACKEND", "MAX_VIDEO_SECONDS", "FETCH_TIMEOUT", "TRANSCRIPT_COALESCE", "GEMINI_MODEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 1800, cfg.MaxVideoSeconds)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.Coalesce)
	assert.Equal(t, "gemini-flash-latest", cfg.GeminiModel)
	assert.Equal(t, 100, cfg.SummaryCacheSize)
	assert.Equal(t, 50, cfg.TranscriptCacheSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8088")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("TRANSCRIPT_COALESCE", "false")
	t.Setenv("MAX_VIDEO_SECONDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.Coalesce)
	assert.Equal(t, 1800, cfg.MaxVideoSeconds)
}
