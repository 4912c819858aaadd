package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
    cfg := FromEnv()

    assert.Equal(t, "info", cfg.Logging.Level)
    assert.Equal(t, "8080", cfg.HTTP.Port)
    assert.Equal(t, 4, cfg.Render.InitialBatchSize)
    assert.Equal(t, 4, cfg.Render.BatchSize)
    assert.Equal(t, 2, cfg.Render.MobileBatchSize)
    assert.Equal(t, 80, cfg.Render.JPEGQuality)
    assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
    assert.Equal(t, "jobs:fulfill:orders", cfg.Redis.Stream)
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("RENDER_INITIAL_BATCH", "8")
    t.Setenv("RENDER_MOBILE_SCALE", "0.75")
    t.Setenv("FETCH_TIMEOUT", "5s")
    t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")

    cfg := FromEnv()

    assert.Equal(t, 8, cfg.Render.InitialBatchSize)
    assert.Equal(t, 0.75, cfg.Render.MobileScale)
    assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
    assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.HTTP.AllowedOrigins)
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
    t.Setenv("RENDER_BATCH_SIZE", "not-a-number")
    t.Setenv("FETCH_TIMEOUT", "soon")

    cfg := FromEnv()

    assert.Equal(t, 4, cfg.Render.BatchSize)
    assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
}
