package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.News.MinPositivityScore)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.CheckPeriod)
	assert.Equal(t, "multi", cfg.News.Adapter)
	assert.Equal(t, "sentiment", cfg.News.Analyzer)
	assert.Len(t, cfg.RSS.Feeds["all"], 3)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
news:
  adapter: rss
  min_positivity_score: 55
cache:
  ttl: 90s
rss:
  feeds:
    all:
      - https://example.com/feed.xml
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("GUARDIAN_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rss", cfg.News.Adapter)
	assert.Equal(t, 55, cfg.News.MinPositivityScore)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, cfg.RSS.Feeds["all"])
	assert.Equal(t, "secret", cfg.Guardian.APIKey)
}
