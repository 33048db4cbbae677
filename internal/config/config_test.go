package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultHasQualityFloorFive(t *testing.T) {
	cfg := Default()
	require.Equal(t, 5, cfg.Scraper.QualityFloor)
	require.Equal(t, 5, cfg.Ingestion.QualityFloor)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/bookmarkd.yaml")
	require.NoError(t, err)
	require.Equal(t, 15, cfg.RateLimit.PerMinute)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("store:\n  database_url: file:from-yaml.db\n"), 0644))

	t.Setenv("DATABASE_URL", "file:from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file:from-env.db", cfg.Store.DatabaseURL)
}

func TestEnvOverridesGeminiKeyFeedsEmbeddingToo(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")
	cfg := Default()
	ApplyEnvOverrides(cfg)
	require.Equal(t, "test-key-123", cfg.LLM.DefaultAPIKey)
	require.Equal(t, "test-key-123", cfg.Embedding.GenAIAPIKey)
}
