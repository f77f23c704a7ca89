package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fable/internal/story"
)

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, story.LanguageEnglish, cfg.DefaultLanguage())
	require.True(t, cfg.Backfill)
	require.Equal(t, 4, cfg.Retry.MaxRetries)
	require.Equal(t, 4*time.Second, cfg.Retry.BaseDelay)
	require.Equal(t, 2.0, cfg.Retry.Multiplier)
	require.Equal(t, "gpt-4o-mini", cfg.Models.Text)
	require.Equal(t, "alloy", cfg.Models.Voice)
	require.Equal(t, 120*time.Second, cfg.Timeout())
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
language: tr
backfill: false
models:
  text: gpt-4o
  voice: nova
  timeout_seconds: 30
retry:
  max_retries: 2
  base_delay: 1s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fable.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, story.LanguageTurkish, cfg.DefaultLanguage())
	require.False(t, cfg.Backfill)
	require.Equal(t, "gpt-4o", cfg.Models.Text)
	require.Equal(t, "nova", cfg.Models.Voice)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, 2, cfg.Retry.MaxRetries)
	require.Equal(t, time.Second, cfg.Retry.BaseDelay)
	// Unset keys keep their defaults.
	require.Equal(t, 2.0, cfg.Retry.Multiplier)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FABLE_MODELS_API_KEY", "sk-test-key")
	t.Setenv("FABLE_LANGUAGE", "tr")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk-test-key", cfg.Models.APIKey)
	require.Equal(t, story.LanguageTurkish, cfg.DefaultLanguage())
}

func TestLoadFallsBackToOpenAIKey(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FABLE_MODELS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk-openai-key", cfg.Models.APIKey)
}
