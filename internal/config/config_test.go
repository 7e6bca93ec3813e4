package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg := writeAndLoad(t, `
firecrawl:
  api_key: fc-test
`)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "firecrawl", cfg.Scraper.Provider)
	require.Equal(t, 50, cfg.Pipeline.MinContentChars)
	require.Equal(t, 30000, cfg.Pipeline.MaxPromptChars)
	require.Equal(t, 2, cfg.Pipeline.BatchDelaySeconds)
	require.Equal(t, "강릉", cfg.Search.Region)
	require.Equal(t, []string{
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash",
		"gemini-1.5-flash-latest",
	}, cfg.Gemini.ModelCandidates)
}

func TestLoadRejectsMissingFirecrawlKey(t *testing.T) {
	t.Parallel()

	_, err := loadString(t, `
scraper:
  provider: firecrawl
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "firecrawl.api_key")
}

func TestLoadDirectProviderNeedsNoKey(t *testing.T) {
	t.Parallel()

	cfg := writeAndLoad(t, `
scraper:
  provider: direct
`)
	require.Equal(t, "direct", cfg.Scraper.Provider)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := loadString(t, `
scraper:
  provider: carrier-pigeon
`)
	require.Error(t, err)
}

func TestLoadRejectsAuthWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := loadString(t, `
scraper:
  provider: direct
auth:
  enabled: true
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.api_key")
}

func writeAndLoad(t *testing.T, yaml string) Config {
	t.Helper()
	cfg, err := loadString(t, yaml)
	require.NoError(t, err)
	return cfg
}

func loadString(t *testing.T, yaml string) (Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return Load(path)
}
