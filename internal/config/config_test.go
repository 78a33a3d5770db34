package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dense", cfg.HDC.Strategy)
	assert.Equal(t, 8192, cfg.HDC.Dimensions)
	assert.Equal(t, "on_empty", cfg.Query.SupplementPolicy)
	assert.Equal(t, 3, cfg.Query.MaxHoles)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "holograph.yaml")

	cfg := DefaultConfig()
	cfg.HDC.Strategy = "sparse"
	cfg.HDC.Dimensions = 1 << 16
	cfg.HDC.Density = 32
	cfg.Query.SupplementPolicy = "always"
	cfg.Symbolic.EvalTimeout = "30s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config changed across save/load (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30*time.Second, loaded.GetEvalTimeout())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holograph.yaml")
	partial := "hdc:\n  strategy: bipolar\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bipolar", cfg.HDC.Strategy)
	// Untouched sections keep their defaults.
	assert.Equal(t, 25, cfg.Query.MaxResults)
	assert.Equal(t, 12, cfg.Symbolic.MaxDepth)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hdc: [not: a: mapping"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOLOGRAPH_DB_PATH", "/tmp/override.db")
	t.Setenv("HOLOGRAPH_STRATEGY", "sparse")
	t.Setenv("HOLOGRAPH_DEBUG", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Store.DatabasePath)
	assert.Equal(t, "sparse", cfg.HDC.Strategy)
	assert.True(t, cfg.Logging.Debug)
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown strategy", func(c *Config) { c.HDC.Strategy = "holographic" }, "unknown hdc strategy"},
		{"zero dimensions", func(c *Config) { c.HDC.Dimensions = 0 }, "dimensions"},
		{"sparse without density", func(c *Config) { c.HDC.Strategy = "sparse"; c.HDC.Density = 0 }, "density"},
		{"zero max holes", func(c *Config) { c.Query.MaxHoles = 0 }, "max_holes"},
		{"unknown policy", func(c *Config) { c.Query.SupplementPolicy = "sometimes" }, "supplement policy"},
		{"zero proof depth", func(c *Config) { c.Symbolic.MaxDepth = 0 }, "max_depth"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.GetEvalTimeout())
	assert.Equal(t, 2*time.Second, cfg.GetProofTimeout())

	cfg.Symbolic.EvalTimeout = "garbage"
	cfg.Symbolic.ProofTimeout = "-5s"
	assert.Equal(t, 10*time.Second, cfg.GetEvalTimeout())
	assert.Equal(t, 2*time.Second, cfg.GetProofTimeout())
}
