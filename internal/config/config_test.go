package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "closedcat" {
		t.Errorf("expected Name=closedcat, got %s", cfg.Name)
	}
	if cfg.ChiSquare.Alpha != 0.05 {
		t.Errorf("expected Alpha=0.05, got %v", cfg.ChiSquare.Alpha)
	}
	if len(cfg.Patch.Targets) != 4 {
		t.Errorf("expected 4 patch targets, got %d", len(cfg.Patch.Targets))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("CLOSEDCAT_DATA_DIR", "")
	t.Setenv("CLOSEDCAT_OUTPUT_DIR", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "closedcat.yaml")

	cfg := DefaultConfig()
	cfg.Data.Dir = "/srv/annotations"
	cfg.Sweep.Step = 0.25
	cfg.Output.Parquet = true

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/annotations", loaded.Data.Dir)
	assert.Equal(t, 0.25, loaded.Sweep.Step)
	assert.True(t, loaded.Output.Parquet)
	assert.Equal(t, cfg.Patch.Targets, loaded.Patch.Targets)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Data.Full, cfg.Data.Full)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sweep: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CLOSEDCAT_DATA_DIR", "/data")
	t.Setenv("CLOSEDCAT_OUTPUT_DIR", "/out")
	t.Setenv("CLOSEDCAT_DB", "/tmp/ledger.db")
	t.Setenv("CLOSEDCAT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "/out", cfg.Output.Dir)
	assert.Equal(t, "/tmp/ledger.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha zero", func(c *Config) { c.ChiSquare.Alpha = 0 }},
		{"alpha one", func(c *Config) { c.ChiSquare.Alpha = 1 }},
		{"sweep stop above one", func(c *Config) { c.Sweep.Stop = 1.5 }},
		{"negative block", func(c *Config) { c.ChiSquare.ContextBlock = -1 }},
		{"sweep inverted", func(c *Config) { c.Sweep.Start = 0.8; c.Sweep.Stop = 0.2 }},
		{"bad alternative", func(c *Config) { c.Sweep.Alternative = "sideways" }},
		{"bad alignment", func(c *Config) { c.Data.Alignment = "zip" }},
		{"bad category", func(c *Config) { c.Sweep.Categories = []string{"noun"} }},
		{"zero limit", func(c *Config) { c.TopTerms.Limit = 0 }},
		{"patch without keys", func(c *Config) { c.Patch.Targets[0].KeyCols = nil }},
		{"ledger without path", func(c *Config) { c.Store.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Dir = "data"
	cfg.Output.Dir = "out"

	assert.Equal(t, filepath.Join("data", "x.tsv"), cfg.DataPath("x.tsv"))
	assert.Equal(t, "/abs/x.tsv", cfg.DataPath("/abs/x.tsv"))
	assert.Equal(t, filepath.Join("out", "r.md"), cfg.OutputPath("r.md"))
	assert.Len(t, cfg.CategoryFiles(), 4)
}

func TestThresholds(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.Thresholds()
	require.Len(t, got, 11)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.3, got[3])
	assert.Equal(t, 1.0, got[10])

	cfg.Sweep.Step = 0
	assert.Equal(t, []float64{0}, cfg.Thresholds())
}
