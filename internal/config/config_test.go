package config

import (
	"os"
	"path/filepath"
	"testing"

	"georef/internal/georef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "automatic", cfg.Transform.Method)
	assert.Equal(t, 3, cfg.Transform.Order)
	assert.Equal(t, 1.0, cfg.Transform.Scaling)
	assert.Equal(t, 1024, cfg.Warp.Width)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	m, err := cfg.Transform.ParsedMethod()
	require.NoError(t, err)
	assert.Equal(t, georef.Automatic, m)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "georef.yaml")
	data := []byte("transform:\n  method: polynomial\n  order: 2\n  scaling: 0.001\nlog:\n  format: json\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "polynomial", cfg.Transform.Method)
	assert.Equal(t, 2, cfg.Transform.Order)
	assert.Equal(t, 0.001, cfg.Transform.Scaling)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GEOREF_TRANSFORM_METHOD", "spline")
	t.Setenv("GEOREF_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "spline", cfg.Transform.Method)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Config{
		Transform: TransformConfig{Method: "kriging", Order: 0, Scaling: -1},
		Warp:      WarpConfig{Width: 0, Workers: -2},
		Log:       LogConfig{Level: "loud", Format: "xml"},
	}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		`transform.method: unknown method "kriging"`,
		"transform.order must be at least 1, got 0",
		"transform.scaling must be a positive number, got -1",
		"warp.width must be positive, got 0",
		"warp.workers must not be negative, got -2",
		`log.level: unknown level "loud"`,
		`log.format must be text or json, got "xml"`,
	} {
		assert.Contains(t, msg, want)
	}
}
