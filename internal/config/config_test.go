package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.True(t, cfg.Processing.LenientJSON)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, "127.0.0.1:8090", cfg.GetServerAddr())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datascope.yaml")
	content := `
server:
  port: 9999
processing:
  lenientJson: false
watch:
  enabled: true
  directory: /tmp/drops
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Processing.LenientJSON)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "/tmp/drops", cfg.Watch.Directory)

	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.Equal(t, "./data/uploads", cfg.GetUploadDir())
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(root, "data")
	cfg.Storage.UploadsDirectory = filepath.Join(root, "data", "uploads")
	cfg.Storage.PreferencesFile = filepath.Join(root, "data", "prefs.db")
	cfg.Watch.Enabled = true
	cfg.Watch.Directory = filepath.Join(root, "drops")

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{
		cfg.Storage.DataDirectory,
		cfg.Storage.UploadsDirectory,
		cfg.Watch.Directory,
	} {
		fi, err := os.Stat(d)
		require.NoError(t, err, d)
		assert.True(t, fi.IsDir(), d)
	}
}
