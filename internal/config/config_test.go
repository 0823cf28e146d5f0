package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poolconfig.yaml")
	contents := "variant: stealing\nworkerCount: 8\nlisten: \":9090\"\nseed: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stealing", cfg.Variant)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, int64(42), cfg.Seed)
}
