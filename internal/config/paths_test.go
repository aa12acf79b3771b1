package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	assert.NotEmpty(t, paths.ConfigDir)
	assert.NotEmpty(t, paths.DataDir)
	assert.NotEmpty(t, paths.CacheDir)
	assert.True(t, filepath.IsAbs(paths.ConfigDir), "ConfigDir should be absolute: %s", paths.ConfigDir)
	assert.True(t, filepath.IsAbs(paths.DataDir), "DataDir should be absolute: %s", paths.DataDir)
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	paths := DefaultPaths()

	assert.Equal(t, "/custom/config/wardrobe", paths.ConfigDir)
	assert.Equal(t, "/custom/data/wardrobe", paths.DataDir)
	assert.Equal(t, "/custom/cache/wardrobe", paths.CacheDir)
	assert.Equal(t, "/custom/config/wardrobe/config.yaml", paths.ConfigFile())
	assert.Equal(t, "/custom/data/wardrobe/wardrobe.db", paths.DatabaseFile())
	assert.True(t, strings.HasPrefix(paths.ImagesDir(), paths.DataDir))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
		CacheDir:  filepath.Join(root, "cache"),
	}

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.ConfigDir, paths.DataDir, paths.CacheDir, paths.ImagesDir()} {
		assert.DirExists(t, dir)
	}
}
