// Package config provides configuration management for wardrobe.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "wardrobe"

// Paths holds all the path configurations for wardrobe.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/wardrobe)
	ConfigDir string

	// DataDir is the directory for the database and images (~/.local/share/wardrobe)
	DataDir string

	// CacheDir is the directory for cache files (~/.cache/wardrobe)
	CacheDir string
}

// DefaultPaths returns the default paths based on XDG Base Directory spec.
// On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir: filepath.Join(appData, appName),
			DataDir:   filepath.Join(localAppData, appName),
			CacheDir:  filepath.Join(localAppData, appName, "cache"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(home, ".cache")
	}

	return &Paths{
		ConfigDir: filepath.Join(configHome, appName),
		DataDir:   filepath.Join(dataHome, appName),
		CacheDir:  filepath.Join(cacheHome, appName),
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the SQLite database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "wardrobe.db")
}

// ImagesDir returns the directory clothing photos are copied into.
func (p *Paths) ImagesDir() string {
	return filepath.Join(p.DataDir, "images")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir, p.ImagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
