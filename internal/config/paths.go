// Package config provides configuration management for vintner.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds all the path configurations for vintner.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/vintner)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/vintner)
	DataDir string

	// CacheDir is the directory for cache files (~/.cache/vintner)
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
			ConfigDir: filepath.Join(appData, "vintner"),
			DataDir:   filepath.Join(localAppData, "vintner"),
			CacheDir:  filepath.Join(localAppData, "vintner", "cache"),
		}
	}

	// Unix-like systems follow XDG Base Directory spec
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
		ConfigDir: filepath.Join(configHome, "vintner"),
		DataDir:   filepath.Join(dataHome, "vintner"),
		CacheDir:  filepath.Join(cacheHome, "vintner"),
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the run history database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "history.db")
}

// WrappersDir returns the directory where wrapper bundles are created.
func (p *Paths) WrappersDir() string {
	return filepath.Join(p.DataDir, "wrappers")
}

// EnginesDir returns the directory holding packaged engine archives.
func (p *Paths) EnginesDir() string {
	return filepath.Join(p.DataDir, "engines")
}

// ScriptsDir returns the directory for user script overrides.
func (p *Paths) ScriptsDir() string {
	return filepath.Join(p.ConfigDir, "scripts")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		p.CacheDir,
		p.WrappersDir(),
		p.EnginesDir(),
		p.ScriptsDir(),
		p.LogDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
