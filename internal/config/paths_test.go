package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if paths.ConfigDir == "" {
		t.Error("ConfigDir is empty")
	}
	if paths.DataDir == "" {
		t.Error("DataDir is empty")
	}
	if paths.CacheDir == "" {
		t.Error("CacheDir is empty")
	}

	// All paths should be absolute
	if !filepath.IsAbs(paths.ConfigDir) {
		t.Errorf("ConfigDir should be absolute: %s", paths.ConfigDir)
	}
	if !filepath.IsAbs(paths.DataDir) {
		t.Errorf("DataDir should be absolute: %s", paths.DataDir)
	}
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	paths := DefaultPaths()

	if paths.ConfigDir != "/custom/config/vintner" {
		t.Errorf("ConfigDir = %s, want /custom/config/vintner", paths.ConfigDir)
	}
	if paths.DataDir != "/custom/data/vintner" {
		t.Errorf("DataDir = %s, want /custom/data/vintner", paths.DataDir)
	}
	if paths.CacheDir != "/custom/cache/vintner" {
		t.Errorf("CacheDir = %s, want /custom/cache/vintner", paths.CacheDir)
	}
}

func TestDerivedPaths(t *testing.T) {
	paths := &Paths{
		ConfigDir: "/cfg",
		DataDir:   "/data",
		CacheDir:  "/cache",
	}

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigFile", paths.ConfigFile(), filepath.Join("/cfg", "config.yaml")},
		{"DatabaseFile", paths.DatabaseFile(), filepath.Join("/data", "history.db")},
		{"WrappersDir", paths.WrappersDir(), filepath.Join("/data", "wrappers")},
		{"EnginesDir", paths.EnginesDir(), filepath.Join("/data", "engines")},
		{"ScriptsDir", paths.ScriptsDir(), filepath.Join("/cfg", "scripts")},
		{"LogDir", paths.LogDir(), filepath.Join("/data", "logs")},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	paths := &Paths{
		ConfigDir: filepath.Join(tmp, "config"),
		DataDir:   filepath.Join(tmp, "data"),
		CacheDir:  filepath.Join(tmp, "cache"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	for _, dir := range []string{
		paths.ConfigDir,
		paths.DataDir,
		paths.CacheDir,
		paths.WrappersDir(),
		paths.EnginesDir(),
		paths.ScriptsDir(),
		paths.LogDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("missing directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestPathsContainAppName(t *testing.T) {
	paths := DefaultPaths()

	if !strings.Contains(paths.ConfigDir, "vintner") {
		t.Errorf("ConfigDir does not contain app name: %s", paths.ConfigDir)
	}
	if !strings.Contains(paths.DataDir, "vintner") {
		t.Errorf("DataDir does not contain app name: %s", paths.DataDir)
	}
}
