package cmd

import (
	"fmt"

	"github.com/vintner-cli/vintner/internal/config"
	"github.com/vintner-cli/vintner/internal/engine"
	"github.com/vintner-cli/vintner/internal/history"
	"github.com/vintner-cli/vintner/internal/scripts"
	"github.com/vintner-cli/vintner/internal/wrapper"
)

// appContext bundles the loaded configuration and the stores derived from
// it. Commands build one per invocation; nothing here is process-global.
type appContext struct {
	cfg   *config.Config
	paths *config.Paths
}

func newAppContext() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Run.LogLevel)
	if !cfg.UI.Color {
		disableColors()
	}
	return &appContext{cfg: cfg, paths: config.DefaultPaths()}, nil
}

func (a *appContext) wrappersDir() string {
	if a.cfg.Wine.WrappersDir != "" {
		return a.cfg.Wine.WrappersDir
	}
	return a.paths.WrappersDir()
}

func (a *appContext) enginesDir() string {
	if a.cfg.Wine.EnginesDir != "" {
		return a.cfg.Wine.EnginesDir
	}
	return a.paths.EnginesDir()
}

func (a *appContext) databasePath() string {
	if a.cfg.History.DatabasePath != "" {
		return a.cfg.History.DatabasePath
	}
	return a.paths.DatabaseFile()
}

func (a *appContext) wrapperStore() *wrapper.Store {
	return wrapper.NewStore(a.wrappersDir())
}

func (a *appContext) engineManager() *engine.Manager {
	return engine.NewManager(a.enginesDir())
}

// registry returns the script registry with builtins plus any user
// overrides from the scripts directory.
func (a *appContext) registry() (*scripts.Registry, error) {
	reg, err := scripts.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := reg.LoadDir(a.paths.ScriptsDir()); err != nil {
		return nil, err
	}
	return reg, nil
}

func (a *appContext) historyStore() (*history.Store, error) {
	return history.NewStore(a.databasePath())
}
