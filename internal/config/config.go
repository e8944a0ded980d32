package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the vintner configuration.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Wine    WineConfig    `yaml:"wine"`
	History HistoryConfig `yaml:"history"`
	UI      UIConfig      `yaml:"ui"`
}

// RunConfig holds pipeline execution settings.
type RunConfig struct {
	Shell         string `yaml:"shell"`           // "", none, sh, bash, zsh
	TailBytes     int    `yaml:"tail_bytes"`      // Bytes of per-step output kept in memory
	GracePeriodMs int    `yaml:"grace_period_ms"` // Interrupt-to-kill grace period on cancel
	Echo          bool   `yaml:"echo"`            // Echo commands before running by default
	LogLevel      string `yaml:"log_level"`       // debug, info, warn, error
}

// WineConfig holds Wine and wrapper settings.
type WineConfig struct {
	DefaultEngine string `yaml:"default_engine"` // Engine used when a wrapper names none
	WrappersDir   string `yaml:"wrappers_dir"`   // Wrapper bundle directory (overrides default)
	EnginesDir    string `yaml:"engines_dir"`    // Engine archive directory (overrides default)
	WinetricksBin string `yaml:"winetricks_bin"` // Winetricks executable
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`        // Record runs in the history database
	DatabasePath  string `yaml:"database_path"`  // Database file path (overrides default)
	RetentionDays int    `yaml:"retention_days"` // Days of history kept (0 = forever)
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	Progress string `yaml:"progress"` // auto, tui, plain
	Color    bool   `yaml:"color"`    // Styled output when the terminal supports it
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Shell:         "",
			TailBytes:     4096,
			GracePeriodMs: 5000,
			Echo:          false,
			LogLevel:      "info",
		},
		Wine: WineConfig{
			DefaultEngine: "",
			WrappersDir:   "", // Use default from paths
			EnginesDir:    "", // Use default from paths
			WinetricksBin: "winetricks",
		},
		History: HistoryConfig{
			Enabled:       true,
			DatabasePath:  "", // Use default from paths
			RetentionDays: 90,
		},
		UI: UIConfig{
			Progress: "auto",
			Color:    true,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "run.shell" or "wine.default_engine"
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "run":
		return c.getRunField(field)
	case "wine":
		return c.getWineField(field)
	case "history":
		return c.getHistoryField(field)
	case "ui":
		return c.getUIField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "run":
		return c.setRunField(field, value)
	case "wine":
		return c.setWineField(field, value)
	case "history":
		return c.setHistoryField(field, value)
	case "ui":
		return c.setUIField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getRunField(field string) (string, error) {
	switch field {
	case "shell":
		return c.Run.Shell, nil
	case "tail_bytes":
		return strconv.Itoa(c.Run.TailBytes), nil
	case "grace_period_ms":
		return strconv.Itoa(c.Run.GracePeriodMs), nil
	case "echo":
		return strconv.FormatBool(c.Run.Echo), nil
	case "log_level":
		return c.Run.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown field: run.%s", field)
	}
}

func (c *Config) setRunField(field, value string) error {
	switch field {
	case "shell":
		if !isValidShell(value) {
			return fmt.Errorf("invalid shell: %s (must be none, sh, bash, zsh, or empty)", value)
		}
		c.Run.Shell = value
	case "tail_bytes":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for tail_bytes: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid tail_bytes: must be positive")
		}
		c.Run.TailBytes = v
	case "grace_period_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for grace_period_ms: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid grace_period_ms: must be non-negative")
		}
		c.Run.GracePeriodMs = v
	case "echo":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for echo: %w", err)
		}
		c.Run.Echo = v
	case "log_level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", value)
		}
		c.Run.LogLevel = value
	default:
		return fmt.Errorf("unknown field: run.%s", field)
	}
	return nil
}

func (c *Config) getWineField(field string) (string, error) {
	switch field {
	case "default_engine":
		return c.Wine.DefaultEngine, nil
	case "wrappers_dir":
		return c.Wine.WrappersDir, nil
	case "engines_dir":
		return c.Wine.EnginesDir, nil
	case "winetricks_bin":
		return c.Wine.WinetricksBin, nil
	default:
		return "", fmt.Errorf("unknown field: wine.%s", field)
	}
}

func (c *Config) setWineField(field, value string) error {
	switch field {
	case "default_engine":
		c.Wine.DefaultEngine = value
	case "wrappers_dir":
		c.Wine.WrappersDir = value
	case "engines_dir":
		c.Wine.EnginesDir = value
	case "winetricks_bin":
		if value == "" {
			return fmt.Errorf("invalid winetricks_bin: must not be empty")
		}
		c.Wine.WinetricksBin = value
	default:
		return fmt.Errorf("unknown field: wine.%s", field)
	}
	return nil
}

func (c *Config) getHistoryField(field string) (string, error) {
	switch field {
	case "enabled":
		return strconv.FormatBool(c.History.Enabled), nil
	case "database_path":
		return c.History.DatabasePath, nil
	case "retention_days":
		return strconv.Itoa(c.History.RetentionDays), nil
	default:
		return "", fmt.Errorf("unknown field: history.%s", field)
	}
}

func (c *Config) setHistoryField(field, value string) error {
	switch field {
	case "enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for enabled: %w", err)
		}
		c.History.Enabled = v
	case "database_path":
		c.History.DatabasePath = value
	case "retention_days":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for retention_days: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid retention_days: must be non-negative")
		}
		c.History.RetentionDays = v
	default:
		return fmt.Errorf("unknown field: history.%s", field)
	}
	return nil
}

func (c *Config) getUIField(field string) (string, error) {
	switch field {
	case "progress":
		return c.UI.Progress, nil
	case "color":
		return strconv.FormatBool(c.UI.Color), nil
	default:
		return "", fmt.Errorf("unknown field: ui.%s", field)
	}
}

func (c *Config) setUIField(field, value string) error {
	switch field {
	case "progress":
		if !isValidProgressMode(value) {
			return fmt.Errorf("invalid progress: %s (must be auto, tui, or plain)", value)
		}
		c.UI.Progress = value
	case "color":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for color: %w", err)
		}
		c.UI.Color = v
	default:
		return fmt.Errorf("unknown field: ui.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidShell(c.Run.Shell) {
		return fmt.Errorf("run.shell must be none, sh, bash, zsh, or empty (got: %s)", c.Run.Shell)
	}

	if c.Run.TailBytes < 1 {
		return errors.New("run.tail_bytes must be >= 1")
	}

	if c.Run.GracePeriodMs < 0 {
		return errors.New("run.grace_period_ms must be >= 0")
	}

	if !isValidLogLevel(c.Run.LogLevel) {
		return fmt.Errorf("run.log_level must be debug, info, warn, or error (got: %s)", c.Run.LogLevel)
	}

	if c.Wine.WinetricksBin == "" {
		return errors.New("wine.winetricks_bin must not be empty")
	}

	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}

	if !isValidProgressMode(c.UI.Progress) {
		return fmt.Errorf("ui.progress must be auto, tui, or plain (got: %s)", c.UI.Progress)
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over config file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VINTNER_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Run.LogLevel = v
		}
	}
	if v := os.Getenv("VINTNER_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Run.LogLevel = "debug"
		}
	}
	if v := os.Getenv("VINTNER_WRAPPERS_DIR"); v != "" {
		c.Wine.WrappersDir = v
	}
	if v := os.Getenv("VINTNER_ENGINES_DIR"); v != "" {
		c.Wine.EnginesDir = v
	}
	if v := os.Getenv("VINTNER_ENGINE"); v != "" {
		c.Wine.DefaultEngine = v
	}
	if v := os.Getenv("NO_COLOR"); v != "" {
		c.UI.Color = false
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"run.shell",
		"run.tail_bytes",
		"run.grace_period_ms",
		"run.echo",
		"run.log_level",
		"wine.default_engine",
		"wine.wrappers_dir",
		"wine.engines_dir",
		"wine.winetricks_bin",
		"history.enabled",
		"history.database_path",
		"history.retention_days",
		"ui.progress",
		"ui.color",
	}
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidShell(shell string) bool {
	switch shell {
	case "", "none", "sh", "bash", "zsh":
		return true
	default:
		return false
	}
}

func isValidProgressMode(mode string) bool {
	switch mode {
	case "auto", "tui", "plain":
		return true
	default:
		return false
	}
}
