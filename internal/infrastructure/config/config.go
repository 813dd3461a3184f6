package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Paths    PathsConfig
	Engine   EngineConfig
	Icons    IconsConfig
	Logging  LogConfig
	UI       UIConfig
	Launcher LauncherConfig
}

// PathsConfig overrides the XDG directory roots.
type PathsConfig struct {
	// Root, when set, replaces the config/data/cache roots with
	// Root/config, Root/data and Root/cache.
	Root string `envconfig:"SITEWRAP_CONFIG_ROOT"`
}

// EngineConfig locates the web engine binaries.
type EngineConfig struct {
	Root         string `envconfig:"SITEWRAP_CEF_ROOT"`
	FallbackRoot string `envconfig:"CEF_ROOT"`
}

// ResolvedRoot returns Root, falling back to FallbackRoot.
func (e EngineConfig) ResolvedRoot() string {
	if e.Root != "" {
		return e.Root
	}
	return e.FallbackRoot
}

// IconsConfig holds icon fetcher configuration. Timeout applies to each
// request, retries included.
type IconsConfig struct {
	Timeout           time.Duration `envconfig:"SITEWRAP_ICON_TIMEOUT" default:"10s"`
	UserAgent         string        `envconfig:"SITEWRAP_ICON_USER_AGENT" default:"sitewrap-icon-fetcher/0.1"`
	RequestsPerSecond float64       `envconfig:"SITEWRAP_ICON_RPS" default:"8"`
	RetryMax          int           `envconfig:"SITEWRAP_ICON_RETRIES" default:"2"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// UIConfig holds UI loop configuration.
type UIConfig struct {
	TickInterval time.Duration `envconfig:"SITEWRAP_TICK_INTERVAL" default:"16ms"`
}

// LauncherConfig holds desktop launcher configuration.
type LauncherConfig struct {
	Executable string `envconfig:"SITEWRAP_EXECUTABLE" default:"sitewrap"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Icons: IconsConfig{
			Timeout:           10 * time.Second,
			UserAgent:         "sitewrap-icon-fetcher/0.1",
			RequestsPerSecond: 8,
			RetryMax:          2,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		UI: UIConfig{
			TickInterval: 16 * time.Millisecond,
		},
		Launcher: LauncherConfig{
			Executable: "sitewrap",
		},
	}
}
