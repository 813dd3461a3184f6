// Package config provides 12-factor configuration management for sitewrap.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags decide the mode (manager or shell); everything else lives here.
//
// Configuration Sections:
//   - Paths: Root override for config, data and cache directories
//   - Engine: Location of the web engine binaries
//   - Icons: Per-request timeout, user agent, rate limit and retries
//   - Logging: Log level and output format
//   - UI: Main loop tick interval
//   - Launcher: Executable name written into desktop launchers
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	p, err := paths.Resolve(cfg.Paths.Root)
//
// Environment Variables:
//   - SITEWRAP_CONFIG_ROOT, SITEWRAP_CEF_ROOT, CEF_ROOT
//   - SITEWRAP_ICON_TIMEOUT, SITEWRAP_ICON_USER_AGENT
//   - SITEWRAP_ICON_RPS, SITEWRAP_ICON_RETRIES (0 disables retries)
//   - LOG_LEVEL, LOG_DEV
//   - SITEWRAP_TICK_INTERVAL, SITEWRAP_EXECUTABLE
package config
