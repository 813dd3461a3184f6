// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so the console front-ends keep stdout for
// their own output. Components take a *zap.Logger and name a child for
// themselves (registry, icons, portal, engine, app, ui).
//
// Example Usage:
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	defer logger.Sync()
//	logger.Named("registry").Warn("Skipping unreadable record", zap.Error(err))
package logging
