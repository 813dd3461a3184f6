// Package registry persists web app definitions.
//
// Each definition lives in its own human-readable TOML file, so a corrupt
// record only ever hides itself.
//
// Storage Structure:
//   - Path: <config>/apps/{uuid}.toml
//   - Whole-file writes through a temp file and rename
//   - Timestamps stored as RFC 3339 strings in UTC
//
// Example Usage:
//
//	manager := registry.NewManager(paths, logger)
//	err := manager.Save(def)
//	def, err := manager.Load(appID)     // NotFound or ParseError kinds
//	defs, err := manager.List()         // malformed records skipped
package registry
