// Package paths provides the canonical on-disk layout.
//
// Every component resolves locations through this package so that reset
// and remove can reason about exactly which files an app owns.
//
// # Directory Structure
//
//	<config>/
//	  ├── apps/<id>.toml          (registry records)
//	  └── permissions/<id>.toml   (permission stores)
//	<data>/
//	  └── profiles/<id>/          (browser profile, opaque)
//	<cache>/
//	  └── icons/<icon_id>-<N>x<N>.png
//
// # Usage
//
//	p, err := paths.New()              // XDG roots
//	p := paths.ForRoot(t.TempDir())    // single root, used by tests
//
//	p.AppFile(appID)
//	p.DeleteProfileDir(appID)          // no-op when absent
//	p.DeleteIconsFor(def.IconID)       // prefix match in icons/
package paths
