// Package types provides the shared data model for sitewrap.
//
// This package defines the records every component agrees on, so the
// registry, the permission store, the icon pipeline and the orchestrator
// never exchange loosely typed maps.
//
// Core Types:
//   - WebAppDefinition: A registered website with its behavior flags
//   - PermissionStore: Per-origin capability decisions for one web app
//   - PerOriginPermissions: Notifications, camera, microphone, location
//   - Error: Typed failure with a Kind the UI layer translates
//
// Error Kinds:
//   - InvalidInput: Shown inline next to the offending field
//   - NotFound, ParseError, IoError: Storage failures
//   - PortalUnavailable, PortalError: Host integration failures
//   - IconError: Never surfaced; the fallback icon covers it
//   - EngineInitFailed: Fatal to a shell window only
//
// Example Usage:
//
//	def := types.NewWebAppDefinition("", startURL, origin.Of(startURL))
//	if types.IsKind(err, types.KindNotFound) {
//	    // unknown app
//	}
package types
