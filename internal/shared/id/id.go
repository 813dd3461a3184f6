// Package id provides identifier generation for web apps.
//
// Web apps are keyed by a random 128-bit UUID. Everything else that needs a
// stable per-entity name (icon files, launcher desktop ids, icon handles) is
// derived from that UUID, never stored independently.
//
// Design Principles:
//   - One ID format: UUID v4, canonical lowercase hyphenated text
//   - Derived names are pure functions of the ID
//   - Parsing is strict so file names can be trusted as keys
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// WebAppID identifies a web app across the registry, the permission store
// and the profile directory.
type WebAppID = uuid.UUID

// Nil is the zero WebAppID.
var Nil = uuid.Nil

// ============================================================================
// Derived Names
// ============================================================================

const (
	// AppID is the application id of the sitewrap process itself.
	AppID = "xyz.andriishafar.Sitewrap"

	// IconPrefix prefixes every per-app icon id.
	IconPrefix = AppID + ".webapp."

	// DesktopSuffix is appended to an icon id to form a launcher desktop id.
	DesktopSuffix = ".desktop"
)

// IconID returns the icon id for a web app. It is used as the icon file
// prefix in the cache and as the launcher icon name.
func IconID(appID WebAppID) string {
	return IconPrefix + appID.String()
}

// DesktopID returns the launcher desktop file id for an icon id.
func DesktopID(iconID string) string {
	return iconID + DesktopSuffix
}

// NewWebAppID generates a new random web app id
func NewWebAppID() WebAppID {
	return uuid.New()
}

// ============================================================================
// Parsing and Validation
// ============================================================================

// Parse parses a canonical UUID string. Braced, URN and hyphen-less forms
// are rejected so that ids read back from file names round-trip exactly.
func Parse(s string) (WebAppID, error) {
	if len(s) != 36 {
		return Nil, fmt.Errorf("invalid web app id %q: expected 36 characters", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("invalid web app id %q: %w", s, err)
	}
	if u.String() != strings.ToLower(s) {
		return Nil, fmt.Errorf("invalid web app id %q: not canonical", s)
	}
	return u, nil
}
