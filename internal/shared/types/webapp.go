package types

import (
	"net/url"
	"strings"
	"time"

	"github.com/sitewrap/sitewrap/internal/shared/id"
)

// DefaultName is used when neither the user nor the start URL supply a name
const DefaultName = "Web App"

// Behavior holds per-app shell behavior flags
type Behavior struct {
	OpenExternalLinks bool
	ShowNavigation    bool
}

// DefaultBehavior returns the behavior applied to newly created apps
func DefaultBehavior() Behavior {
	return Behavior{
		OpenExternalLinks: true,
		ShowNavigation:    false,
	}
}

// WebAppDefinition is a registered website
type WebAppDefinition struct {
	ID             id.WebAppID
	Name           string
	StartURL       string
	PrimaryOrigin  string
	IconID         string
	CreatedAt      time.Time
	LastLaunchedAt *time.Time
	Behavior       Behavior
}

// NewWebAppDefinition creates a definition for a normalized start URL.
// The caller is responsible for normalizing the URL first.
func NewWebAppDefinition(name string, startURL *url.URL, primaryOrigin string) *WebAppDefinition {
	appID := id.NewWebAppID()
	return &WebAppDefinition{
		ID:            appID,
		Name:          ResolveName(name, startURL),
		StartURL:      startURL.String(),
		PrimaryOrigin: primaryOrigin,
		IconID:        id.IconID(appID),
		CreatedAt:     time.Now().UTC(),
		Behavior:      DefaultBehavior(),
	}
}

// ResolveName trims name and falls back to the URL host
func ResolveName(name string, startURL *url.URL) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if startURL != nil && startURL.Hostname() != "" {
		return startURL.Hostname()
	}
	return DefaultName
}

// Clone returns a deep copy
func (d *WebAppDefinition) Clone() *WebAppDefinition {
	c := *d
	if d.LastLaunchedAt != nil {
		t := *d.LastLaunchedAt
		c.LastLaunchedAt = &t
	}
	return &c
}

// MarkLaunched records a launch at the given instant
func (d *WebAppDefinition) MarkLaunched(at time.Time) {
	t := at.UTC()
	d.LastLaunchedAt = &t
}

// DesktopID returns the launcher desktop file id
func (d *WebAppDefinition) DesktopID() string {
	return id.DesktopID(d.IconID)
}

// Matches reports whether the definition matches a free-text search query.
// The words "external" and "navigation" also match enabled behavior flags.
func (d *WebAppDefinition) Matches(query string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Name), needle) ||
		strings.Contains(strings.ToLower(d.StartURL), needle) ||
		strings.Contains(strings.ToLower(d.PrimaryOrigin), needle) {
		return true
	}
	if d.Behavior.OpenExternalLinks && strings.Contains("external", needle) {
		return true
	}
	return d.Behavior.ShowNavigation && strings.Contains("navigation", needle)
}
