package types

import (
	"fmt"
	"sort"
	"strings"
)

// PermissionState is the user's decision for one capability on one origin
type PermissionState string

const (
	PermissionAsk   PermissionState = "ask"
	PermissionAllow PermissionState = "allow"
	PermissionBlock PermissionState = "block"
)

// ParsePermissionState parses a stored state. Empty means ask.
func ParsePermissionState(s string) (PermissionState, error) {
	switch PermissionState(strings.ToLower(strings.TrimSpace(s))) {
	case "", PermissionAsk:
		return PermissionAsk, nil
	case PermissionAllow:
		return PermissionAllow, nil
	case PermissionBlock:
		return PermissionBlock, nil
	default:
		return PermissionAsk, fmt.Errorf("unknown permission state %q", s)
	}
}

// Label returns the display label used by permission editors
func (s PermissionState) Label() string {
	switch s {
	case PermissionAllow:
		return "Allow"
	case PermissionBlock:
		return "Block"
	default:
		return "Ask"
	}
}

// PermissionKind names a capability a site may request
type PermissionKind string

const (
	PermissionNotifications PermissionKind = "notifications"
	PermissionCamera        PermissionKind = "camera"
	PermissionMicrophone    PermissionKind = "microphone"
	PermissionLocation      PermissionKind = "location"
)

// PermissionKinds lists every kind in display order
func PermissionKinds() []PermissionKind {
	return []PermissionKind{
		PermissionNotifications,
		PermissionCamera,
		PermissionMicrophone,
		PermissionLocation,
	}
}

// Title returns the display name of a kind
func (k PermissionKind) Title() string {
	switch k {
	case PermissionNotifications:
		return "Notifications"
	case PermissionCamera:
		return "Camera"
	case PermissionMicrophone:
		return "Microphone"
	case PermissionLocation:
		return "Location"
	default:
		return string(k)
	}
}

// ParsePermissionKind parses a kind name
func ParsePermissionKind(s string) (PermissionKind, error) {
	k := PermissionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PermissionKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown permission kind %q", s)
}

// PerOriginPermissions holds the four independent capability states
type PerOriginPermissions struct {
	Notifications PermissionState
	Camera        PermissionState
	Microphone    PermissionState
	Location      PermissionState
}

// DefaultPermissions returns all-ask permissions
func DefaultPermissions() PerOriginPermissions {
	return PerOriginPermissions{
		Notifications: PermissionAsk,
		Camera:        PermissionAsk,
		Microphone:    PermissionAsk,
		Location:      PermissionAsk,
	}
}

// Get returns the state for a kind
func (p PerOriginPermissions) Get(kind PermissionKind) PermissionState {
	switch kind {
	case PermissionNotifications:
		return p.Notifications
	case PermissionCamera:
		return p.Camera
	case PermissionMicrophone:
		return p.Microphone
	case PermissionLocation:
		return p.Location
	default:
		return PermissionAsk
	}
}

// Set updates the state for a kind
func (p *PerOriginPermissions) Set(kind PermissionKind, state PermissionState) {
	switch kind {
	case PermissionNotifications:
		p.Notifications = state
	case PermissionCamera:
		p.Camera = state
	case PermissionMicrophone:
		p.Microphone = state
	case PermissionLocation:
		p.Location = state
	}
}

// PermissionStore maps origins to their permissions for one web app
type PermissionStore struct {
	origins map[string]PerOriginPermissions
}

// NewPermissionStore returns an empty store
func NewPermissionStore() *PermissionStore {
	return &PermissionStore{origins: make(map[string]PerOriginPermissions)}
}

// Len returns the number of origins
func (s *PermissionStore) Len() int {
	return len(s.origins)
}

// Lookup returns the permissions for an origin without materializing it
func (s *PermissionStore) Lookup(origin string) (PerOriginPermissions, bool) {
	p, ok := s.origins[origin]
	return p, ok
}

// GetOrDefault returns the permissions for an origin, materializing
// defaults when absent. The boolean reports whether it was created.
func (s *PermissionStore) GetOrDefault(origin string) (PerOriginPermissions, bool) {
	if s.origins == nil {
		s.origins = make(map[string]PerOriginPermissions)
	}
	if p, ok := s.origins[origin]; ok {
		return p, false
	}
	p := DefaultPermissions()
	s.origins[origin] = p
	return p, true
}

// Put replaces the permissions for an origin
func (s *PermissionStore) Put(origin string, p PerOriginPermissions) {
	if s.origins == nil {
		s.origins = make(map[string]PerOriginPermissions)
	}
	s.origins[origin] = p
}

// SetState updates a single capability for an origin, materializing it first
func (s *PermissionStore) SetState(origin string, kind PermissionKind, state PermissionState) {
	p, _ := s.GetOrDefault(origin)
	p.Set(kind, state)
	s.origins[origin] = p
}

// Origins returns the origins in lexicographic order
func (s *PermissionStore) Origins() []string {
	out := make([]string, 0, len(s.origins))
	for origin := range s.origins {
		out = append(out, origin)
	}
	sort.Strings(out)
	return out
}
