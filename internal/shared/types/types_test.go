package types

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewWebAppDefinitionDefaults(t *testing.T) {
	def := NewWebAppDefinition("  Example  ", mustURL(t, "https://example.com/"), "https://example.com")

	assert.Equal(t, "Example", def.Name)
	assert.Equal(t, "https://example.com/", def.StartURL)
	assert.Equal(t, "https://example.com", def.PrimaryOrigin)
	assert.True(t, def.Behavior.OpenExternalLinks)
	assert.False(t, def.Behavior.ShowNavigation)
	assert.Nil(t, def.LastLaunchedAt)
	assert.True(t, strings.HasSuffix(def.IconID, def.ID.String()))
	assert.Equal(t, time.UTC, def.CreatedAt.Location())
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		url      string
		expected string
	}{
		{"keeps trimmed name", "  Mail ", "https://mail.example.com/", "Mail"},
		{"empty uses host", "", "https://example.com/", "example.com"},
		{"whitespace uses host", "   ", "https://example.com:8443/", "example.com"},
		{"no host uses default", "", "https:///path", DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveName(tt.input, mustURL(t, tt.url)))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	def := NewWebAppDefinition("A", mustURL(t, "https://a.test/"), "https://a.test")
	def.MarkLaunched(time.Now())

	c := def.Clone()
	*c.LastLaunchedAt = c.LastLaunchedAt.Add(time.Hour)

	assert.False(t, def.LastLaunchedAt.Equal(*c.LastLaunchedAt))
}

func TestMatches(t *testing.T) {
	def := NewWebAppDefinition("Mail", mustURL(t, "https://mail.example.com/"), "https://mail.example.com")

	assert.True(t, def.Matches(""))
	assert.True(t, def.Matches("MAIL"))
	assert.True(t, def.Matches("example"))
	assert.True(t, def.Matches("extern"))
	assert.False(t, def.Matches("navigation"))

	def.Behavior.ShowNavigation = true
	assert.True(t, def.Matches("navigation"))
	assert.False(t, def.Matches("calendar"))
}

func TestPermissionStoreDefaults(t *testing.T) {
	store := NewPermissionStore()
	assert.Equal(t, 0, store.Len())

	p, created := store.GetOrDefault("https://example.com")
	assert.True(t, created)
	assert.Equal(t, DefaultPermissions(), p)

	_, created = store.GetOrDefault("https://example.com")
	assert.False(t, created)

	store.SetState("https://example.com", PermissionCamera, PermissionBlock)
	p, _ = store.Lookup("https://example.com")
	assert.Equal(t, PermissionBlock, p.Camera)
	assert.Equal(t, PermissionAsk, p.Notifications)
}

func TestPermissionStoreOriginsSorted(t *testing.T) {
	store := NewPermissionStore()
	store.GetOrDefault("https://zeta.test")
	store.GetOrDefault("http://alpha.test")
	store.GetOrDefault("https://beta.test")

	assert.Equal(t, []string{"http://alpha.test", "https://beta.test", "https://zeta.test"}, store.Origins())
}

func TestPermissionKindAccessors(t *testing.T) {
	p := DefaultPermissions()
	for _, kind := range PermissionKinds() {
		p.Set(kind, PermissionAllow)
		assert.Equal(t, PermissionAllow, p.Get(kind), kind)
	}
}

func TestPermissionKindTitle(t *testing.T) {
	assert.Equal(t, "Notifications", PermissionNotifications.Title())
	assert.Equal(t, "Location", PermissionLocation.Title())

	kind, err := ParsePermissionKind(" Camera ")
	require.NoError(t, err)
	assert.Equal(t, PermissionCamera, kind)

	_, err = ParsePermissionKind("bluetooth")
	assert.Error(t, err)
}

func TestParsePermissionState(t *testing.T) {
	for input, expected := range map[string]PermissionState{
		"":       PermissionAsk,
		"ask":    PermissionAsk,
		"Allow":  PermissionAllow,
		" block": PermissionBlock,
	} {
		got, err := ParsePermissionState(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got)
	}

	_, err := ParsePermissionState("maybe")
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	base := Wrap(KindNotFound, "registry.load", os.ErrNotExist)
	wrapped := fmt.Errorf("shell: %w", base)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, os.ErrNotExist))
	assert.False(t, errors.Is(wrapped, ErrParse))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Nil(t, Wrap(KindIO, "op", nil))
}

func TestFieldError(t *testing.T) {
	err := FieldError("create", "url", "Please enter a URL")

	assert.True(t, IsKind(err, KindInvalidInput))
	assert.Equal(t, "url", FieldOf(err))
	assert.Equal(t, "Please enter a URL", Message(err))
	assert.Contains(t, err.Error(), "create")
}
