package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

func TestIsExternal(t *testing.T) {
	def := &types.WebAppDefinition{
		PrimaryOrigin: "https://example.com",
		Behavior:      types.DefaultBehavior(),
	}

	tests := []struct {
		name     string
		target   string
		expected bool
	}{
		{"same origin", "https://example.com/inbox", false},
		{"default port", "https://example.com:443/", false},
		{"uppercase host", "https://EXAMPLE.com/", false},
		{"other host", "https://example.org/", true},
		{"subdomain", "https://mail.example.com/", true},
		{"scheme change", "http://example.com/", true},
		{"port change", "https://example.com:8443/", true},
		{"mailto", "mailto:someone@example.org", true},
		{"tel", "tel:+123", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"data", "data:text/html,hi", true},
		{"relative", "/settings", false},
		{"garbage", "::not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsExternal(def, tt.target))
		})
	}
}

func TestIsExternalDisabled(t *testing.T) {
	def := &types.WebAppDefinition{PrimaryOrigin: "https://example.com"}

	assert.False(t, IsExternal(def, "https://example.org/"))
}
