package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		origin   string
	}{
		{"bare host", "example.com", "https://example.com/", "https://example.com"},
		{"whitespace", "  example.com  ", "https://example.com/", "https://example.com"},
		{"keeps http", "http://example.com/app", "http://example.com/app", "http://example.com"},
		{"uppercase scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path", "https://example.com"},
		{"default port dropped", "https://example.com:443/", "https://example.com/", "https://example.com"},
		{"custom port kept", "example.com:8443/x?q=1", "https://example.com:8443/x?q=1", "https://example.com:8443"},
		{"idn host", "bücher.example", "https://xn--bcher-kva.example/", "https://xn--bcher-kva.example"},
		{"ipv4", "http://127.0.0.1:8080", "http://127.0.0.1:8080/", "http://127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.String())
			assert.Equal(t, tt.origin, Of(u))
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmpty},
		{"blank", "   ", ErrEmpty},
		{"ftp scheme", "ftp://example.com", ErrUnsupported},
		{"file scheme", "file:///etc/passwd", ErrUnsupported},
		{"space in host", "exa mple.com", ErrInvalid},
		{"no host", "https://", ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindInvalidInput))
			assert.Equal(t, "url", types.FieldOf(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOriginIdentityIsStable(t *testing.T) {
	for _, input := range []string{"example.com", "https://EXAMPLE.com:443", "https://example.com/a/b?c#d"} {
		u, err := Normalize(input)
		require.NoError(t, err)
		o, err := OfString(u.String())
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", o)
		assert.Equal(t, Of(u), o)
	}
}

func TestOfString(t *testing.T) {
	o, err := OfString("http://Example.com:80/path")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", o)

	_, err = OfString("not a url at all")
	assert.Error(t, err)

	_, err = OfString("/relative")
	assert.Error(t, err)
}

func TestParseOriginInput(t *testing.T) {
	o, err := ParseOriginInput("https://maps.example.com/some/path")
	require.NoError(t, err)
	assert.Equal(t, "https://maps.example.com", o)

	o, err = ParseOriginInput("maps.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://maps.example.com", o)

	_, err = ParseOriginInput("")
	assert.True(t, types.IsKind(err, types.KindInvalidInput))
}

func TestOfOpaque(t *testing.T) {
	for _, raw := range []string{
		"mailto:someone@example.org",
		"tel:+123",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"data:text/html,hi",
		"about:blank",
	} {
		o, err := OfString(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Opaque, o, raw)
	}

	o, err := OfString("wss://chat.example.com:443/socket")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com", o)
}

func TestParseOriginInputRetriesOpaque(t *testing.T) {
	o, err := ParseOriginInput("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:8080", o)

	_, err = ParseOriginInput("data:text/html,hi")
	assert.True(t, types.IsKind(err, types.KindInvalidInput))
}
