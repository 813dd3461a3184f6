package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebAppID(t *testing.T) {
	id1 := NewWebAppID()
	id2 := NewWebAppID()

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 36, len(id1.String()))
	assert.Equal(t, byte(4), byte(id1.Version()))
}

func TestIconIDIsDerivedFromID(t *testing.T) {
	appID := NewWebAppID()

	iconID := IconID(appID)

	assert.Equal(t, iconID, IconID(appID))
	assert.True(t, strings.HasPrefix(iconID, "xyz.andriishafar.Sitewrap.webapp."))
	assert.True(t, strings.HasSuffix(iconID, appID.String()))
	assert.Equal(t, iconID+".desktop", DesktopID(iconID))
}

func TestParse(t *testing.T) {
	appID := NewWebAppID()

	parsed, err := Parse(appID.String())
	require.NoError(t, err)
	assert.Equal(t, appID, parsed)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not-a-uuid"},
		{"braced", "{" + appID.String() + "}"},
		{"urn", "urn:uuid:" + appID.String()},
		{"no hyphens", strings.ReplaceAll(appID.String(), "-", "")},
		{"path traversal", "../../../../etc/passwd-000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParseAcceptsUppercase(t *testing.T) {
	appID := NewWebAppID()

	parsed, err := Parse(strings.ToUpper(appID.String()))
	require.NoError(t, err)
	assert.Equal(t, appID, parsed)
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines = 10
	const idsPerGoroutine = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[WebAppID]bool)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				generated := NewWebAppID()
				mu.Lock()
				seen[generated] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Len(t, seen, goroutines*idsPerGoroutine)
}
