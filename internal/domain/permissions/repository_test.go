package permissions

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

func newTestRepo(t *testing.T) (*Repository, *paths.Paths) {
	t.Helper()
	p := paths.ForRoot(t.TempDir())
	return NewRepository(p, zap.NewNop()), p
}

func TestLoadMissingIsEmpty(t *testing.T) {
	r, _ := newTestRepo(t)
	store, err := r.Load(id.NewWebAppID())
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, p := newTestRepo(t)
	appID := id.NewWebAppID()

	store := types.NewPermissionStore()
	store.GetOrDefault("https://example.com")
	store.SetState("https://example.com", types.PermissionNotifications, types.PermissionAllow)
	store.SetState("http://localhost:8080", types.PermissionCamera, types.PermissionBlock)

	require.NoError(t, r.Save(appID, store))
	assert.True(t, r.Exists(appID))

	loaded, err := r.Load(appID)
	require.NoError(t, err)
	assert.Equal(t, store.Origins(), loaded.Origins())
	for _, origin := range store.Origins() {
		want, _ := store.Lookup(origin)
		got, ok := loaded.Lookup(origin)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	data, err := os.ReadFile(p.PermissionFile(appID))
	require.NoError(t, err)
	assert.Contains(t, string(data), "'https://example.com' = {")
	assert.Contains(t, string(data), "notifications = 'allow'")
}

func TestLoadAcceptsHandWrittenDocument(t *testing.T) {
	r, p := newTestRepo(t)
	appID := id.NewWebAppID()

	doc := `"https://example.com" = { notifications = "block", camera = "allow", microphone = "ask", location = "ask" }
"https://maps.example.com" = { location = "allow" }
`
	require.NoError(t, os.MkdirAll(p.PermissionsDir(), 0o755))
	require.NoError(t, os.WriteFile(p.PermissionFile(appID), []byte(doc), 0o644))

	store, err := r.Load(appID)
	require.NoError(t, err)

	main, ok := store.Lookup("https://example.com")
	require.True(t, ok)
	assert.Equal(t, types.PermissionBlock, main.Notifications)
	assert.Equal(t, types.PermissionAllow, main.Camera)

	maps, ok := store.Lookup("https://maps.example.com")
	require.True(t, ok)
	assert.Equal(t, types.PermissionAllow, maps.Location)
	assert.Equal(t, types.PermissionAsk, maps.Notifications)
}

func TestLoadMalformed(t *testing.T) {
	r, p := newTestRepo(t)
	appID := id.NewWebAppID()
	require.NoError(t, os.MkdirAll(p.PermissionsDir(), 0o755))

	require.NoError(t, os.WriteFile(p.PermissionFile(appID), []byte("not = [toml"), 0o644))
	_, err := r.Load(appID)
	assert.ErrorIs(t, err, types.ErrParse)

	require.NoError(t, os.WriteFile(p.PermissionFile(appID), []byte(`"https://a.test" = { camera = "sometimes" }`), 0o644))
	_, err = r.Load(appID)
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestDeleteIdempotent(t *testing.T) {
	r, _ := newTestRepo(t)
	appID := id.NewWebAppID()
	require.NoError(t, r.Save(appID, types.NewPermissionStore()))

	require.NoError(t, r.Delete(appID))
	require.NoError(t, r.Delete(appID))
	assert.False(t, r.Exists(appID))
}

func TestUpdate(t *testing.T) {
	r, _ := newTestRepo(t)
	appID := id.NewWebAppID()

	_, err := r.Update(appID, func(s *types.PermissionStore) {
		s.SetState("https://a.test", types.PermissionMicrophone, types.PermissionAllow)
	})
	require.NoError(t, err)

	store, err := r.Load(appID)
	require.NoError(t, err)
	p, ok := store.Lookup("https://a.test")
	require.True(t, ok)
	assert.Equal(t, types.PermissionAllow, p.Microphone)
}
