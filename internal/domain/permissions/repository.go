// Package permissions persists per-origin permission decisions for each web app.
//
// The store is a single TOML document whose root table maps an origin to an
// inline table of capability states:
//
//	"https://example.com" = { notifications = "ask", camera = "block", ... }
package permissions

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/fsutil"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// Repository reads and writes permission stores
type Repository struct {
	paths *paths.Paths
	log   *zap.Logger
	mu    sync.Mutex
}

// NewRepository creates a repository rooted at the permissions directory
func NewRepository(p *paths.Paths, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{paths: p, log: log.Named("permissions")}
}

type originRecord struct {
	Notifications string `toml:"notifications"`
	Camera        string `toml:"camera"`
	Microphone    string `toml:"microphone"`
	Location      string `toml:"location"`
}

// Load returns the store for an app. A missing file yields an empty store.
func (r *Repository) Load(appID id.WebAppID) (*types.PermissionStore, error) {
	const op = "permissions.load"

	data, err := os.ReadFile(r.paths.PermissionFile(appID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.NewPermissionStore(), nil
		}
		return nil, types.Wrap(types.KindIO, op, err)
	}

	store, err := decode(data)
	if err != nil {
		return nil, types.Wrap(types.KindParse, op, fmt.Errorf("permissions for %s: %w", appID, err))
	}
	return store, nil
}

// Save replaces the store for an app
func (r *Repository) Save(appID id.WebAppID, store *types.PermissionStore) error {
	const op = "permissions.save"

	data, err := encode(store)
	if err != nil {
		return types.Wrap(types.KindParse, op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := fsutil.AtomicWriteFile(r.paths.PermissionFile(appID), data, fsutil.FileMode); err != nil {
		return types.Wrap(types.KindIO, op, err)
	}
	r.log.Debug("Saved permissions",
		zap.String("app_id", appID.String()),
		zap.Int("origins", store.Len()))
	return nil
}

// Delete removes the store. Deleting a missing store succeeds.
func (r *Repository) Delete(appID id.WebAppID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := fsutil.RemoveIfExists(r.paths.PermissionFile(appID)); err != nil {
		return types.Wrap(types.KindIO, "permissions.delete", err)
	}
	return nil
}

// Exists checks if a store file is present
func (r *Repository) Exists(appID id.WebAppID) bool {
	_, err := os.Stat(r.paths.PermissionFile(appID))
	return err == nil
}

// Update loads the store, applies fn and saves the result
func (r *Repository) Update(appID id.WebAppID, fn func(*types.PermissionStore)) (*types.PermissionStore, error) {
	store, err := r.Load(appID)
	if err != nil {
		return nil, err
	}
	fn(store)
	if err := r.Save(appID, store); err != nil {
		return nil, err
	}
	return store, nil
}

func encode(store *types.PermissionStore) ([]byte, error) {
	doc := make(map[string]originRecord, store.Len())
	for _, origin := range store.Origins() {
		p, _ := store.Lookup(origin)
		doc[origin] = originRecord{
			Notifications: string(p.Notifications),
			Camera:        string(p.Camera),
			Microphone:    string(p.Microphone),
			Location:      string(p.Location),
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).SetTablesInline(true).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*types.PermissionStore, error) {
	var doc map[string]originRecord
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	store := types.NewPermissionStore()
	for origin, rec := range doc {
		p, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("origin %q: %w", origin, err)
		}
		store.Put(origin, p)
	}
	return store, nil
}

func parseRecord(rec originRecord) (types.PerOriginPermissions, error) {
	var p types.PerOriginPermissions
	fields := []struct {
		raw string
		dst *types.PermissionState
	}{
		{rec.Notifications, &p.Notifications},
		{rec.Camera, &p.Camera},
		{rec.Microphone, &p.Microphone},
		{rec.Location, &p.Location},
	}
	for _, f := range fields {
		state, err := types.ParsePermissionState(f.raw)
		if err != nil {
			return p, err
		}
		*f.dst = state
	}
	return p, nil
}
