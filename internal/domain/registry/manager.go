package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/fsutil"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/origin"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// Manager handles web app registry persistence
type Manager struct {
	paths *paths.Paths
	log   *zap.Logger
	mu    sync.Mutex
}

// NewManager creates a new registry manager
func NewManager(p *paths.Paths, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		paths: p,
		log:   log.Named("registry"),
	}
}

// record is the on-disk shape of a definition
type record struct {
	ID             string         `toml:"id"`
	Name           string         `toml:"name"`
	StartURL       string         `toml:"start_url"`
	PrimaryOrigin  string         `toml:"primary_origin"`
	IconID         string         `toml:"icon_id"`
	CreatedAt      string         `toml:"created_at"`
	LastLaunchedAt string         `toml:"last_launched_at,omitempty"`
	Behavior       behaviorRecord `toml:"behavior"`
}

type behaviorRecord struct {
	OpenExternalLinks bool `toml:"open_external_links"`
	ShowNavigation    bool `toml:"show_navigation"`
}

// Save writes a definition, replacing any previous record atomically
func (m *Manager) Save(def *types.WebAppDefinition) error {
	const op = "registry.save"

	if def == nil || def.ID == id.Nil {
		return types.Errorf(types.KindInvalidInput, op, "web app ID is required")
	}

	data, err := marshal(def)
	if err != nil {
		return types.Wrap(types.KindParse, op, fmt.Errorf("failed to encode %s: %w", def.ID, err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fsutil.AtomicWriteFile(m.paths.AppFile(def.ID), data, fsutil.FileMode); err != nil {
		return types.Wrap(types.KindIO, op, err)
	}
	return nil
}

// Load reads one definition
func (m *Manager) Load(appID id.WebAppID) (*types.WebAppDefinition, error) {
	const op = "registry.load"

	data, err := os.ReadFile(m.paths.AppFile(appID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.Wrap(types.KindNotFound, op, fmt.Errorf("web app %s: %w", appID, err))
		}
		return nil, types.Wrap(types.KindIO, op, err)
	}

	def, err := unmarshal(data)
	if err != nil {
		return nil, types.Wrap(types.KindParse, op, fmt.Errorf("web app %s: %w", appID, err))
	}
	if def.ID != appID {
		return nil, types.Errorf(types.KindParse, op, "record %s carries id %s", appID, def.ID)
	}
	return def, nil
}

// List returns every readable definition sorted by name, then id.
// Files with another extension are ignored and malformed records are skipped.
func (m *Manager) List() ([]*types.WebAppDefinition, error) {
	dir := m.paths.AppsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*types.WebAppDefinition{}, nil
		}
		return nil, types.Wrap(types.KindIO, "registry.list", err)
	}

	defs := make([]*types.WebAppDefinition, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != paths.RecordExt || fsutil.IsTempName(name) {
			continue
		}

		appID, err := id.Parse(strings.TrimSuffix(name, paths.RecordExt))
		if err != nil {
			m.log.Warn("Skipping registry file with invalid name", zap.String("file", name))
			continue
		}

		def, err := m.Load(appID)
		if err != nil {
			// Ignore errors for individual files
			m.log.Warn("Skipping unreadable registry record",
				zap.String("file", name),
				zap.Error(err))
			continue
		}
		defs = append(defs, def)
	}

	sortDefinitions(defs)
	return defs, nil
}

// Search lists definitions matching a free-text query
func (m *Manager) Search(query string) ([]*types.WebAppDefinition, error) {
	defs, err := m.List()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return defs, nil
	}

	matched := defs[:0]
	for _, def := range defs {
		if def.Matches(query) {
			matched = append(matched, def)
		}
	}
	return matched, nil
}

// Delete removes a definition. Deleting a missing record succeeds.
func (m *Manager) Delete(appID id.WebAppID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fsutil.RemoveIfExists(m.paths.AppFile(appID)); err != nil {
		return types.Wrap(types.KindIO, "registry.delete", err)
	}
	return nil
}

// Exists checks if a record file is present
func (m *Manager) Exists(appID id.WebAppID) bool {
	_, err := os.Stat(m.paths.AppFile(appID))
	return err == nil
}

// Stats summarizes the registry
type Stats struct {
	Total        int
	Launched     int
	LastLaunched *time.Time
}

// Stats returns registry statistics
func (m *Manager) Stats() (Stats, error) {
	defs, err := m.List()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, def := range defs {
		stats.Total++
		if def.LastLaunchedAt == nil {
			continue
		}
		stats.Launched++
		if stats.LastLaunched == nil || def.LastLaunchedAt.After(*stats.LastLaunched) {
			t := *def.LastLaunchedAt
			stats.LastLaunched = &t
		}
	}
	return stats, nil
}

func sortDefinitions(defs []*types.WebAppDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		a, b := strings.ToLower(defs[i].Name), strings.ToLower(defs[j].Name)
		if a != b {
			return a < b
		}
		return defs[i].ID.String() < defs[j].ID.String()
	})
}

func marshal(def *types.WebAppDefinition) ([]byte, error) {
	rec := record{
		ID:            def.ID.String(),
		Name:          def.Name,
		StartURL:      def.StartURL,
		PrimaryOrigin: def.PrimaryOrigin,
		IconID:        def.IconID,
		CreatedAt:     def.CreatedAt.UTC().Format(time.RFC3339Nano),
		Behavior: behaviorRecord{
			OpenExternalLinks: def.Behavior.OpenExternalLinks,
			ShowNavigation:    def.Behavior.ShowNavigation,
		},
	}
	if def.LastLaunchedAt != nil {
		rec.LastLaunchedAt = def.LastLaunchedAt.UTC().Format(time.RFC3339Nano)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte) (*types.WebAppDefinition, error) {
	var rec record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	appID, err := id.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return nil, fmt.Errorf("name is empty")
	}
	if _, err := url.Parse(rec.StartURL); err != nil || rec.StartURL == "" {
		return nil, fmt.Errorf("invalid start_url %q", rec.StartURL)
	}
	// Both fields are derived and must agree with what they derive from
	if o, err := origin.OfString(rec.StartURL); err != nil || o != rec.PrimaryOrigin {
		return nil, fmt.Errorf("primary_origin %q does not match start_url %q", rec.PrimaryOrigin, rec.StartURL)
	}
	if rec.IconID != id.IconID(appID) {
		return nil, fmt.Errorf("icon_id %q does not match id", rec.IconID)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	def := &types.WebAppDefinition{
		ID:            appID,
		Name:          rec.Name,
		StartURL:      rec.StartURL,
		PrimaryOrigin: rec.PrimaryOrigin,
		IconID:        rec.IconID,
		CreatedAt:     createdAt.UTC(),
		Behavior: types.Behavior{
			OpenExternalLinks: rec.Behavior.OpenExternalLinks,
			ShowNavigation:    rec.Behavior.ShowNavigation,
		},
	}

	if rec.LastLaunchedAt != "" {
		launched, err := time.Parse(time.RFC3339Nano, rec.LastLaunchedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid last_launched_at: %w", err)
		}
		def.MarkLaunched(launched)
	}
	return def, nil
}
