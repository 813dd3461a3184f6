// Package paths maps web app identity to filesystem locations.
//
// Production roots follow the XDG base directory conventions; tests (and the
// SITEWRAP_CONFIG_ROOT override) place all three roots under one directory.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitewrap/sitewrap/internal/shared/fsutil"
	"github.com/sitewrap/sitewrap/internal/shared/id"
)

// AppDirName is the per-application directory under each XDG root
const AppDirName = "sitewrap"

// Subdirectories
const (
	AppsDirName        = "apps"
	PermissionsDirName = "permissions"
	ProfilesDirName    = "profiles"
	IconsDirName       = "icons"
	RecordExt          = ".toml"
)

// Paths holds the three storage roots
type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// New resolves the XDG config, data and cache roots
func New() (*Paths, error) {
	home, homeErr := os.UserHomeDir()

	resolve := func(env, fallback string) (string, error) {
		if dir := os.Getenv(env); dir != "" && filepath.IsAbs(dir) {
			return filepath.Join(dir, AppDirName), nil
		}
		if homeErr != nil {
			return "", fmt.Errorf("resolve %s: %w", env, homeErr)
		}
		return filepath.Join(home, fallback, AppDirName), nil
	}

	configDir, err := resolve("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return nil, err
	}
	dataDir, err := resolve("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return nil, err
	}
	cacheDir, err := resolve("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return nil, err
	}

	return &Paths{ConfigDir: configDir, DataDir: dataDir, CacheDir: cacheDir}, nil
}

// ForRoot places config, data and cache under a single root
func ForRoot(root string) *Paths {
	return &Paths{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
		CacheDir:  filepath.Join(root, "cache"),
	}
}

// Resolve returns ForRoot(root) when root is set, otherwise the XDG layout
func Resolve(root string) (*Paths, error) {
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve config root: %w", err)
		}
		return ForRoot(abs), nil
	}
	return New()
}

// AppsDir contains registry records
func (p *Paths) AppsDir() string {
	return filepath.Join(p.ConfigDir, AppsDirName)
}

// PermissionsDir contains permission stores
func (p *Paths) PermissionsDir() string {
	return filepath.Join(p.ConfigDir, PermissionsDirName)
}

// ProfilesDir contains browser profiles
func (p *Paths) ProfilesDir() string {
	return filepath.Join(p.DataDir, ProfilesDirName)
}

// IconsDir contains the rendered icon ladder of every app
func (p *Paths) IconsDir() string {
	return filepath.Join(p.CacheDir, IconsDirName)
}

// AppFile returns the registry record path for an app
func (p *Paths) AppFile(appID id.WebAppID) string {
	return filepath.Join(p.AppsDir(), appID.String()+RecordExt)
}

// PermissionFile returns the permission store path for an app
func (p *Paths) PermissionFile(appID id.WebAppID) string {
	return filepath.Join(p.PermissionsDir(), appID.String()+RecordExt)
}

// ProfileDir returns the browser profile directory for an app
func (p *Paths) ProfileDir(appID id.WebAppID) string {
	return filepath.Join(p.ProfilesDir(), appID.String())
}

// IconFile returns the path of one ladder size for an icon id
func (p *Paths) IconFile(iconID string, size int) string {
	return filepath.Join(p.IconsDir(), IconFileName(iconID, size))
}

// IconFileName is the base name of one ladder size
func IconFileName(iconID string, size int) string {
	return fmt.Sprintf("%s-%dx%d.png", iconID, size, size)
}

// EnsureProfileDir creates the profile directory if needed
func (p *Paths) EnsureProfileDir(appID id.WebAppID) (string, error) {
	dir := p.ProfileDir(appID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create profile dir %s: %w", dir, err)
	}
	return dir, nil
}

// DeleteProfileDir removes an app's profile recursively. Absence is not an error.
func (p *Paths) DeleteProfileDir(appID id.WebAppID) error {
	dir := p.ProfileDir(appID)
	if err := fsutil.RemoveAllIfExists(dir); err != nil {
		return fmt.Errorf("remove profile dir %s: %w", dir, err)
	}
	return nil
}

// DeleteIconsFor removes every icon file whose name starts with iconID.
// A missing icons directory is not an error.
func (p *Paths) DeleteIconsFor(iconID string) error {
	if err := ValidateIconID(iconID); err != nil {
		return err
	}

	dir := p.IconsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("scan icons dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), iconID) {
			continue
		}
		if err := fsutil.RemoveIfExists(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("remove icon %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// StandardDirectories returns the directories created at startup
func (p *Paths) StandardDirectories() []string {
	return []string{
		p.AppsDir(),
		p.PermissionsDir(),
		p.ProfilesDir(),
		p.IconsDir(),
	}
}

// EnsureStandardDirectories creates every standard directory
func (p *Paths) EnsureStandardDirectories() error {
	for _, dir := range p.StandardDirectories() {
		if err := os.MkdirAll(dir, fsutil.DirMode); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ValidateIconID guards prefix deletion against empty or path-like ids
func ValidateIconID(iconID string) error {
	if iconID == "" {
		return fmt.Errorf("icon ID cannot be empty")
	}
	if strings.ContainsAny(iconID, `/\`) || iconID == "." || iconID == ".." {
		return fmt.Errorf("icon ID contains invalid path components")
	}
	return nil
}
