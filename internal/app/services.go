package app

import (
	"context"
	"net/url"
	"os/exec"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/engine"
	"github.com/sitewrap/sitewrap/internal/providers/icons"
	"github.com/sitewrap/sitewrap/internal/providers/portal"
)

// Portal is the host integration surface the orchestrator needs
type Portal interface {
	InstallLauncher(ctx context.Context, desc portal.LauncherDescriptor) error
	UpdateLauncher(ctx context.Context, desc portal.LauncherDescriptor) error
	RemoveLauncher(ctx context.Context, desktopID string) error
	SendNotification(ctx context.Context, req portal.NotificationRequest) error
	OpenURI(ctx context.Context, uri string) error
	SaveFile(ctx context.Context, req portal.SaveFileRequest) error
	IsSupported(ctx context.Context) bool
	IsOpenURISupported(ctx context.Context) bool
	IsFileChooserSupported(ctx context.Context) bool
}

// IconFetcher renders an icon ladder for a start URL
type IconFetcher interface {
	FetchAndCache(ctx context.Context, startURL *url.URL, iconID, cacheDir string) (*icons.Result, error)
}

// EngineFactory creates the engine for a shell window
type EngineFactory func(cfg engine.Config, log *zap.Logger) (*engine.Engine, error)

// Spawner starts a detached process
type Spawner func(ctx context.Context, name string, args ...string) error

// SpawnProcess starts name without waiting for it
func SpawnProcess(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

var (
	_ Portal      = (*portal.Adapter)(nil)
	_ IconFetcher = (*icons.Fetcher)(nil)
)
