package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/domain/permissions"
	"github.com/sitewrap/sitewrap/internal/domain/registry"
	"github.com/sitewrap/sitewrap/internal/engine"
	"github.com/sitewrap/sitewrap/internal/mainloop"
	"github.com/sitewrap/sitewrap/internal/providers/icons"
	"github.com/sitewrap/sitewrap/internal/providers/portal"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/origin"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// DefaultExecutable is the command written into launchers
const DefaultExecutable = "sitewrap"

// ErrBusy is returned when a create request is already being handled
var ErrBusy = errors.New("a create request is already in progress")

// CreateInput is the content of the create form
type CreateInput struct {
	URL               string
	Name              string
	OpenExternalLinks bool
	ShowNavigation    bool
}

// NewCreateInput returns a form prefilled with the default behavior
func NewCreateInput(rawURL, name string) CreateInput {
	b := types.DefaultBehavior()
	return CreateInput{
		URL:               rawURL,
		Name:              name,
		OpenExternalLinks: b.OpenExternalLinks,
		ShowNavigation:    b.ShowNavigation,
	}
}

// EditInput is the content of the edit form
type EditInput = CreateInput

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Paths       *paths.Paths
	Registry    *registry.Manager
	Permissions *permissions.Repository
	Icons       IconFetcher
	Portal      Portal
	Loop        *mainloop.Loop
	Presenter   Presenter

	// Engine defaults to engine.New
	Engine     EngineFactory
	EngineRoot string

	// Executable defaults to DefaultExecutable
	Executable string
	// Spawn defaults to SpawnProcess
	Spawn Spawner

	Log *zap.Logger
}

// Orchestrator implements the user intents on top of the stores, the icon
// pipeline, the portal and the engine.
type Orchestrator struct {
	paths       *paths.Paths
	registry    *registry.Manager
	permissions *permissions.Repository
	icons       IconFetcher
	portal      Portal
	loop        *mainloop.Loop
	presenter   Presenter
	newEngine   EngineFactory
	engineRoot  string
	executable  string
	spawn       Spawner
	log         *zap.Logger
	now         func() time.Time

	creating atomic.Bool
	jobs     sync.WaitGroup
}

// New creates an orchestrator
func New(d Deps) *Orchestrator {
	if d.Engine == nil {
		d.Engine = engine.New
	}
	if d.Executable == "" {
		d.Executable = DefaultExecutable
	}
	if d.Spawn == nil {
		d.Spawn = SpawnProcess
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	return &Orchestrator{
		paths:       d.Paths,
		registry:    d.Registry,
		permissions: d.Permissions,
		icons:       d.Icons,
		portal:      d.Portal,
		loop:        d.Loop,
		presenter:   d.Presenter,
		newEngine:   d.Engine,
		engineRoot:  d.EngineRoot,
		executable:  d.Executable,
		spawn:       d.Spawn,
		log:         d.Log.Named("app"),
		now:         time.Now,
	}
}

// CheckHostIntegration reports whether the portals are usable, telling the
// user once when they are not
func (o *Orchestrator) CheckHostIntegration(ctx context.Context) bool {
	if o.portal.IsSupported(ctx) {
		return true
	}
	o.log.Warn("xdg-desktop-portal not available; host integration is disabled")
	o.presenter.ErrorDialog("Desktop integration unavailable",
		errors.New("xdg-desktop-portal is not available; launchers and notifications will be disabled"))
	return false
}

// List returns the registered apps matching query, sorted by name
func (o *Orchestrator) List(query string) ([]*types.WebAppDefinition, error) {
	return o.registry.Search(query)
}

// Stats summarizes the registry
func (o *Orchestrator) Stats() (registry.Stats, error) {
	return o.registry.Stats()
}

// Create registers a new web app. The record is saved before returning;
// icon rendering and launcher install continue in the background.
func (o *Orchestrator) Create(ctx context.Context, in CreateInput) (*types.WebAppDefinition, error) {
	if !o.creating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.creating.Store(false)

	startURL, err := origin.Normalize(in.URL)
	if err != nil {
		o.presenter.FieldError(types.FieldOf(err), types.Message(err))
		return nil, err
	}

	def := types.NewWebAppDefinition(in.Name, startURL, origin.Of(startURL))
	def.Behavior = types.Behavior{
		OpenExternalLinks: in.OpenExternalLinks,
		ShowNavigation:    in.ShowNavigation,
	}

	if err := o.registry.Save(def); err != nil {
		o.presenter.ErrorDialog("Create failed", err)
		return nil, err
	}

	o.log.Info("Web app created",
		zap.String("id", def.ID.String()),
		zap.String("name", def.Name),
		zap.String("start_url", def.StartURL))
	o.presenter.Refresh()

	o.schedule(ctx, def.Clone(), true, false)
	return def, nil
}

// Edit rewrites an existing app. A changed start URL refetches the icon;
// the launcher is always reinstalled.
func (o *Orchestrator) Edit(ctx context.Context, appID id.WebAppID, in EditInput) (*types.WebAppDefinition, error) {
	startURL, err := origin.Normalize(in.URL)
	if err != nil {
		o.presenter.FieldError(types.FieldOf(err), types.Message(err))
		return nil, err
	}

	def, err := o.registry.Load(appID)
	if err != nil {
		o.presenter.ErrorDialog("Edit failed", err)
		return nil, err
	}

	urlChanged := def.StartURL != startURL.String()
	def.Name = types.ResolveName(in.Name, startURL)
	def.StartURL = startURL.String()
	def.PrimaryOrigin = origin.Of(startURL)
	def.Behavior = types.Behavior{
		OpenExternalLinks: in.OpenExternalLinks,
		ShowNavigation:    in.ShowNavigation,
	}

	if err := o.registry.Save(def); err != nil {
		o.presenter.ErrorDialog("Edit failed", err)
		return nil, err
	}

	o.log.Info("Web app updated",
		zap.String("id", def.ID.String()),
		zap.Bool("url_changed", urlChanged))
	o.presenter.Refresh()

	o.schedule(ctx, def.Clone(), urlChanged, true)
	return def, nil
}

// Launch records the launch time and starts a shell process for the app
func (o *Orchestrator) Launch(ctx context.Context, appID id.WebAppID) (*types.WebAppDefinition, error) {
	def, err := o.registry.Load(appID)
	if err != nil {
		o.presenter.ErrorDialog("Launch failed", err)
		return nil, err
	}

	def.MarkLaunched(o.now())
	if err := o.registry.Save(def); err != nil {
		o.presenter.ErrorDialog("Launch failed", err)
		return nil, err
	}
	o.presenter.Refresh()

	if err := o.spawn(ctx, o.executable, "--shell", appID.String()); err != nil {
		err = types.Wrap(types.KindIO, "app.launch", err)
		o.presenter.ErrorDialog("Launch failed", err)
		return def, err
	}

	o.log.Info("Launched shell", zap.String("id", appID.String()))
	return def, nil
}

// Reset deletes an app's permissions, profile and icons. The registry
// record is untouched.
func (o *Orchestrator) Reset(_ context.Context, appID id.WebAppID) error {
	if err := o.resetData(appID); err != nil {
		o.presenter.ErrorDialog("Reset failed", err)
		return err
	}

	o.log.Info("Web app data reset", zap.String("id", appID.String()))
	o.presenter.Refresh()
	return nil
}

// Remove resets an app, deletes its record and uninstalls its launcher.
// A launcher that cannot be removed is logged, not reported. Background jobs
// still running for the app undo their output once they see the record gone.
func (o *Orchestrator) Remove(ctx context.Context, appID id.WebAppID) error {
	if err := o.resetData(appID); err != nil {
		o.presenter.ErrorDialog("Remove failed", err)
		return err
	}
	if err := o.registry.Delete(appID); err != nil {
		o.presenter.ErrorDialog("Remove failed", err)
		return err
	}

	desktopID := id.DesktopID(id.IconID(appID))
	if err := o.portal.RemoveLauncher(ctx, desktopID); err != nil {
		o.log.Warn("Remove launcher failed",
			zap.String("desktop_id", desktopID),
			zap.Error(err))
	}

	o.log.Info("Web app removed", zap.String("id", appID.String()))
	o.presenter.Refresh()
	return nil
}

func (o *Orchestrator) resetData(appID id.WebAppID) error {
	const op = "app.reset"

	if err := o.permissions.Delete(appID); err != nil {
		return err
	}
	if err := o.paths.DeleteProfileDir(appID); err != nil {
		return types.Wrap(types.KindIO, op, err)
	}
	if err := o.paths.DeleteIconsFor(id.IconID(appID)); err != nil {
		return types.Wrap(types.KindIO, op, err)
	}
	return nil
}

// LauncherDescriptor describes the launcher for def. The icon file is the
// 128px ladder entry when it has been rendered.
func (o *Orchestrator) LauncherDescriptor(def *types.WebAppDefinition) portal.LauncherDescriptor {
	iconFile := o.paths.IconFile(def.IconID, icons.LauncherSize)
	if _, err := os.Stat(iconFile); err != nil {
		iconFile = ""
	}
	return portal.LauncherDescriptor{
		DesktopID: def.DesktopID(),
		Name:      def.Name,
		Exec:      fmt.Sprintf("%s --shell %s", o.executable, def.ID),
		IconName:  def.IconID,
		IconFile:  iconFile,
	}
}

// Wait blocks until every background job has finished
func (o *Orchestrator) Wait() {
	o.jobs.Wait()
}

// schedule runs icon rendering and launcher install off the UI loop and
// posts a refresh when done
func (o *Orchestrator) schedule(ctx context.Context, def *types.WebAppDefinition, fetchIcon, update bool) {
	ctx = context.WithoutCancel(ctx)

	o.jobs.Add(1)
	go func() {
		defer o.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("Background job panicked",
					zap.String("id", def.ID.String()),
					zap.Any("panic", r))
			}
		}()

		var notices []string
		if fetchIcon {
			if err := o.fetchIcon(ctx, def); err != nil {
				o.log.Warn("Icon render failed",
					zap.String("id", def.ID.String()),
					zap.Error(err))
				notices = append(notices, "Icon could not be saved")
			}
		}

		installed, err := o.installLauncher(ctx, def, update)
		if !installed {
			return
		}
		if err != nil && !types.IsKind(err, types.KindPortalUnavailable) {
			notices = append(notices, "Launcher could not be installed")
		}

		o.post(func() {
			for _, n := range notices {
				o.presenter.Toast(n)
			}
			o.presenter.Refresh()
		})
	}()
}

// installLauncher installs or updates the launcher. The registry is checked
// before and after the portal call; when the app was removed meanwhile the
// job's icons and launcher are deleted and installed is false.
func (o *Orchestrator) installLauncher(ctx context.Context, def *types.WebAppDefinition, update bool) (installed bool, err error) {
	if !o.registry.Exists(def.ID) {
		o.discard(ctx, def, false)
		return false, nil
	}

	desc := o.LauncherDescriptor(def)
	install := o.portal.InstallLauncher
	if update {
		install = o.portal.UpdateLauncher
	}
	err = install(ctx, desc)

	if !o.registry.Exists(def.ID) {
		o.discard(ctx, def, err == nil)
		return false, nil
	}
	if err != nil {
		o.log.Warn("Launcher install failed",
			zap.String("desktop_id", desc.DesktopID),
			zap.Error(err))
		return true, err
	}
	return true, nil
}

// discard deletes what a background job produced for a removed app
func (o *Orchestrator) discard(ctx context.Context, def *types.WebAppDefinition, launcher bool) {
	o.log.Info("Web app removed during background job; discarding",
		zap.String("id", def.ID.String()))

	if err := o.paths.DeleteIconsFor(def.IconID); err != nil {
		o.log.Warn("Delete orphaned icons failed",
			zap.String("icon_id", def.IconID),
			zap.Error(err))
	}
	if !launcher {
		return
	}
	if err := o.portal.RemoveLauncher(ctx, def.DesktopID()); err != nil {
		o.log.Warn("Remove orphaned launcher failed",
			zap.String("desktop_id", def.DesktopID()),
			zap.Error(err))
	}
}

func (o *Orchestrator) fetchIcon(ctx context.Context, def *types.WebAppDefinition) error {
	startURL, err := url.Parse(def.StartURL)
	if err != nil {
		return types.Wrap(types.KindInvalidInput, "app.fetch_icon", err)
	}

	result, err := o.icons.FetchAndCache(ctx, startURL, def.IconID, o.paths.IconsDir())
	if err != nil {
		return err
	}
	o.log.Debug("Icon ladder written",
		zap.String("id", def.ID.String()),
		zap.String("source", result.Source))
	return nil
}

// post runs fn on the UI loop
func (o *Orchestrator) post(fn func()) {
	if o.loop == nil || !o.loop.Post(fn) {
		o.log.Debug("UI loop stopped; dropping completion")
	}
}
