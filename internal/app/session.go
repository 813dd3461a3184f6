package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/engine"
	"github.com/sitewrap/sitewrap/internal/providers/portal"
	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// ErrActionDisabled is returned by shell actions that need a missing portal
var ErrActionDisabled = errors.New("action disabled: desktop portal unavailable")

// Capabilities records which portal-backed actions a shell may offer
type Capabilities struct {
	Portal      bool
	OpenURI     bool
	FileChooser bool
}

// Session is the state of one shell window. Its methods run on the UI loop.
type Session struct {
	o   *Orchestrator
	ctx context.Context
	def *types.WebAppDefinition

	caps Capabilities

	onNavigation engine.NavigationHandler
	onPermission engine.PermissionHandler

	mu         sync.Mutex
	engine     *engine.Engine
	view       *engine.View
	currentURL string
}

// OpenSession loads an app, records the launch and builds its web view.
// An unknown id or an engine that refuses to start is returned as is.
func (o *Orchestrator) OpenSession(ctx context.Context, appID id.WebAppID) (*Session, error) {
	def, err := o.registry.Load(appID)
	if err != nil {
		return nil, err
	}

	def.MarkLaunched(o.now())
	if err := o.registry.Save(def); err != nil {
		return nil, err
	}

	profileDir, err := o.paths.EnsureProfileDir(appID)
	if err != nil {
		return nil, types.Wrap(types.KindIO, "app.open_session", err)
	}
	eng, err := o.newEngine(engine.Config{ProfileDir: profileDir, Root: o.engineRoot}, o.log)
	if err != nil {
		return nil, err
	}

	s := &Session{
		o:          o,
		ctx:        context.WithoutCancel(ctx),
		def:        def,
		engine:     eng,
		currentURL: def.StartURL,
	}

	// The view exists before the session is complete; callbacks arriving
	// in between are dropped.
	var self atomic.Pointer[Session]
	s.onNavigation = func(target string) {
		if cur := self.Load(); cur != nil {
			_ = cur.HandleNavigation(target)
		}
	}
	s.onPermission = func(kind types.PermissionKind) {
		if cur := self.Load(); cur != nil {
			_ = cur.RequestPermission(kind, nil)
		}
	}

	view, err := eng.BuildWebViewWithHandlers(def.StartURL, s.onNavigation, s.onPermission)
	if err != nil {
		return nil, err
	}
	s.view = view
	self.Store(s)

	s.caps = Capabilities{
		Portal:      o.portal.IsSupported(ctx),
		OpenURI:     o.portal.IsOpenURISupported(ctx),
		FileChooser: o.portal.IsFileChooserSupported(ctx),
	}
	if !s.caps.Portal {
		o.presenter.Toast("Desktop portals unavailable; some actions disabled")
	}

	o.log.Info("Shell opened",
		zap.String("id", appID.String()),
		zap.Stringer("engine", eng.Mode()))
	return s, nil
}

// Definition returns the app shown by the session
func (s *Session) Definition() *types.WebAppDefinition {
	return s.def.Clone()
}

// Capabilities returns the portal-backed actions available
func (s *Session) Capabilities() Capabilities {
	return s.caps
}

// CurrentURL returns the last in-window navigation target
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

// View returns the current web view
func (s *Session) View() *engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Engine returns the current engine
func (s *Session) Engine() *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// HandleNavigation applies the navigation policy to a target reported by
// the view
func (s *Session) HandleNavigation(target string) error {
	if IsExternal(s.def, target) {
		if err := s.o.portal.OpenURI(s.ctx, target); err != nil {
			s.o.log.Error("Open external link failed", zap.String("target", target), zap.Error(err))
			s.o.presenter.ErrorDialog("Open external link failed", err)
			return err
		}
		s.o.presenter.Toast("Opened externally")
		return nil
	}

	s.mu.Lock()
	s.currentURL = target
	s.mu.Unlock()
	s.o.presenter.Toast("Navigated")
	return nil
}

// Reload rebuilds the view at the current URL
func (s *Session) Reload() error {
	s.mu.Lock()
	eng, target := s.engine, s.currentURL
	s.mu.Unlock()

	view, err := eng.BuildWebViewWithHandlers(target, s.onNavigation, s.onPermission)
	if err != nil {
		s.o.presenter.ErrorDialog("Reload failed", err)
		return err
	}

	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	s.o.presenter.Toast("Reloaded")
	return nil
}

// CopyLink returns the current URL for the clipboard
func (s *Session) CopyLink() string {
	link := s.CurrentURL()
	s.o.presenter.Toast("Link copied")
	return link
}

// OpenInBrowser opens the current URL in the default browser
func (s *Session) OpenInBrowser() error {
	if !s.caps.OpenURI {
		return disabled("open_in_browser")
	}
	if err := s.o.portal.OpenURI(s.ctx, s.CurrentURL()); err != nil {
		s.o.presenter.ErrorDialog("Open in default browser failed", err)
		return err
	}
	return nil
}

// ClearData wipes the app's data and restarts the view on a fresh profile
// at the start URL
func (s *Session) ClearData() error {
	if err := s.clearData(); err != nil {
		s.o.log.Error("Clear data failed", zap.String("id", s.def.ID.String()), zap.Error(err))
		s.o.presenter.ErrorDialog("Clear data failed", err)
		return err
	}
	s.o.presenter.Toast("Data cleared")
	return nil
}

func (s *Session) clearData() error {
	if err := s.o.resetData(s.def.ID); err != nil {
		return err
	}
	profileDir, err := s.o.paths.EnsureProfileDir(s.def.ID)
	if err != nil {
		return types.Wrap(types.KindIO, "app.clear_data", err)
	}

	eng, err := s.o.newEngine(engine.Config{ProfileDir: profileDir, Root: s.o.engineRoot}, s.o.log)
	if err != nil {
		return err
	}
	view, err := eng.BuildWebViewWithHandlers(s.def.StartURL, s.onNavigation, s.onPermission)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.engine = eng
	s.view = view
	s.currentURL = s.def.StartURL
	s.mu.Unlock()
	return nil
}

// RequestPermission resolves a capability for the primary origin from the
// stored decision, prompting when it is still ask. done, if set, receives
// the resulting state.
func (s *Session) RequestPermission(kind types.PermissionKind, done func(types.PermissionState)) error {
	originStr := s.def.PrimaryOrigin

	// Re-read on every request so edits from the permission editor apply
	store, err := s.o.permissions.Load(s.def.ID)
	if err != nil {
		s.o.presenter.ErrorDialog("Permissions unavailable", err)
		return err
	}
	current, _ := store.GetOrDefault(originStr)

	switch state := current.Get(kind); state {
	case types.PermissionAllow, types.PermissionBlock:
		s.permissionDecided(kind, state, done)
		return nil
	}

	s.o.presenter.Confirm(permissionPrompt(kind, originStr), func(accepted bool) {
		state := types.PermissionBlock
		if accepted {
			state = types.PermissionAllow
		}
		if err := s.o.SetPermission(s.def.ID, originStr, kind, state); err != nil {
			return
		}
		s.permissionDecided(kind, state, done)
	})
	return nil
}

func (s *Session) permissionDecided(kind types.PermissionKind, state types.PermissionState, done func(types.PermissionState)) {
	switch state {
	case types.PermissionAllow:
		s.o.presenter.Toast(kind.Title() + " allowed")
	case types.PermissionBlock:
		s.o.presenter.Toast(kind.Title() + " blocked (change in Permissions)")
	}
	if done != nil {
		done(state)
	}
}

// TriggerNotification sends a sample notification, asking for permission
// first when needed
func (s *Session) TriggerNotification() error {
	if !s.caps.Portal {
		return disabled("test_notification")
	}
	return s.RequestPermission(types.PermissionNotifications, func(state types.PermissionState) {
		if state != types.PermissionAllow {
			return
		}
		req := portal.NotificationRequest{
			AppID: s.def.IconID,
			Title: s.def.Name + " says hi",
			Body:  "Sample notification for " + s.def.PrimaryOrigin,
			Icon:  s.def.IconID,
		}
		if err := s.o.portal.SendNotification(s.ctx, req); err != nil {
			s.o.presenter.ErrorDialog("Notification failed", err)
			return
		}
		s.o.presenter.Toast("Notification sent")
	})
}

// SaveExport writes a placeholder page export through the save dialog
func (s *Session) SaveExport() error {
	if !s.caps.FileChooser {
		return disabled("save_page")
	}

	req := portal.SaveFileRequest{
		Title:         "Save page - " + s.def.Name,
		SuggestedName: strings.ReplaceAll(s.def.Name, " ", "_") + "-page.txt",
		Content:       []byte(fmt.Sprintf("Placeholder export for %s\nURL: %s\n", s.def.Name, s.CurrentURL())),
	}
	if err := s.o.portal.SaveFile(s.ctx, req); err != nil {
		s.o.presenter.ErrorDialog("Save failed", err)
		return err
	}
	s.o.presenter.Toast("Saved placeholder export")
	return nil
}

// OpenPermissions opens the permission editor for this app
func (s *Session) OpenPermissions() ([]OriginPermissions, error) {
	return s.o.OpenPermissions(s.def.ID)
}

func permissionPrompt(kind types.PermissionKind, originStr string) Prompt {
	body := "This site wants to use your " + strings.ToLower(kind.Title()) + "."
	switch kind {
	case types.PermissionNotifications:
		body = "This site wants to show notifications."
	case types.PermissionLocation:
		body = "This site wants to know your location."
	}
	return Prompt{
		Heading: fmt.Sprintf("Allow %s for %s?", strings.ToLower(kind.Title()), originStr),
		Body:    body,
		Accept:  "Allow",
		Reject:  "Block",
	}
}

func disabled(action string) error {
	return types.Wrap(types.KindPortalUnavailable, "app."+action, ErrActionDisabled)
}
