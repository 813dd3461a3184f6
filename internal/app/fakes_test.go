package app

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sitewrap/sitewrap/internal/domain/permissions"
	"github.com/sitewrap/sitewrap/internal/domain/registry"
	"github.com/sitewrap/sitewrap/internal/mainloop"
	"github.com/sitewrap/sitewrap/internal/providers/icons"
	"github.com/sitewrap/sitewrap/internal/providers/portal"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
)

type fakePortal struct {
	mu sync.Mutex

	supported bool
	installs  []portal.LauncherDescriptor
	updates   []portal.LauncherDescriptor
	removals  []string
	notes     []portal.NotificationRequest
	opened    []string
	saves     []portal.SaveFileRequest

	installErr error
	removeErr  error
	openErr    error

	// onInstall runs after an install is recorded, outside the lock
	onInstall func()
}

func (f *fakePortal) InstallLauncher(_ context.Context, desc portal.LauncherDescriptor) error {
	f.mu.Lock()
	f.installs = append(f.installs, desc)
	hook, err := f.onInstall, f.installErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (f *fakePortal) UpdateLauncher(_ context.Context, desc portal.LauncherDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, desc)
	return f.installErr
}

func (f *fakePortal) RemoveLauncher(_ context.Context, desktopID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals = append(f.removals, desktopID)
	return f.removeErr
}

func (f *fakePortal) SendNotification(_ context.Context, req portal.NotificationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, req)
	return nil
}

func (f *fakePortal) OpenURI(_ context.Context, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, uri)
	return f.openErr
}

func (f *fakePortal) SaveFile(_ context.Context, req portal.SaveFileRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	return nil
}

func (f *fakePortal) IsSupported(context.Context) bool            { return f.supported }
func (f *fakePortal) IsOpenURISupported(context.Context) bool     { return f.supported }
func (f *fakePortal) IsFileChooserSupported(context.Context) bool { return f.supported }

// fakeIcons writes placeholder files for the whole ladder. When gate is
// set, writing waits until it is closed.
type fakeIcons struct {
	mu        sync.Mutex
	hosts     []string
	deadlines []bool
	gate      chan struct{}
	started   chan struct{}
}

func (f *fakeIcons) FetchAndCache(ctx context.Context, startURL *url.URL, iconID, cacheDir string) (*icons.Result, error) {
	_, hasDeadline := ctx.Deadline()

	f.mu.Lock()
	f.hosts = append(f.hosts, startURL.Hostname())
	f.deadlines = append(f.deadlines, hasDeadline)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, size := range icons.Sizes {
		path := filepath.Join(cacheDir, paths.IconFileName(iconID, size))
		if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return &icons.Result{IconID: iconID, Paths: written, Source: icons.SourceFallback, Fallback: true}, nil
}

func (f *fakeIcons) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hosts...)
}

type dialog struct {
	Heading string
	Err     error
}

type recordingPresenter struct {
	mu sync.Mutex

	refreshes   int
	fieldErrors map[string]string
	toasts      []string
	dialogs     []dialog
	prompts     []Prompt

	accept bool
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{fieldErrors: make(map[string]string)}
}

func (p *recordingPresenter) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
}

func (p *recordingPresenter) FieldError(field, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fieldErrors[field] = message
}

func (p *recordingPresenter) Toast(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toasts = append(p.toasts, message)
}

func (p *recordingPresenter) ErrorDialog(heading string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, dialog{Heading: heading, Err: err})
}

func (p *recordingPresenter) Confirm(prompt Prompt, answer func(bool)) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	accept := p.accept
	p.mu.Unlock()
	answer(accept)
}

func (p *recordingPresenter) lastToast() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.toasts) == 0 {
		return ""
	}
	return p.toasts[len(p.toasts)-1]
}

type spawnCall struct {
	Name string
	Args []string
}

type harness struct {
	o       *Orchestrator
	paths   *paths.Paths
	reg     *registry.Manager
	perms   *permissions.Repository
	portal  *fakePortal
	icons   *fakeIcons
	ui      *recordingPresenter
	loop    *mainloop.Loop
	spawned []spawnCall
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := zaptest.NewLogger(t)
	p := paths.ForRoot(t.TempDir())
	require.NoError(t, p.EnsureStandardDirectories())

	loop := mainloop.New(mainloop.Options{TickInterval: time.Hour}, log)
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Quit)

	h := &harness{
		paths:  p,
		reg:    registry.NewManager(p, log),
		perms:  permissions.NewRepository(p, log),
		portal: &fakePortal{supported: true},
		icons:  &fakeIcons{},
		ui:     newRecordingPresenter(),
		loop:   loop,
	}
	h.o = New(Deps{
		Paths:       p,
		Registry:    h.reg,
		Permissions: h.perms,
		Icons:       h.icons,
		Portal:      h.portal,
		Loop:        loop,
		Presenter:   h.ui,
		Spawn: func(_ context.Context, name string, args ...string) error {
			h.spawned = append(h.spawned, spawnCall{Name: name, Args: args})
			return nil
		},
		Log: log,
	})
	t.Cleanup(h.o.Wait)
	return h
}

// settle waits for background jobs and for the completions they posted
func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.o.Wait()
	require.NoError(t, h.loop.PostSync(context.Background(), func() error { return nil }))
}
