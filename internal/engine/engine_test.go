package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

func TestDetectMode(t *testing.T) {
	empty := t.TempDir()
	ready := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ready, LibraryName), nil, 0o644))

	assert.Equal(t, ModeStub, DetectMode(Config{}))
	assert.Equal(t, ModeEngineMissing, DetectMode(Config{Root: empty}))
	assert.Equal(t, ModeEngineReady, DetectMode(Config{Root: ready}))

	assert.Equal(t, "stub", ModeStub.String())
	assert.Equal(t, "cef-missing", ModeEngineMissing.String())
	assert.Equal(t, "cef-ready", ModeEngineReady.String())
}

func TestStubViewNavigation(t *testing.T) {
	e, err := New(Config{ProfileDir: t.TempDir()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, ModeStub, e.Mode())

	var got []string
	view, err := e.BuildWebViewWithHandlers("https://example.com/",
		func(target string) { got = append(got, target) }, nil)
	require.NoError(t, err)

	view.NavigateSameOrigin()
	view.NavigateExternalExample()
	view.Navigate("https://example.com/inbox")

	assert.Equal(t, []string{"https://example.com/", "https://example.org", "https://example.com/inbox"}, got)
	assert.Contains(t, view.Placeholder(), "placeholder")
}

func TestReadyRootUsesPlaceholder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, LibraryName), nil, 0o644))

	e, err := New(Config{ProfileDir: t.TempDir(), Root: root}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, ModeEngineReady, e.Mode())

	view, err := e.BuildWebView("https://example.com/")
	require.NoError(t, err)
	assert.Contains(t, view.Placeholder(), "detected")
	view.NavigateExternalExample()
}

func TestPermissionRequests(t *testing.T) {
	e, err := New(Config{ProfileDir: t.TempDir()}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var kinds []types.PermissionKind
	view, err := e.BuildWebViewWithHandlers("https://example.com/", nil,
		func(kind types.PermissionKind) { kinds = append(kinds, kind) })
	require.NoError(t, err)

	view.RequestPermission(types.PermissionCamera)
	assert.Equal(t, []types.PermissionKind{types.PermissionCamera}, kinds)
}

func TestMissingProfileDirFails(t *testing.T) {
	_, err := New(Config{}, zaptest.NewLogger(t))
	assert.True(t, types.IsKind(err, types.KindEngineInit))

	_, err = New(Config{ProfileDir: filepath.Join(t.TempDir(), "absent")}, zaptest.NewLogger(t))
	assert.True(t, types.IsKind(err, types.KindEngineInit))
}

type failingBackend struct{ stubBackend }

func (failingBackend) Init(Config) error { return errors.New("refused") }

func TestBackendInitFailure(t *testing.T) {
	_, err := NewWithBackend(Config{ProfileDir: t.TempDir()}, ModeEngineReady, failingBackend{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindEngineInit))
	assert.Contains(t, err.Error(), "refused")
}

type tickingBackend struct {
	stubBackend
	hook func()
}

func (b tickingBackend) TickHook() func() { return b.hook }

func TestTickHookReplacedOnNew(t *testing.T) {
	t.Cleanup(func() { SetTickHook(nil) })

	calls := 0
	_, err := NewWithBackend(Config{ProfileDir: t.TempDir()}, ModeEngineReady,
		tickingBackend{hook: func() { calls++ }}, zaptest.NewLogger(t))
	require.NoError(t, err)

	Tick()
	Tick()
	assert.Equal(t, 2, calls)

	_, err = New(Config{ProfileDir: t.TempDir()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	Tick()
	assert.Equal(t, 2, calls)
}

func TestTickIsNotReentrant(t *testing.T) {
	t.Cleanup(func() { SetTickHook(nil) })

	depth := 0
	SetTickHook(func() {
		depth++
		Tick()
	})

	Tick()
	assert.Equal(t, 1, depth)
}

func TestLifecycleIdempotent(t *testing.T) {
	log := zaptest.NewLogger(t)

	require.NoError(t, Init(log))
	require.NoError(t, Init(log))

	SetTickHook(func() { t.Fatal("hook survived shutdown") })
	Shutdown(log)
	Shutdown(log)
	Tick()
}
