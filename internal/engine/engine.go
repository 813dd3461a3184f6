package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// LibraryName is the shared library whose presence marks a usable root
const LibraryName = "libcef.so"

// Mode is the backend selection made when an Engine is created
type Mode int

const (
	ModeStub Mode = iota
	ModeEngineMissing
	ModeEngineReady
)

func (m Mode) String() string {
	switch m {
	case ModeEngineMissing:
		return "cef-missing"
	case ModeEngineReady:
		return "cef-ready"
	default:
		return "stub"
	}
}

// Config configures an Engine
type Config struct {
	ProfileDir string
	// Root is the directory holding the engine binaries; empty selects the stub
	Root string
}

// DetectMode inspects the configured root
func DetectMode(cfg Config) Mode {
	if cfg.Root == "" {
		return ModeStub
	}
	info, err := os.Stat(filepath.Join(cfg.Root, LibraryName))
	if err != nil || info.IsDir() {
		return ModeEngineMissing
	}
	return ModeEngineReady
}

// Engine builds web views for one shell window
type Engine struct {
	cfg     Config
	mode    Mode
	backend Backend
	log     *zap.Logger
}

// New selects a backend for cfg and installs its tick hook
func New(cfg Config, log *zap.Logger) (*Engine, error) {
	mode := DetectMode(cfg)

	var backend Backend
	switch mode {
	case ModeEngineReady:
		backend = placeholderBackend{}
	default:
		backend = stubBackend{}
	}
	return NewWithBackend(cfg, mode, backend, log)
}

// NewWithBackend creates an engine around an explicit backend
func NewWithBackend(cfg Config, mode Mode, backend Backend, log *zap.Logger) (*Engine, error) {
	const op = "engine.new"

	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("engine")

	if cfg.ProfileDir == "" {
		return nil, types.Errorf(types.KindEngineInit, op, "profile directory not set")
	}
	info, err := os.Stat(cfg.ProfileDir)
	if err != nil {
		return nil, types.Wrap(types.KindEngineInit, op, err)
	}
	if !info.IsDir() {
		return nil, types.Errorf(types.KindEngineInit, op, "profile path %s is not a directory", cfg.ProfileDir)
	}

	if err := backend.Init(cfg); err != nil {
		return nil, types.Wrap(types.KindEngineInit, op, fmt.Errorf("%s backend: %w", backend.Name(), err))
	}

	log.Info("Initializing engine",
		zap.String("profile", cfg.ProfileDir),
		zap.Stringer("mode", mode),
		zap.String("backend", backend.Name()),
		zap.String("root", cfg.Root))

	SetTickHook(backend.TickHook())

	return &Engine{cfg: cfg, mode: mode, backend: backend, log: log}, nil
}

// Mode returns the detected mode
func (e *Engine) Mode() Mode {
	return e.mode
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// BuildWebView builds a view that ignores navigation and permission events
func (e *Engine) BuildWebView(startURL string) (*View, error) {
	return e.BuildWebViewWithHandlers(startURL, nil, nil)
}

// BuildWebViewWithHandlers builds a view reporting navigations to onNavigation
// and permission prompts to onPermission. Either handler may be nil.
func (e *Engine) BuildWebViewWithHandlers(startURL string, onNavigation NavigationHandler, onPermission PermissionHandler) (*View, error) {
	if onNavigation == nil {
		onNavigation = func(string) {}
	}
	if onPermission == nil {
		onPermission = func(types.PermissionKind) {}
	}

	view, err := e.backend.BuildView(startURL, Handlers{
		OnNavigation: onNavigation,
		OnPermission: onPermission,
	})
	if err != nil {
		return nil, types.Wrap(types.KindEngineInit, "engine.build_view", err)
	}
	e.log.Debug("Built web view", zap.String("url", startURL), zap.String("backend", e.backend.Name()))
	return view, nil
}
