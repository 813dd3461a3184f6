package engine

import (
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// ExternalExampleURL is the target of the surrogate view's external navigation
const ExternalExampleURL = "https://example.org"

// NavigationHandler receives every navigation target a view reports
type NavigationHandler func(target string)

// PermissionHandler receives capability prompts raised by page content
type PermissionHandler func(kind types.PermissionKind)

// Handlers are the callbacks a backend wires into a view
type Handlers struct {
	OnNavigation NavigationHandler
	OnPermission PermissionHandler
}

// Backend renders web content for an Engine
type Backend interface {
	// Name identifies the backend in logs
	Name() string
	// Init validates the backend against the configuration
	Init(cfg Config) error
	// BuildView creates a view for startURL
	BuildView(startURL string, h Handlers) (*View, error)
	// TickHook returns the message-pump callback, or nil
	TickHook() func()
}

// View is a handle to one embedded web view
type View struct {
	startURL    string
	placeholder string
	handlers    Handlers
}

// NewView creates a view handle. Backends call this.
func NewView(startURL, placeholder string, h Handlers) *View {
	return &View{startURL: startURL, placeholder: placeholder, handlers: h}
}

// StartURL returns the URL the view was created with
func (v *View) StartURL() string { return v.startURL }

// Placeholder returns the text shown in place of rendered content
func (v *View) Placeholder() string { return v.placeholder }

// Navigate reports a navigation to target
func (v *View) Navigate(target string) {
	if v.handlers.OnNavigation != nil {
		v.handlers.OnNavigation(target)
	}
}

// NavigateSameOrigin reports a navigation back to the start URL
func (v *View) NavigateSameOrigin() {
	v.Navigate(v.startURL)
}

// NavigateExternalExample reports a navigation to a foreign origin
func (v *View) NavigateExternalExample() {
	v.Navigate(ExternalExampleURL)
}

// RequestPermission reports a capability prompt from page content
func (v *View) RequestPermission(kind types.PermissionKind) {
	if v.handlers.OnPermission != nil {
		v.handlers.OnPermission(kind)
	}
}

type stubBackend struct{}

func (stubBackend) Name() string { return "stub" }
func (stubBackend) Init(Config) error { return nil }
func (stubBackend) TickHook() func() { return nil }

func (stubBackend) BuildView(startURL string, h Handlers) (*View, error) {
	return NewView(startURL, "Engine view placeholder\nNavigation hooks are stubbed", h), nil
}

// placeholderBackend is selected when engine binaries are present but no
// bindings are compiled in
type placeholderBackend struct{}

func (placeholderBackend) Name() string { return "placeholder" }
func (placeholderBackend) Init(Config) error { return nil }
func (placeholderBackend) TickHook() func() { return nil }

func (placeholderBackend) BuildView(startURL string, h Handlers) (*View, error) {
	return NewView(startURL, "Engine assets detected; rendering stub until the engine backend is wired", h), nil
}
