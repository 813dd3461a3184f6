package portal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/infrastructure/resilience"
	"github.com/sitewrap/sitewrap/internal/shared/fsutil"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("portal adapter closed")

// RedialCooldown is how long a failed bus connection is remembered before
// the next attempt to dial
const RedialCooldown = 30 * time.Second

// Adapter is a synchronous facade over the desktop portals.
//
// A single executor goroutine owns the bus connection; every public method
// submits its work there and blocks until it completes. Methods may block for
// as long as the portal keeps a dialog open, so UI code must not call them
// while holding locks.
type Adapter struct {
	dial   Dialer
	log    *zap.Logger
	redial *resilience.Breaker

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once

	// owned by the executor goroutine
	bus Bus
}

type job struct {
	ctx    context.Context
	fn     func(context.Context, Bus) error
	result chan error
}

// New starts an adapter that dials lazily on first use
func New(dial Dialer, log *zap.Logger) *Adapter {
	if dial == nil {
		dial = SessionDialer
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("portal")
	a := &Adapter{
		dial: dial,
		log:  log,
		redial: resilience.New("session-bus", resilience.Settings{
			Cooldown: RedialCooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Debug("Bus breaker state changed",
					zap.String("name", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		}),
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// NewSession starts an adapter on the session bus
func NewSession(log *zap.Logger) *Adapter {
	return New(SessionDialer, log)
}

func (a *Adapter) run() {
	for {
		select {
		case <-a.done:
			if a.bus != nil {
				_ = a.bus.Close()
				a.bus = nil
			}
			return
		case j := <-a.jobs:
			select {
			case <-a.done:
				j.result <- &types.Error{Kind: types.KindPortalUnavailable, Op: "portal", Err: ErrClosed}
			default:
				j.result <- a.execute(j)
			}
		}
	}
}

func (a *Adapter) execute(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("portal call panicked: %v", r)
		}
	}()

	if a.bus == nil {
		err := a.redial.Do(func() error {
			bus, err := a.dial()
			if err != nil {
				return err
			}
			a.bus = bus
			return nil
		})
		if err != nil {
			return &types.Error{Kind: types.KindPortalUnavailable, Op: "portal.connect", Err: err}
		}
	}
	return j.fn(j.ctx, a.bus)
}

// do runs fn on the executor and waits for it
func (a *Adapter) do(ctx context.Context, fn func(context.Context, Bus) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case <-a.done:
		return &types.Error{Kind: types.KindPortalUnavailable, Op: "portal", Err: ErrClosed}
	default:
	}

	select {
	case a.jobs <- j:
	case <-a.done:
		return &types.Error{Kind: types.KindPortalUnavailable, Op: "portal", Err: ErrClosed}
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.result
}

// Close stops the executor and closes the bus connection
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() { close(a.done) })
	return nil
}

// InstallLauncher registers a web application launcher.
// An unreadable icon file is logged and replaced by an empty icon.
func (a *Adapter) InstallLauncher(ctx context.Context, desc LauncherDescriptor) error {
	const op = "portal.install_launcher"
	a.log.Info("Install launcher via DynamicLauncher portal", zap.String("desktop_id", desc.DesktopID))

	icon := []byte{}
	if desc.IconFile != "" {
		data, err := os.ReadFile(desc.IconFile)
		if err != nil {
			a.log.Warn("Failed to read icon; using empty icon",
				zap.String("path", desc.IconFile),
				zap.Error(err))
		} else {
			icon = data
		}
	}
	entry := DesktopEntry(desc)

	return a.do(ctx, func(ctx context.Context, bus Bus) error {
		var handle dbus.ObjectPath
		token := newHandleToken()
		options := map[string]dbus.Variant{
			"handle_token":  dbus.MakeVariant(token),
			"launcher_type": dbus.MakeVariant(LauncherTypeWebApplication),
		}

		results, err := request(ctx, bus, token, DynamicLauncherInterface+".PrepareInstall",
			[]interface{}{"", desc.Name, bytesIcon(icon), options}, &handle)
		if err != nil {
			return classify(op, err)
		}

		installToken, ok := results["token"].Value().(string)
		if !ok || installToken == "" {
			return types.Errorf(types.KindPortal, op, "PrepareInstall returned no token")
		}

		err = bus.Call(ctx, DynamicLauncherInterface+".Install",
			[]interface{}{installToken, desc.DesktopID, entry, map[string]dbus.Variant{}})
		return classify(op, err)
	})
}

// UpdateLauncher replaces an installed launcher
func (a *Adapter) UpdateLauncher(ctx context.Context, desc LauncherDescriptor) error {
	return a.InstallLauncher(ctx, desc)
}

// RemoveLauncher uninstalls a launcher by desktop file id
func (a *Adapter) RemoveLauncher(ctx context.Context, desktopID string) error {
	a.log.Info("Remove launcher via DynamicLauncher portal", zap.String("desktop_id", desktopID))
	return a.do(ctx, func(ctx context.Context, bus Bus) error {
		err := bus.Call(ctx, DynamicLauncherInterface+".Uninstall",
			[]interface{}{desktopID, map[string]dbus.Variant{}})
		return classify("portal.remove_launcher", err)
	})
}

// SendNotification posts a notification
func (a *Adapter) SendNotification(ctx context.Context, req NotificationRequest) error {
	a.log.Info("Send notification via portal",
		zap.String("app_id", req.AppID),
		zap.String("title", req.Title))

	note := map[string]dbus.Variant{
		"title": dbus.MakeVariant(req.Title),
		"body":  dbus.MakeVariant(req.Body),
	}
	if req.Icon != "" {
		note["icon"] = themedIcon(req.Icon)
	}

	return a.do(ctx, func(ctx context.Context, bus Bus) error {
		err := bus.Call(ctx, NotificationInterface+".AddNotification",
			[]interface{}{req.AppID, note})
		return classify("portal.send_notification", err)
	})
}

// OpenURI opens uri with the host's default handler. Relative or
// scheme-less URIs are rejected before any IPC.
func (a *Adapter) OpenURI(ctx context.Context, uri string) error {
	const op = "portal.open_uri"

	u, err := url.Parse(uri)
	if err != nil || !u.IsAbs() {
		return &types.Error{Kind: types.KindInvalidInput, Op: op, Field: "uri", Err: fmt.Errorf("invalid URI %q", uri)}
	}
	a.log.Info("Open uri via portal", zap.String("uri", uri))

	return a.do(ctx, func(ctx context.Context, bus Bus) error {
		var handle dbus.ObjectPath
		token := newHandleToken()
		options := map[string]dbus.Variant{
			"handle_token": dbus.MakeVariant(token),
		}
		_, err := request(ctx, bus, token, OpenURIInterface+".OpenURI",
			[]interface{}{"", u.String(), options}, &handle)
		return classify(op, err)
	})
}

// SaveFile asks for a destination and writes the content there.
// A cancelled dialog is not an error.
func (a *Adapter) SaveFile(ctx context.Context, req SaveFileRequest) error {
	const op = "portal.save_file"
	a.log.Info("Save file via FileChooser portal", zap.String("file", req.SuggestedName))

	var chosen string
	err := a.do(ctx, func(ctx context.Context, bus Bus) error {
		var handle dbus.ObjectPath
		token := newHandleToken()
		options := map[string]dbus.Variant{
			"handle_token": dbus.MakeVariant(token),
			"accept_label": dbus.MakeVariant("Save"),
			"modal":        dbus.MakeVariant(true),
			"current_name": dbus.MakeVariant(req.SuggestedName),
		}
		if req.DefaultDirectory != "" {
			// byte string with trailing NUL
			options["current_folder"] = dbus.MakeVariant(append([]byte(req.DefaultDirectory), 0))
		}

		results, err := request(ctx, bus, token, FileChooserInterface+".SaveFile",
			[]interface{}{"", req.Title, options}, &handle)
		if errors.Is(err, ErrCancelled) {
			return nil
		}
		if err != nil {
			return classify(op, err)
		}

		uris, _ := results["uris"].Value().([]string)
		if len(uris) > 0 {
			chosen = uris[0]
		}
		return nil
	})
	if err != nil || chosen == "" {
		return err
	}

	u, err := url.Parse(chosen)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return types.Errorf(types.KindPortal, op, "unsupported destination %q", chosen)
	}
	if err := fsutil.AtomicWriteFile(u.Path, req.Content, fsutil.FileMode); err != nil {
		return types.Wrap(types.KindIO, op, err)
	}
	return nil
}

// IsSupported reports whether launchers, notifications and OpenURI are all available
func (a *Adapter) IsSupported(ctx context.Context) bool {
	return a.probe(ctx, DynamicLauncherInterface) &&
		a.probe(ctx, NotificationInterface) &&
		a.probe(ctx, OpenURIInterface)
}

// IsOpenURISupported reports whether the OpenURI portal is available
func (a *Adapter) IsOpenURISupported(ctx context.Context) bool {
	return a.probe(ctx, OpenURIInterface)
}

// IsFileChooserSupported reports whether the FileChooser portal is available
func (a *Adapter) IsFileChooserSupported(ctx context.Context) bool {
	return a.probe(ctx, FileChooserInterface)
}

// probe never fails: any error means unsupported
func (a *Adapter) probe(ctx context.Context, iface string) bool {
	err := a.do(ctx, func(ctx context.Context, bus Bus) error {
		_, err := bus.Version(ctx, iface)
		return err
	})
	if err != nil {
		a.log.Debug("Portal probe failed", zap.String("interface", iface), zap.Error(err))
		return false
	}
	return true
}

// request performs a method returning a Request handle and waits for its
// Response. The signal is subscribed before the call so it cannot be missed.
func request(ctx context.Context, bus Bus, token, method string, args []interface{}, handle *dbus.ObjectPath) (map[string]dbus.Variant, error) {
	path := RequestPath(bus.UniqueName(), token)
	responses, cancel, err := bus.Subscribe(path)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if err := bus.Call(ctx, method, args, handle); err != nil {
		return nil, err
	}

	// Older portals may pick a different path
	if *handle != "" && *handle != path {
		cancel()
		responses, cancel, err = bus.Subscribe(*handle)
		if err != nil {
			return nil, err
		}
		defer cancel()
	}

	select {
	case resp := <-responses:
		switch resp.Code {
		case ResponseSuccess:
			return resp.Results, nil
		case ResponseCancelled:
			return nil, ErrCancelled
		default:
			return nil, fmt.Errorf("%s: response code %d", method, resp.Code)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classify maps bus errors to portal error kinds
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.UnknownMethod",
			"org.freedesktop.DBus.Error.UnknownInterface",
			"org.freedesktop.DBus.Error.UnknownObject",
			"org.freedesktop.DBus.Error.NameHasNoOwner":
			return &types.Error{Kind: types.KindPortalUnavailable, Op: op, Err: err}
		}
	}
	return &types.Error{Kind: types.KindPortal, Op: op, Err: err}
}

type serializedIcon struct {
	Kind  string
	Value dbus.Variant
}

func bytesIcon(data []byte) dbus.Variant {
	return dbus.MakeVariant(serializedIcon{Kind: "bytes", Value: dbus.MakeVariant(data)})
}

func themedIcon(names ...string) dbus.Variant {
	return dbus.MakeVariant(serializedIcon{Kind: "themed", Value: dbus.MakeVariant(names)})
}

// newHandleToken returns a token usable as an object path element
func newHandleToken() string {
	u := uuid.New()
	return "sitewrap_" + hex.EncodeToString(u[:8])
}
