package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Response is the payload of a Request::Response signal
type Response struct {
	Code    uint32
	Results map[string]dbus.Variant
}

// Bus is the part of a session bus connection the adapter uses
type Bus interface {
	// Call invokes iface.method on the portal object and stores the reply in out
	Call(ctx context.Context, method string, args []interface{}, out ...interface{}) error
	// Version reads the version property of a portal interface
	Version(ctx context.Context, iface string) (uint32, error)
	// Subscribe delivers the Response signal of one request object.
	// Cancel must be called once the response is no longer wanted.
	Subscribe(path dbus.ObjectPath) (responses <-chan Response, cancel func(), err error)
	// UniqueName is the connection's unique bus name, e.g. ":1.42"
	UniqueName() string
	Close() error
}

// Dialer opens a Bus
type Dialer func() (Bus, error)

// SessionDialer connects to the user's session bus
func SessionDialer() (Bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return newSessionBus(conn), nil
}

type sessionBus struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal

	mu     sync.Mutex
	routes map[dbus.ObjectPath]chan Response
}

func newSessionBus(conn *dbus.Conn) *sessionBus {
	b := &sessionBus{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		routes:  make(map[dbus.ObjectPath]chan Response),
	}
	conn.Signal(b.signals)
	go b.dispatch()
	return b
}

func (b *sessionBus) dispatch() {
	for sig := range b.signals {
		if sig.Name != RequestInterface+".Response" {
			continue
		}

		var resp Response
		if err := dbus.Store(sig.Body, &resp.Code, &resp.Results); err != nil {
			continue
		}

		b.mu.Lock()
		ch, ok := b.routes[sig.Path]
		if ok {
			delete(b.routes, sig.Path)
		}
		b.mu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

func (b *sessionBus) object() dbus.BusObject {
	return b.conn.Object(BusName, ObjectPath)
}

func (b *sessionBus) Call(ctx context.Context, method string, args []interface{}, out ...interface{}) error {
	call := b.object().CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return call.Err
	}
	if len(out) == 0 {
		return nil
	}
	return call.Store(out...)
}

func (b *sessionBus) Version(ctx context.Context, iface string) (uint32, error) {
	var v dbus.Variant
	call := b.object().CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, iface, "version")
	if call.Err != nil {
		return 0, call.Err
	}
	if err := call.Store(&v); err != nil {
		return 0, err
	}
	version, ok := v.Value().(uint32)
	if !ok {
		return 0, fmt.Errorf("%s.version has type %s", iface, v.Signature())
	}
	return version, nil
}

func (b *sessionBus) Subscribe(path dbus.ObjectPath) (<-chan Response, func(), error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(RequestInterface),
		dbus.WithMatchMember("Response"),
	}
	if err := b.conn.AddMatchSignal(opts...); err != nil {
		return nil, nil, err
	}

	ch := make(chan Response, 1)
	b.mu.Lock()
	b.routes[path] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.routes, path)
		b.mu.Unlock()
		_ = b.conn.RemoveMatchSignal(opts...)
	}
	return ch, cancel, nil
}

func (b *sessionBus) UniqueName() string {
	names := b.conn.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func (b *sessionBus) Close() error {
	b.conn.RemoveSignal(b.signals)
	err := b.conn.Close()
	close(b.signals)
	return err
}

// RequestPath returns the object path the portal will use for a request
// made by sender with the given handle token
func RequestPath(sender, token string) dbus.ObjectPath {
	sender = strings.TrimPrefix(sender, ":")
	sender = strings.ReplaceAll(sender, ".", "_")
	return dbus.ObjectPath(requestPathPrefix + sender + "/" + token)
}
