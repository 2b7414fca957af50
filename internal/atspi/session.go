// Package atspi speaks the AT-SPI2 accessibility protocol over D-Bus.
// It covers the small surface this tool needs: session bootstrap, the
// document lifecycle event stream, child enumeration, state queries, and
// screen-space extents.
package atspi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

const (
	busName         = "org.a11y.Bus"
	busPath         = "/org/a11y/bus"
	busInterface    = "org.a11y.Bus"
	statusInterface = "org.a11y.Status"

	registryName      = "org.a11y.atspi.Registry"
	registryPath      = "/org/a11y/atspi/registry"
	registryInterface = "org.a11y.atspi.Registry"

	accessibleInterface = "org.a11y.atspi.Accessible"
	componentInterface  = "org.a11y.atspi.Component"

	desktopPath = "/org/a11y/atspi/accessible/root"

	// CoordType for Component.GetExtents: screen-absolute coordinates.
	coordTypeScreen uint32 = 0
)

// Session owns the connection to the accessibility bus. It is created once
// at startup, passed explicitly to every component that issues remote
// calls, and closed by its creator at shutdown. All calls on it are
// self-contained request/response exchanges, so it is safe for concurrent
// use by multiple goroutines.
type Session struct {
	session *dbus.Conn // user session bus, used only for bootstrap
	bus     *dbus.Conn // dedicated accessibility bus
	log     *slog.Logger
}

// NewSession connects to the accessibility bus advertised on the user
// session bus and enables system-wide accessibility broadcasting. Any
// failure here is fatal to startup.
func NewSession(ctx context.Context, log *slog.Logger) (*Session, error) {
	session, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	bridge := session.Object(busName, busPath)

	var addr string
	if err := bridge.CallWithContext(ctx, busInterface+".GetAddress", 0).Store(&addr); err != nil {
		return nil, fmt.Errorf("resolve accessibility bus address: %w", err)
	}

	// The equivalent of flipping the session's "accessibility enabled"
	// switch: without it many toolkits never emit tree events.
	if err := bridge.SetProperty(statusInterface+".IsEnabled", dbus.MakeVariant(true)); err != nil {
		return nil, fmt.Errorf("enable session accessibility: %w", err)
	}

	bus, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to accessibility bus at %s: %w", addr, err)
	}

	log.Debug("connected to accessibility bus", "address", addr)

	return &Session{session: session, bus: bus, log: log}, nil
}

// Close releases the accessibility bus connection. The session bus is
// shared process state and is left open.
func (s *Session) Close() error {
	return s.bus.Close()
}

// Desktop returns the registry's root accessible. Its children are the
// running applications.
func (s *Session) Desktop() model.ElementRef {
	return model.ElementRef{Sender: registryName, Path: desktopPath}
}

func (s *Session) object(ref model.ElementRef) dbus.BusObject {
	return s.bus.Object(ref.Sender, dbus.ObjectPath(ref.Path))
}

// refPair mirrors the D-Bus (so) element reference.
type refPair struct {
	Sender string
	Path   dbus.ObjectPath
}

// Children enumerates an element's direct children.
func (s *Session) Children(ctx context.Context, ref model.ElementRef) ([]model.ElementRef, error) {
	var raw []refPair
	err := s.object(ref).CallWithContext(ctx, accessibleInterface+".GetChildren", 0).Store(&raw)
	if err != nil {
		return nil, fmt.Errorf("get children of %s: %w", ref, err)
	}
	children := make([]model.ElementRef, 0, len(raw))
	for _, p := range raw {
		children = append(children, model.ElementRef{Sender: p.Sender, Path: string(p.Path)})
	}
	return children, nil
}

// State fetches an element's full state set. States are never cached
// across walks; visibility can change between queries.
func (s *Session) State(ctx context.Context, ref model.ElementRef) (StateSet, error) {
	var words []uint32
	err := s.object(ref).CallWithContext(ctx, accessibleInterface+".GetState", 0).Store(&words)
	if err != nil {
		return StateSet{}, fmt.Errorf("get state of %s: %w", ref, err)
	}
	return NewStateSet(words), nil
}

// Showing reports whether the element is currently showing on screen.
func (s *Session) Showing(ctx context.Context, ref model.ElementRef) (bool, error) {
	states, err := s.State(ctx, ref)
	if err != nil {
		return false, err
	}
	return states.Showing(), nil
}

// Name returns the element's accessible name, or "" if it has none.
func (s *Session) Name(ref model.ElementRef) (string, error) {
	v, err := s.object(ref).GetProperty(accessibleInterface + ".Name")
	if err != nil {
		return "", fmt.Errorf("get name of %s: %w", ref, err)
	}
	name, _ := v.Value().(string)
	return name, nil
}

// RoleName returns the element's localized role name ("push button",
// "document web", ...).
func (s *Session) RoleName(ctx context.Context, ref model.ElementRef) (string, error) {
	var role string
	err := s.object(ref).CallWithContext(ctx, accessibleInterface+".GetRoleName", 0).Store(&role)
	if err != nil {
		return "", fmt.Errorf("get role of %s: %w", ref, err)
	}
	return role, nil
}

// Extents is the geometry probe: the element's bounding box in screen
// coordinates via its Component interface. Fails if the element is gone
// or does not implement Component; callers treat that as skip-this-
// element, never as a fatal condition.
func (s *Session) Extents(ctx context.Context, ref model.ElementRef) (model.BoundingBox, error) {
	var box struct {
		X, Y, Width, Height int32
	}
	err := s.object(ref).CallWithContext(ctx, componentInterface+".GetExtents", 0, coordTypeScreen).Store(&box)
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("get extents of %s: %w", ref, err)
	}
	return model.BoundingBox{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

// Application is one running program registered with the registry.
type Application struct {
	Ref  model.ElementRef `yaml:"ref"  json:"ref"`
	Name string           `yaml:"name" json:"name"`
}

// Applications lists the running applications known to the registry.
// Applications whose name query fails are listed with an empty name
// rather than dropped.
func (s *Session) Applications(ctx context.Context) ([]Application, error) {
	children, err := s.Children(ctx, s.Desktop())
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	apps := make([]Application, 0, len(children))
	for _, ref := range children {
		name, err := s.Name(ref)
		if err != nil {
			s.log.Debug("application name query failed", "ref", ref.String(), "error", err)
		}
		apps = append(apps, Application{Ref: ref, Name: name})
	}
	return apps, nil
}
