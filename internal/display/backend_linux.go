//go:build linux

package display

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/deskgrid/internal/x11"
)

// X11Backend queries monitors through RandR.
type X11Backend struct {
	conn *x11.Connection
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend opens a connection to the X server (DISPLAY when name is
// empty).
func NewX11Backend(name string) (*X11Backend, error) {
	conn, err := x11.NewConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{conn: conn}, nil
}

// Close closes the underlying X11 connection.
func (b *X11Backend) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// XUtil exposes the X connection for key grabs.
func (b *X11Backend) XUtil() *xgbutil.XUtil { return b.conn.XUtil }

// RootWindow returns the root window key grabs attach to.
func (b *X11Backend) RootWindow() xproto.Window { return b.conn.Root }

// EventLoop dispatches X events until Quit is called.
func (b *X11Backend) EventLoop() { b.conn.EventLoop() }

// Quit stops EventLoop.
func (b *X11Backend) Quit() { b.conn.Quit() }

// Displays returns all active displays.
func (b *X11Backend) Displays() ([]Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, b.displayFromMonitor(m))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// PrimaryDisplay returns the primary display.
func (b *X11Backend) PrimaryDisplay() (Display, error) {
	m, err := b.conn.GetPrimaryMonitor()
	if err != nil {
		return Display{}, err
	}
	return b.displayFromMonitor(*m), nil
}

func (b *X11Backend) displayFromMonitor(m x11.Monitor) Display {
	usable := b.conn.UsableArea(m)
	return Display{
		ID:      m.ID,
		Name:    m.Name,
		Bounds:  Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
		Usable:  Rect{X: usable.X, Y: usable.Y, Width: usable.Width, Height: usable.Height},
		Primary: m.Primary,
	}
}
