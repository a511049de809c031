package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if primary, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primaryOutput = primary.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primaryOutput != 0 && out == primaryOutput {
				isPrimary = true
				break
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	return monitors, nil
}

// GetPrimaryMonitor returns the RandR primary monitor, the monitor at the
// origin when no primary output is set, or the root window geometry when
// RandR reports nothing.
func (c *Connection) GetPrimaryMonitor() (*Monitor, error) {
	monitors, err := c.GetMonitors()
	if err == nil && len(monitors) > 0 {
		for i := range monitors {
			if monitors[i].Primary {
				return &monitors[i], nil
			}
		}
		for i := range monitors {
			if monitors[i].X == 0 && monitors[i].Y == 0 {
				return &monitors[i], nil
			}
		}
		return &monitors[0], nil
	}

	geom, gerr := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if gerr != nil {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get root geometry: %w", gerr)
	}
	return &Monitor{
		Name:    "root",
		Width:   int(geom.Width),
		Height:  int(geom.Height),
		Primary: true,
	}, nil
}

// UsableArea intersects the monitor with the EWMH work area of the current
// desktop (excluding panels and docks). It returns the monitor unchanged when
// no work area is published.
func (c *Connection) UsableArea(m Monitor) Monitor {
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return m
	}

	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil {
		if int(currentDesktop) >= 0 && int(currentDesktop) < len(workArea) {
			desktopIndex = int(currentDesktop)
		}
	}
	wa := workArea[desktopIndex]

	x1 := max(m.X, int(wa.X))
	y1 := max(m.Y, int(wa.Y))
	x2 := min(m.X+m.Width, int(wa.X)+int(wa.Width))
	y2 := min(m.Y+m.Height, int(wa.Y)+int(wa.Height))
	if x2 <= x1 || y2 <= y1 {
		return m
	}

	usable := m
	usable.X = x1
	usable.Y = y1
	usable.Width = x2 - x1
	usable.Height = y2 - y1
	return usable
}
