// Package display reports the bounds of the displays the desktop surface
// covers.
package display

import "fmt"

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Bounds  Rect   `json:"bounds"`
	Usable  Rect   `json:"usable"`
	Primary bool   `json:"primary"`
}

// Backend abstracts display queries across platforms.
type Backend interface {
	Displays() ([]Display, error)
	PrimaryDisplay() (Display, error)
	Close()
}

// Static is a Backend with one fixed display. It is used when no display
// server is reachable and in tests.
type Static struct {
	display Display
}

var _ Backend = (*Static)(nil)

// NewStatic creates a backend reporting a single width x height display at
// the origin.
func NewStatic(width, height int) *Static {
	r := Rect{Width: width, Height: height}
	return &Static{display: Display{Name: "static", Bounds: r, Usable: r, Primary: true}}
}

func (s *Static) Displays() ([]Display, error) {
	if s.display.Bounds.Width <= 0 || s.display.Bounds.Height <= 0 {
		return nil, fmt.Errorf("static display has no area")
	}
	return []Display{s.display}, nil
}

func (s *Static) PrimaryDisplay() (Display, error) {
	if s.display.Bounds.Width <= 0 || s.display.Bounds.Height <= 0 {
		return Display{}, fmt.Errorf("static display has no area")
	}
	return s.display, nil
}

func (s *Static) Close() {}
