// Package layout assigns pixel positions to desktop icons, either on a snap
// grid or freely, and resolves overlaps when restoring saved placements.
package layout

import "fmt"

// Point is a top-left pixel coordinate on the desktop surface.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns the offset from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a width and height in pixels.
type Size struct {
	W int `json:"width"`
	H int `json:"height"`
}

// Rect represents an icon cell or display area
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether p lies inside r (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Geometry describes how one icon cell is sized.
type Geometry struct {
	IconSize     int
	SideMargin   int
	TopMargin    int
	BottomMargin int
	TextLines    int
	LineHeight   int
}

// Cell computes the grid cell size: the icon plus side margins horizontally,
// and the icon plus label lines and margins vertically, with a one pixel
// border on each side.
func (g Geometry) Cell() Size {
	return Size{
		W: g.IconSize + g.SideMargin*2 + 2,
		H: g.TopMargin + g.IconSize + g.TextLines*g.LineHeight + g.BottomMargin + 2,
	}
}

// Mode selects snap-to-grid or free placement.
type Mode int

const (
	ModeSnap Mode = iota
	ModeFree
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeSnap:
		return "snap"
	case ModeFree:
		return "free"
	default:
		return "unknown"
	}
}

// ModeFromSnap maps the "snap" setting to a mode.
func ModeFromSnap(snap bool) Mode {
	if snap {
		return ModeSnap
	}
	return ModeFree
}

// SnapPoint rounds p to the nearest grid cell origin, per axis. The exact
// midpoint between two boundaries rounds to the upper one.
func SnapPoint(p Point, cell Size) Point {
	return Point{X: snapAxis(p.X, cell.W), Y: snapAxis(p.Y, cell.H)}
}

func snapAxis(v, step int) int {
	if step <= 0 {
		return v
	}
	lo := floorDiv(v, step) * step
	hi := lo + step
	if v-lo < hi-v {
		return lo
	}
	return hi
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
