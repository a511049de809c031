package layout

import (
	"log/slog"
)

// Placement is one (identity key, top-left point) pair.
type Placement struct {
	Key   string `json:"key"`
	Point Point  `json:"point"`
}

// Conflict records an item that could not be moved off an occupied cell
// during Restore.
type Conflict struct {
	Key        string `json:"key"`
	At         Point  `json:"at"`
	OccupiedBy string `json:"occupied_by"`
}

// Engine holds icon placement state for one desktop surface.
//
// Items without an explicit placement sit in implicit grid slots assigned by
// their sequence order, flowing left to right and wrapping at the display
// width. Coordinates are relative to the top-left corner of the display.
type Engine struct {
	logger *slog.Logger

	mode Mode
	cell Size
	area Size

	keys      []string
	slot      map[string]int
	explicit  map[string]Point
	conflicts []Conflict
}

// NewEngine creates an engine for a display area of the given size.
func NewEngine(mode Mode, cell Size, area Size, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:   logger,
		mode:     mode,
		cell:     cell,
		area:     area,
		slot:     make(map[string]int),
		explicit: make(map[string]Point),
	}
}

func (e *Engine) Mode() Mode { return e.mode }
func (e *Engine) Cell() Size { return e.cell }
func (e *Engine) Area() Size { return e.area }

// SetMode switches between snap and free placement. Persisting and restoring
// around the switch is the caller's job.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.logger.Info("layout mode changed", "from", e.mode, "to", m)
	e.mode = m
}

// SetCell updates the grid cell size (e.g. after an icon size change).
func (e *Engine) SetCell(cell Size) { e.cell = cell }

// SetArea updates the display area used for wrapping and overlap scans.
func (e *Engine) SetArea(area Size) { e.area = area }

// SetItems replaces the item list. keys is the presentation order used for
// implicit slots. Explicit placements for absent keys are kept but unused.
func (e *Engine) SetItems(keys []string) {
	e.keys = append([]string(nil), keys...)
	e.slot = make(map[string]int, len(keys))
	for i, k := range keys {
		if _, dup := e.slot[k]; !dup {
			e.slot[k] = i
		}
	}
}

// Keys returns the items in presentation order.
func (e *Engine) Keys() []string { return append([]string(nil), e.keys...) }

// ClearPlacements drops every explicit placement so all items fall back to
// their implicit grid slots.
func (e *Engine) ClearPlacements() {
	e.explicit = make(map[string]Point)
}

// Place assigns an explicit position to key as-is.
func (e *Engine) Place(key string, p Point) {
	e.explicit[key] = p
}

// Placed reports whether key has an explicit position.
func (e *Engine) Placed(key string) bool {
	_, ok := e.explicit[key]
	return ok
}

// columns is the number of implicit slots per row.
func (e *Engine) columns() int {
	if e.cell.W <= 0 {
		return 1
	}
	cols := e.area.W / e.cell.W
	if cols < 1 {
		cols = 1
	}
	return cols
}

// SlotPoint returns the origin of the n-th implicit grid slot.
func (e *Engine) SlotPoint(n int) Point {
	cols := e.columns()
	return Point{X: (n % cols) * e.cell.W, Y: (n / cols) * e.cell.H}
}

// Position returns key's current top-left point.
func (e *Engine) Position(key string) (Point, bool) {
	if p, ok := e.explicit[key]; ok {
		if _, present := e.slot[key]; present {
			return p, true
		}
	}
	n, ok := e.slot[key]
	if !ok {
		return Point{}, false
	}
	return e.SlotPoint(n), true
}

// Rect returns key's current cell rectangle.
func (e *Engine) Rect(key string) (Rect, bool) {
	p, ok := e.Position(key)
	if !ok {
		return Rect{}, false
	}
	return Rect{X: p.X, Y: p.Y, Width: e.cell.W, Height: e.cell.H}, true
}

// ItemAt returns the first item, in presentation order, whose cell contains p.
func (e *Engine) ItemAt(p Point) (string, bool) {
	return e.itemAt(p, e.keys, "")
}

func (e *Engine) itemAt(p Point, order []string, skip string) (string, bool) {
	for _, k := range order {
		if k == skip {
			continue
		}
		if r, ok := e.Rect(k); ok && r.Contains(p) {
			return k, true
		}
	}
	return "", false
}

// Drop moves keys so that the first one lands at p, keeping the others at
// their offsets relative to it. In snap mode every moved item is rounded to
// the nearest grid cell origin.
func (e *Engine) Drop(keys []string, p Point) {
	if len(keys) == 0 {
		return
	}
	anchor, ok := e.Position(keys[0])
	if !ok {
		anchor = p
	}
	delta := p.Sub(anchor)

	for _, k := range keys {
		cur, ok := e.Position(k)
		if !ok {
			continue
		}
		target := cur.Add(delta)
		if e.mode == ModeSnap {
			target = SnapPoint(target, e.cell)
		}
		e.explicit[k] = target
		e.logger.Debug("item dropped", "key", k, "at", target, "mode", e.mode)
	}
}

// Restore reapplies persisted positions in two passes. order is the traversal
// order (the aggregate order); it also decides which of two overlapping items
// keeps its cell.
//
// Pass one assigns every persisted point directly. Pass two probes each
// item's point; when a different item already occupies it, grid cells are
// scanned left to right, top to bottom within the display for the first free
// one. If none is free the item keeps the conflicting point and a Conflict is
// recorded.
func (e *Engine) Restore(persisted map[string]Point, order []string) []Conflict {
	e.conflicts = nil

	for _, k := range order {
		if p, ok := persisted[k]; ok {
			e.explicit[k] = p
		}
	}

	for _, k := range order {
		pos, ok := e.Position(k)
		if !ok {
			continue
		}
		under, occupied := e.itemAt(pos, order, "")
		if !occupied || under == k {
			continue
		}

		spot, found := e.freeCell(order, k)
		if !found {
			e.logger.Warn("could not find a free cell", "key", k, "at", pos, "occupied_by", under)
			e.conflicts = append(e.conflicts, Conflict{Key: k, At: pos, OccupiedBy: under})
			continue
		}
		e.logger.Debug("overlap resolved", "key", k, "from", pos, "to", spot, "occupied_by", under)
		e.explicit[k] = spot
	}

	return e.Conflicts()
}

// freeCell scans grid cell origins fully inside the display for one that no
// item other than self covers.
func (e *Engine) freeCell(order []string, self string) (Point, bool) {
	if e.cell.W <= 0 || e.cell.H <= 0 {
		return Point{}, false
	}
	for y := 0; y+e.cell.H <= e.area.H; y += e.cell.H {
		for x := 0; x+e.cell.W <= e.area.W; x += e.cell.W {
			p := Point{X: x, Y: y}
			if _, taken := e.itemAt(p, order, self); !taken {
				return p, true
			}
		}
	}
	return Point{}, false
}

// Conflicts returns the conflicts recorded by the last Restore.
func (e *Engine) Conflicts() []Conflict {
	return append([]Conflict(nil), e.conflicts...)
}

// Placements returns the current position of every key in order, for
// persisting.
func (e *Engine) Placements(order []string) []Placement {
	out := make([]Placement, 0, len(order))
	for _, k := range order {
		p, ok := e.Position(k)
		if !ok {
			continue
		}
		out = append(out, Placement{Key: k, Point: p})
	}
	return out
}
