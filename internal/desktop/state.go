package desktop

import (
	"time"

	"github.com/1broseidon/deskgrid/internal/icons"
	"github.com/1broseidon/deskgrid/internal/layout"
)

// IconView is one icon as presented, in sorted order.
type IconView struct {
	Key      string       `json:"key"`
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Mime     string       `json:"mime,omitempty"`
	Size     int64        `json:"size"`
	ModTime  *time.Time   `json:"mod_time,omitempty"`
	Position layout.Point `json:"position"`
	Placed   bool         `json:"placed"`
	Icon     icons.Icon   `json:"icon"`
}

// State is a consistent snapshot of the desktop.
type State struct {
	Mode      string            `json:"mode"`
	SortKey   string            `json:"sort_key"`
	SortOrder string            `json:"sort_order"`
	Sorted    bool              `json:"sorted"`
	Cell      layout.Size       `json:"cell"`
	Area      layout.Size       `json:"area"`
	IconSize  int               `json:"icon_size"`
	Icons     []IconView        `json:"icons"`
	Conflicts []layout.Conflict `json:"conflicts,omitempty"`
	Rebuilds  int               `json:"rebuilds"`
	Uptime    time.Duration     `json:"uptime"`
}
