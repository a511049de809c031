package mcp

import "github.com/1broseidon/deskgrid/internal/desktop"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Mode       string `json:"mode"`
	SortKey    string `json:"sort_key"`
	Sorted     bool   `json:"sorted"`
	IconCount  int    `json:"icon_count"`
	IconSize   int    `json:"icon_size"`
	CellWidth  int    `json:"cell_width"`
	CellHeight int    `json:"cell_height"`
	AreaWidth  int    `json:"area_width"`
	AreaHeight int    `json:"area_height"`
	Conflicts  int    `json:"conflicts"`
}

// ListIconsInput is the input for the list_icons tool.
type ListIconsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"Optional case-insensitive substring; only icons whose name contains it are returned"`
}

// IconInfo describes one icon.
type IconInfo struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Mime   string `json:"mime,omitempty"`
	Size   int64  `json:"size"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Placed bool   `json:"placed"`
}

// ListIconsOutput is the output for the list_icons tool.
type ListIconsOutput struct {
	Mode  string     `json:"mode"`
	Icons []IconInfo `json:"icons"`
}

// SortIconsInput is the input for the sort_icons tool.
type SortIconsInput struct {
	Key string `json:"key" jsonschema:"required,Sort key: name, type, size or date"`
}

// MoveIconsInput is the input for the move_icons tool.
type MoveIconsInput struct {
	Keys []string `json:"keys" jsonschema:"required,Identity keys of the icons to move (absolute paths or special item ids from list_icons)"`
	X    int      `json:"x" jsonschema:"required,Target x in pixels for the first icon"`
	Y    int      `json:"y" jsonschema:"required,Target y in pixels for the first icon"`
}

// MoveIconsOutput is the output for the move_icons tool.
type MoveIconsOutput struct {
	Icons []IconInfo `json:"icons"`
}

// SetSnapInput is the input for the set_snap tool.
type SetSnapInput struct {
	Enabled bool `json:"enabled" jsonschema:"required,True to snap icons to the grid, false for free placement"`
}

// OpenIconInput is the input for the open_icon tool.
type OpenIconInput struct {
	Key string `json:"key" jsonschema:"required,Identity key of the icon to open"`
}

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// ResultOutput is a generic acknowledgement.
type ResultOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func iconInfo(v desktop.IconView) IconInfo {
	return IconInfo{
		Key:    v.Key,
		Name:   v.Name,
		Kind:   v.Kind,
		Mime:   v.Mime,
		Size:   v.Size,
		X:      v.Position.X,
		Y:      v.Position.Y,
		Placed: v.Placed,
	}
}
