package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskgrid/internal/layout"
	"github.com/1broseidon/deskgrid/internal/positions"
)

// Icon size presets offered by the "View" menu.
const (
	IconSizeSmall  = 32
	IconSizeMedium = 48
	IconSizeLarge  = 64

	MinIconSize = 16
	MaxIconSize = 256
)

// Hotkey actions that can be bound in the hotkeys map.
const (
	ActionArrangeName = "arrange_name"
	ActionArrangeType = "arrange_type"
	ActionArrangeSize = "arrange_size"
	ActionArrangeDate = "arrange_date"
	ActionToggleSnap  = "toggle_snap"
	ActionRescan      = "rescan"
)

// HotkeyActions lists every bindable action.
var HotkeyActions = []string{
	ActionArrangeName,
	ActionArrangeType,
	ActionArrangeSize,
	ActionArrangeDate,
	ActionToggleSnap,
	ActionRescan,
}

// Icons configures icon geometry and which special items are shown.
type Icons struct {
	Size      int      `yaml:"size"`
	PC        bool     `yaml:"pc"`
	Trash     bool     `yaml:"trash"`
	Documents bool     `yaml:"documents"`
	Theme     string   `yaml:"theme,omitempty"`
	ThemeDirs []string `yaml:"theme_dirs,omitempty"`
}

// Grid holds the label geometry that, together with the icon size, defines
// the grid cell.
type Grid struct {
	SideMargin   int `yaml:"side_margin"`
	TopMargin    int `yaml:"top_margin"`
	BottomMargin int `yaml:"bottom_margin"`
	TextLines    int `yaml:"text_lines"`
	LineHeight   int `yaml:"line_height"`
}

// DisplaySize is used when no display server can be queried.
type DisplaySize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the deskgrid configuration.
type Config struct {
	Snap            bool        `yaml:"snap"`
	IconMode        bool        `yaml:"icon_mode"` // view mode; not used by grid geometry
	Icons           Icons       `yaml:"icons"`
	Grid            Grid        `yaml:"grid"`
	DesktopDirs     []string    `yaml:"desktop_dirs"`
	PositionsFile   string      `yaml:"positions_file,omitempty"`
	SortLocale      string      `yaml:"sort_locale"`
	Display         string      `yaml:"display,omitempty"` // X11 DISPLAY override
	FallbackDisplay DisplaySize `yaml:"fallback_display"`
	LogLevel        string      `yaml:"log_level"`

	// Hotkeys maps an action name to an X11 key sequence such as
	// "Mod4-Shift-n".
	Hotkeys map[string]string `yaml:"hotkeys,omitempty"`

	path string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Snap:     true,
		IconMode: true,
		Icons: Icons{
			Size:      IconSizeMedium,
			PC:        true,
			Trash:     true,
			Documents: false,
		},
		Grid: Grid{
			SideMargin:   16,
			TopMargin:    4,
			BottomMargin: 4,
			TextLines:    3,
			LineHeight:   16,
		},
		DesktopDirs:     []string{"~/Desktop"},
		SortLocale:      "en",
		FallbackDisplay: DisplaySize{Width: 1920, Height: 1080},
		LogLevel:        "info",
	}
}

// SnapEnabled reports whether icons snap to the grid.
func (c *Config) SnapEnabled() bool { return c.Snap }

// LayoutMode maps the snap setting to a layout mode.
func (c *Config) LayoutMode() layout.Mode { return layout.ModeFromSnap(c.Snap) }

// IconSize returns the icon edge length in pixels.
func (c *Config) IconSize() int {
	if c.Icons.Size <= 0 {
		return IconSizeMedium
	}
	return c.Icons.Size
}

// Geometry returns the cell geometry derived from the icon size and grid
// settings.
func (c *Config) Geometry() layout.Geometry {
	return layout.Geometry{
		IconSize:     c.IconSize(),
		SideMargin:   c.Grid.SideMargin,
		TopMargin:    c.Grid.TopMargin,
		BottomMargin: c.Grid.BottomMargin,
		TextLines:    c.Grid.TextLines,
		LineHeight:   c.Grid.LineHeight,
	}
}

// CellSize returns the grid cell size.
func (c *Config) CellSize() layout.Size { return c.Geometry().Cell() }

// ResolvedDesktopDirs expands "~" in the configured directories.
func (c *Config) ResolvedDesktopDirs() []string {
	out := make([]string, 0, len(c.DesktopDirs))
	for _, dir := range c.DesktopDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		out = append(out, expandHome(dir))
	}
	return out
}

// ResolvedPositionsFile returns the position file path.
func (c *Config) ResolvedPositionsFile() string {
	if strings.TrimSpace(c.PositionsFile) == "" {
		return positions.DefaultPath()
	}
	return expandHome(c.PositionsFile)
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string { return c.path }

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Icons.Size < MinIconSize || c.Icons.Size > MaxIconSize {
		return fmt.Errorf("icons.size must be between %d and %d, got %d", MinIconSize, MaxIconSize, c.Icons.Size)
	}
	g := c.Grid
	if g.SideMargin < 0 || g.TopMargin < 0 || g.BottomMargin < 0 {
		return fmt.Errorf("grid margins must be >= 0")
	}
	if g.TextLines < 0 || g.LineHeight < 0 {
		return fmt.Errorf("grid.text_lines and grid.line_height must be >= 0")
	}
	if c.FallbackDisplay.Width <= 0 || c.FallbackDisplay.Height <= 0 {
		return fmt.Errorf("fallback_display must have positive width and height, got %dx%d",
			c.FallbackDisplay.Width, c.FallbackDisplay.Height)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	for action, keys := range c.Hotkeys {
		if !slices.Contains(HotkeyActions, action) {
			return fmt.Errorf("hotkeys: unknown action %q (expected one of %s)", action, strings.Join(HotkeyActions, ", "))
		}
		if strings.TrimSpace(keys) == "" {
			return fmt.Errorf("hotkeys.%s: key sequence is empty", action)
		}
	}
	return nil
}

// Save writes the config back to the file it was loaded from, or to the
// default location.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.DesktopDirs = append([]string(nil), c.DesktopDirs...)
	cp.Icons.ThemeDirs = append([]string(nil), c.Icons.ThemeDirs...)
	if c.Hotkeys != nil {
		cp.Hotkeys = make(map[string]string, len(c.Hotkeys))
		for k, v := range c.Hotkeys {
			cp.Hotkeys[k] = v
		}
	}
	return &cp
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
