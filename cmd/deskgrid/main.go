package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/ipc"
	"github.com/1broseidon/deskgrid/internal/preview"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "sort":
		os.Exit(runSort(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "save":
		os.Exit(runSave(os.Args[2:]))
	case "rescan":
		os.Exit(runSimple("rescan", "Re-read the desktop directories.", os.Args[2:], ipc.NewClient().Rescan))
	case "reload":
		os.Exit(runSimple("reload", "Ask the daemon to reload its configuration.", os.Args[2:], ipc.NewClient().Reload))
	case "icon-size":
		os.Exit(runIconSize(os.Args[2:]))
	case "preview":
		os.Exit(runPreview(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskgrid <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the desktop daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  list                List icons and their positions")
	fmt.Fprintln(w, "  preview             Draw the icon layout in the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  sort <key>          Arrange icons by name, type, size or date")
	fmt.Fprintln(w, "  move <key> <x> <y>  Move an icon")
	fmt.Fprintln(w, "  snap on|off         Toggle snap-to-grid")
	fmt.Fprintln(w, "  icon-size <size>    Set icon size (small, medium, large or pixels)")
	fmt.Fprintln(w, "  open <key>          Open an item")
	fmt.Fprintln(w, "  save                Write icon positions now")
	fmt.Fprintln(w, "  rescan              Re-read desktop directories")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskgrid <command> --help' for command-specific options.")
}

// newFlagSet builds a flag set whose usage prints usage and summary.
func newFlagSet(name, usage, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskgrid "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, summary)
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

// parseFlags returns -1 when parsing succeeded, otherwise the exit code.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	return -1
}

func runSimple(name, summary string, args []string, call func() error) int {
	fs := newFlagSet(name, name, summary)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	if err := call(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "status", "Show daemon status via IPC.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sortDesc := "none"
	if status.Sorted {
		sortDesc = status.SortKey + " " + status.SortOrder
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("mode:           %s\n", status.Mode)
	fmt.Printf("sort:           %s\n", sortDesc)
	fmt.Printf("icon_count:     %d\n", status.IconCount)
	fmt.Printf("icon_size:      %d\n", status.IconSize)
	fmt.Printf("cell:           %dx%d\n", status.CellWidth, status.CellHeight)
	fmt.Printf("display:        %dx%d\n", status.AreaWidth, status.AreaHeight)
	fmt.Printf("conflicts:      %d\n", status.Conflicts)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runList(args []string) int {
	fs := newFlagSet("list", "list [--json]", "List desktop icons in presentation order.")
	jsonOut := fs.Bool("json", false, "Output the full desktop state as JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	st, err := ipc.NewClient().ListIcons()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	for _, icon := range st.Icons {
		placed := ""
		if icon.Placed {
			placed = " (placed)"
		}
		fmt.Printf("%5d,%-5d %s%s\n", icon.Position.X, icon.Position.Y, icon.Key, placed)
	}
	return 0
}

func runSort(args []string) int {
	fs := newFlagSet("sort", "sort <name|type|size|date>", "Arrange the icons into the grid, ascending by key.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "sort requires exactly one <key>")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Sort(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMove(args []string) int {
	fs := newFlagSet("move", "move <key> <x> <y>", "Move an icon so its top-left corner lands at x,y.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "move requires <key> <x> <y>")
		fs.Usage()
		return 2
	}
	x, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid x %q\n", fs.Arg(1))
		return 2
	}
	y, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid y %q\n", fs.Arg(2))
		return 2
	}
	if err := ipc.NewClient().Drop([]string{fs.Arg(0)}, x, y); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSnap(args []string) int {
	fs := newFlagSet("snap", "snap on|off", "Turn snap-to-grid on or off.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "snap requires on or off")
		fs.Usage()
		return 2
	}
	on, err := parseSwitch(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().SetSnap(on); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runOpen(args []string) int {
	fs := newFlagSet("open", "open <key>", "Open an item in its default application.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "open requires <key>")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Activate(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSave(args []string) int {
	fs := newFlagSet("save", "save", "Write the current icon positions to the position file.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "save takes no arguments")
		fs.Usage()
		return 2
	}
	saved, err := ipc.NewClient().Save()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !saved {
		fmt.Fprintln(os.Stderr, "position file could not be written; see the daemon log")
		return 1
	}
	return 0
}

func runIconSize(args []string) int {
	fs := newFlagSet("icon-size", "icon-size <small|medium|large|PIXELS>", "Change the icon size and with it the grid cell.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "icon-size requires <size>")
		fs.Usage()
		return 2
	}
	size, err := parseIconSize(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().SetIconSize(size); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPreview(args []string) int {
	fs := newFlagSet("preview", "preview [--width N] [--height N] [--plain]", "Draw the current icon layout scaled to the terminal.")
	width := fs.Int("width", 0, "Canvas width in columns (default: terminal width)")
	height := fs.Int("height", 0, "Canvas height in rows (default: terminal height)")
	plain := fs.Bool("plain", false, "Print the map without colours or legend")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	st, err := ipc.NewClient().ListIcons()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	w, h := preview.TerminalSize(st.Area, 80, 24)
	if *width > 0 || *height > 0 {
		maxW, maxH := *width, *height
		if maxW <= 0 {
			maxW = w
		}
		if maxH <= 0 {
			maxH = h
		}
		w, h = preview.FitCanvas(st.Area, maxW, maxH)
	}

	if *plain {
		fmt.Println(strings.Join(preview.Render(*st, w, h), "\n"))
		return 0
	}
	fmt.Println(preview.Styled(*st, w, h))
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  deskgrid config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  deskgrid config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskgrid/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskgrid/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			if cfg, err = loadConfig(*path); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Printf("# cell: %dx%d px\n", cfg.CellSize().W, cfg.CellSize().H)
			fmt.Printf("# positions_file: %s\n", cfg.ResolvedPositionsFile())
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// parseSwitch accepts on/off style values.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

// parseIconSize accepts a preset name or a pixel count.
func parseIconSize(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return config.IconSizeSmall, nil
	case "medium":
		return config.IconSizeMedium, nil
	case "large":
		return config.IconSizeLarge, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid icon size %q (expected small, medium, large or pixels)", s)
	}
	if n < config.MinIconSize || n > config.MaxIconSize {
		return 0, fmt.Errorf("icon size must be between %d and %d, got %d", config.MinIconSize, config.MaxIconSize, n)
	}
	return n, nil
}
