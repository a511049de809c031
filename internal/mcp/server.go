// Package mcp exposes the running desktop daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskgrid/internal/desktop"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

const (
	ServerName    = "deskgrid"
	ServerVersion = "0.1.0"
)

// Daemon is the daemon API the tools call. *ipc.Client satisfies it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListIcons() (*desktop.State, error)
	Sort(key string) error
	Drop(keys []string, x, y int) error
	SetSnap(enabled bool) error
	Activate(key string) error
	Save() (bool, error)
	Rescan() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for desktop icon automation.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: daemon, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the desktop daemon state: placement mode (snap or free), active sort, icon count, grid cell size and display area.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_icons",
		Description: "List every desktop icon in presentation order with its identity key, name, type, size and top-left pixel position.",
	}, s.handleListIcons)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "sort_icons",
		Description: "Arrange the icons into the grid sorted ascending by name, type, size or date. Clears manual placements.",
	}, s.handleSortIcons)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_icons",
		Description: "Move icons so the first lands at x,y; the others keep their offsets from it. In snap mode positions round to the nearest grid cell.",
	}, s.handleMoveIcons)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_snap",
		Description: "Turn snap-to-grid on or off. Turning it off restores the last saved free layout.",
	}, s.handleSetSnap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_icon",
		Description: "Open a desktop item in its default application.",
	}, s.handleOpenIcon)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_positions",
		Description: "Write the current icon positions to the position file.",
	}, s.handleSavePositions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rescan_desktop",
		Description: "Re-read the desktop directories and refresh the icon grid.",
	}, s.handleRescan)
}
