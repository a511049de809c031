package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/deskgrid/internal/ipc"
	"github.com/1broseidon/deskgrid/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskgrid mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskgrid mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := newFlagSet("mcp serve", "mcp serve [--socket PATH] [--debug]",
		"Start the MCP server on stdio. Tool calls are forwarded to the running\ndeskgrid daemon over its IPC socket.")
	socket := fs.String("socket", "", "Daemon socket path (default: $XDG_RUNTIME_DIR/deskgrid.sock)")
	debug := fs.Bool("debug", false, "Enable debug logging on stderr")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := ipc.NewClient()
	if *socket != "" {
		client = ipc.NewClientAt(*socket)
	}
	server := mcp.NewServer(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Printf("MCP server error: %v", err)
		return 1
	}
	return 0
}
