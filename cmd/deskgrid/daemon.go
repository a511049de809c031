package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/desktop"
	"github.com/1broseidon/deskgrid/internal/display"
	"github.com/1broseidon/deskgrid/internal/hotkeys"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "daemon [--config PATH]", "Run the desktop daemon in the foreground.")
	path := fs.String("config", "", "Config file path (default: ~/.config/deskgrid/config.yaml)")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (snap: %v, icon size: %dpx)", cfg.Snap, cfg.IconSize())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	backend := display.Open(cfg.Display, cfg.FallbackDisplay.Width, cfg.FallbackDisplay.Height, logger)
	defer backend.Close()

	ctrl, err := desktop.New(desktop.Options{
		Config:  cfg,
		Display: backend,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to create desktop: %v", err)
	}

	if stop := startHotkeys(backend, ctrl, cfg.Hotkeys); stop != nil {
		defer stop()
	}

	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(ctrl, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					reloadConfig(ctrl, cfg.Path())
				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down deskgrid daemon...")
					cancel()
					return
				}
			case <-reloadChan:
				reloadConfig(ctrl, cfg.Path())
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Println("deskgrid daemon started successfully")
	if err := ctrl.Run(ctx); err != nil {
		log.Printf("Desktop stopped with error: %v", err)
		return 1
	}
	return 0
}

// reloadConfig applies the settings that can change at runtime. Directory,
// theme and hotkey changes need a restart.
func reloadConfig(ctrl *desktop.Controller, path string) {
	newCfg, err := config.LoadFromPath(path)
	if err != nil {
		log.Printf("Config reload failed: %v", err)
		return
	}
	ctrl.SetSnap(newCfg.Snap)
	if err := ctrl.SetIconSize(newCfg.IconSize()); err != nil {
		log.Printf("Config reload: %v", err)
	}
	ctrl.RefreshDisplay()
	ctrl.Rescan()
	log.Println("Config reloaded successfully")
}

// eventLooper is implemented by backends that can dispatch X events.
type eventLooper interface {
	EventLoop()
	Quit()
}

// startHotkeys grabs the configured key sequences and runs the X event loop
// beside the controller. It returns a stop function, or nil when no hotkeys
// are active.
func startHotkeys(backend display.Backend, ctrl *desktop.Controller, bindings map[string]string) func() {
	if len(bindings) == 0 {
		return nil
	}
	looper, ok := backend.(eventLooper)
	if !ok {
		log.Println("Warning: hotkeys configured but the display backend has no X11 connection")
		return nil
	}
	handler, err := hotkeys.NewHandler(backend, ctrl)
	if err != nil {
		log.Printf("Warning: hotkeys disabled: %v", err)
		return nil
	}
	if err := handler.RegisterAll(bindings); err != nil {
		log.Printf("Warning: %v", err)
	}
	go looper.EventLoop()
	return looper.Quit
}
