// Package desktop wires item sources, the sorted view, the layout engine and
// the position store together and drives them from a single control loop.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/deskgrid/internal/aggregate"
	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/display"
	"github.com/1broseidon/deskgrid/internal/icons"
	"github.com/1broseidon/deskgrid/internal/layout"
	"github.com/1broseidon/deskgrid/internal/positions"
	"github.com/1broseidon/deskgrid/internal/sortview"
	"github.com/1broseidon/deskgrid/internal/source"
)

// ErrUnknownItem is returned for identity keys not on the desktop.
var ErrUnknownItem = errors.New("unknown desktop item")

// Options configures a Controller. Only Config is required.
type Options struct {
	Config  *config.Config
	Display display.Backend
	Store   *positions.Store
	Icons   icons.Resolver
	Opener  Opener
	Logger  *slog.Logger

	// Providers overrides the providers built from Config.
	Providers []source.Provider

	// SaveConfig persists setting changes (snap, icon size). Defaults to
	// Config.Save; errors are logged.
	SaveConfig func(*config.Config) error
}

// Controller owns the desktop state.
//
// Once Run is called every operation executes on the Run goroutine, in
// order, so no two mutations interleave. Before Run (and after it returns)
// operations execute directly on the caller's goroutine, which then acts as
// the control thread.
type Controller struct {
	cfg        *config.Config
	logger     *slog.Logger
	display    display.Backend
	store      *positions.Store
	icons      *icons.Cache
	opener     Opener
	saveConfig func(*config.Config) error

	agg    *aggregate.Aggregator
	view   *sortview.Projection
	engine *layout.Engine
	dirs   []*source.Filesystem

	// usePersisted is cleared by an explicit sort so later rebuilds keep the
	// arranged grid instead of reapplying the saved layout.
	usePersisted bool
	rebuilds     int
	started      time.Time

	running atomic.Bool
	events  chan func()
	kick    chan struct{}
	stopped chan struct{}
}

// New builds a controller from opts.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend := opts.Display
	if backend == nil {
		backend = display.NewStatic(cfg.FallbackDisplay.Width, cfg.FallbackDisplay.Height)
	}
	store := opts.Store
	if store == nil {
		store = positions.NewStore(cfg.ResolvedPositionsFile(), logger)
	}
	resolver := opts.Icons
	if resolver == nil {
		resolver = icons.NewThemeResolver(cfg.Icons.Theme, cfg.Icons.ThemeDirs)
	}
	opener := opts.Opener
	if opener == nil {
		opener = XDGOpener{}
	}
	saveConfig := opts.SaveConfig
	if saveConfig == nil {
		saveConfig = func(c *config.Config) error { return c.Save() }
	}

	c := &Controller{
		cfg:          cfg,
		logger:       logger,
		display:      backend,
		store:        store,
		icons:        icons.NewCache(resolver),
		opener:       opener,
		saveConfig:   saveConfig,
		agg:          aggregate.New(logger),
		usePersisted: true,
		started:      time.Now(),
		events:       make(chan func(), 16),
		kick:         make(chan struct{}, 1),
		stopped:      make(chan struct{}),
	}

	providers := opts.Providers
	if providers == nil {
		providers = c.defaultProviders()
	}
	for _, p := range providers {
		if fs, ok := p.(*source.Filesystem); ok {
			c.dirs = append(c.dirs, fs)
		}
		p.OnChange(c.requestRebuild)
		c.agg.Add(p)
	}

	c.view = sortview.New(c.agg, cfg.SortLocale, logger)
	c.view.OnReordered(c.handleReordered)
	c.engine = layout.NewEngine(cfg.LayoutMode(), cfg.CellSize(), c.displayArea(), logger)

	return c, nil
}

func (c *Controller) defaultProviders() []source.Provider {
	var providers []source.Provider
	for _, dir := range c.cfg.ResolvedDesktopDirs() {
		providers = append(providers, source.NewFilesystem(dir, c.logger))
	}
	special := source.NewSpecial(source.SpecialItems{
		PC:        c.cfg.Icons.PC,
		Trash:     c.cfg.Icons.Trash,
		Documents: c.cfg.Icons.Documents,
	})
	if special.Count() > 0 {
		providers = append(providers, special)
	}
	return providers
}

func (c *Controller) displayArea() layout.Size {
	d, err := c.display.PrimaryDisplay()
	if err != nil {
		c.logger.Warn("primary display unavailable, using fallback size", "error", err)
		return layout.Size{W: c.cfg.FallbackDisplay.Width, H: c.cfg.FallbackDisplay.Height}
	}
	return layout.Size{W: d.Bounds.Width, H: d.Bounds.Height}
}

// Run scans the sources, starts directory watches and processes events until
// ctx is cancelled. Positions are saved before it returns.
func (c *Controller) Run(ctx context.Context) error {
	select {
	case <-c.stopped:
		return fmt.Errorf("controller already stopped")
	default:
	}
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("controller already running")
	}
	defer func() {
		c.running.Store(false)
		close(c.stopped)
	}()

	for _, fs := range c.dirs {
		if err := fs.Watch(ctx, c.dirChanged(fs)); err != nil {
			c.logger.Warn("directory watch unavailable", "root", fs.Root(), "error", err)
		}
		fs.Scan()
	}
	c.rebuild()

	for {
		select {
		case <-ctx.Done():
			c.drain()
			c.flushRebuild()
			c.save()
			c.logger.Info("desktop controller stopped")
			return nil
		case <-c.kick:
			c.rebuild()
		case fn := <-c.events:
			fn()
		}
	}
}

// drain runs queued operations so callers blocked in do are released.
func (c *Controller) drain() {
	for {
		select {
		case fn := <-c.events:
			fn()
		default:
			return
		}
	}
}

// do executes fn on the control thread and waits for it. If the loop stops
// before picking fn up, fn runs on the caller's goroutine instead.
func (c *Controller) do(fn func()) {
	if !c.running.Load() {
		fn()
		return
	}

	var once sync.Once
	run := func() { once.Do(fn) }
	done := make(chan struct{})

	select {
	case c.events <- func() { run(); close(done) }:
	case <-c.stopped:
		run()
		return
	}

	select {
	case <-done:
	case <-c.stopped:
		run()
	}
}

// requestRebuild coalesces change signals from providers into one rebuild.
func (c *Controller) requestRebuild() {
	if !c.running.Load() {
		c.rebuild()
		return
	}
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// dirChanged returns the watch callback for fs. The scan and the rebuild run
// in one step on the control thread, so the aggregate never indexes a
// snapshot the provider has already replaced.
func (c *Controller) dirChanged(fs *source.Filesystem) func() {
	return func() {
		c.do(func() {
			fs.Scan()
			c.flushRebuild()
		})
	}
}

// flushRebuild services a pending rebuild request right away. Outside Run
// requests are served inline, so there is nothing to flush.
func (c *Controller) flushRebuild() {
	select {
	case <-c.kick:
		c.rebuild()
	default:
	}
}

// rebuild refreshes the aggregate and view, then restores placements. A
// pending rebuild request is satisfied by this one.
func (c *Controller) rebuild() {
	select {
	case <-c.kick:
	default:
	}
	c.agg.Rebuild()
	c.view.Refresh()
	c.engine.SetItems(c.sortedKeys())

	persisted := map[string]layout.Point{}
	if c.usePersisted {
		persisted = c.store.Load()
	}
	// Placements made since the last save win over the file.
	for _, p := range c.engine.Placements(c.agg.Keys()) {
		if c.engine.Placed(p.Key) {
			persisted[p.Key] = p.Point
		}
	}
	c.engine.Restore(persisted, c.agg.Keys())
	c.rebuilds++

	c.logger.Debug("desktop rebuilt", "items", c.agg.Count(), "conflicts", len(c.engine.Conflicts()))
}

func (c *Controller) sortedKeys() []string {
	rows := c.view.Rows()
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = c.agg.Identity(row)
	}
	return keys
}

func (c *Controller) handleReordered(key sortview.Key, order sortview.Order) {
	c.engine.ClearPlacements()
	c.engine.SetItems(c.sortedKeys())
	c.usePersisted = false
	c.logger.Info("icons arranged", "by", key, "order", order)
}

func (c *Controller) save() bool {
	return c.store.Save(c.engine.Placements(c.agg.Keys()))
}

// Rebuild re-reads all providers immediately.
func (c *Controller) Rebuild() {
	c.do(c.rebuild)
}

// Rescan re-reads every desktop directory and drops cached icons.
func (c *Controller) Rescan() {
	c.do(func() {
		c.icons.Invalidate()
		for _, fs := range c.dirs {
			fs.Scan()
		}
		c.flushRebuild()
	})
}

// SortBy arranges the icons by key, ascending.
func (c *Controller) SortBy(key sortview.Key) {
	c.do(func() { c.view.Resort(key) })
}

// Drop moves keys so that the first lands at p.
func (c *Controller) Drop(keys []string, p layout.Point) error {
	var err error
	c.do(func() {
		for _, k := range keys {
			if _, ok := c.agg.IndexOf(k); !ok {
				err = fmt.Errorf("%w: %s", ErrUnknownItem, k)
				return
			}
		}
		c.engine.Drop(keys, p)
	})
	return err
}

// SetSnap switches between snap and free placement. Going to snap saves the
// free layout first; going back to free restores it.
func (c *Controller) SetSnap(on bool) {
	c.do(func() { c.setSnap(on) })
}

// ToggleSnap flips between snap and free placement and returns the new
// setting.
func (c *Controller) ToggleSnap() bool {
	var on bool
	c.do(func() {
		on = c.engine.Mode() != layout.ModeSnap
		c.setSnap(on)
	})
	return on
}

func (c *Controller) setSnap(on bool) {
	target := layout.ModeFromSnap(on)
	if target != c.engine.Mode() {
		switch target {
		case layout.ModeSnap:
			c.save()
			c.engine.ClearPlacements()
			c.engine.SetMode(layout.ModeSnap)
		case layout.ModeFree:
			c.engine.SetMode(layout.ModeFree)
			c.engine.Restore(c.store.Load(), c.agg.Keys())
			c.usePersisted = true
		}
	}
	if c.cfg.Snap != on {
		c.cfg.Snap = on
		c.persistConfig()
	}
}

// SetIconSize changes the icon size and with it the grid cell.
func (c *Controller) SetIconSize(size int) error {
	if size < config.MinIconSize || size > config.MaxIconSize {
		return fmt.Errorf("icon size must be between %d and %d, got %d", config.MinIconSize, config.MaxIconSize, size)
	}
	c.do(func() {
		c.cfg.Icons.Size = size
		c.engine.SetCell(c.cfg.CellSize())
		c.icons.Invalidate()
		c.persistConfig()
	})
	return nil
}

// RefreshDisplay re-reads the primary display bounds.
func (c *Controller) RefreshDisplay() {
	c.do(func() { c.engine.SetArea(c.displayArea()) })
}

// Activate opens the item in its default application.
func (c *Controller) Activate(ctx context.Context, key string) error {
	var err error
	c.do(func() {
		if _, ok := c.agg.IndexOf(key); !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownItem, key)
		}
	})
	if err != nil {
		return err
	}
	target := OpenTarget(key)
	if err := c.opener.Open(ctx, target); err != nil {
		c.logger.Warn("failed to open item", "key", key, "error", err)
		return err
	}
	return nil
}

// Save writes the current placements. It reports whether the write
// succeeded.
func (c *Controller) Save() bool {
	var ok bool
	c.do(func() { ok = c.save() })
	return ok
}

// Snapshot returns the desktop state in presentation order.
func (c *Controller) Snapshot() State {
	var st State
	c.do(func() { st = c.snapshot() })
	return st
}

func (c *Controller) snapshot() State {
	size := c.cfg.IconSize()
	st := State{
		Mode:      c.engine.Mode().String(),
		SortKey:   c.view.Key().String(),
		SortOrder: c.view.Order().String(),
		Sorted:    c.view.Sorted(),
		Cell:      c.engine.Cell(),
		Area:      c.engine.Area(),
		IconSize:  size,
		Conflicts: c.engine.Conflicts(),
		Rebuilds:  c.rebuilds,
		Uptime:    time.Since(c.started),
	}
	for _, row := range c.view.Rows() {
		item, ok := c.agg.Item(row)
		if !ok {
			continue
		}
		pos, _ := c.engine.Position(item.Key)
		v := IconView{
			Key:      item.Key,
			Name:     item.Name,
			Kind:     item.Kind.String(),
			Mime:     item.Mime,
			Size:     item.Size,
			Position: pos,
			Placed:   c.engine.Placed(item.Key),
			Icon:     c.icons.Icon(item, size),
		}
		if item.HasModTime {
			t := item.ModTime
			v.ModTime = &t
		}
		st.Icons = append(st.Icons, v)
	}
	return st
}

func (c *Controller) persistConfig() {
	if err := c.saveConfig(c.cfg); err != nil {
		c.logger.Warn("failed to save settings", "error", err)
	}
}
