package desktop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/display"
	"github.com/1broseidon/deskgrid/internal/layout"
	"github.com/1broseidon/deskgrid/internal/positions"
	"github.com/1broseidon/deskgrid/internal/sortview"
	"github.com/1broseidon/deskgrid/internal/source"
)

type fakeOpener struct {
	mu      sync.Mutex
	targets []string
	err     error
}

func (o *fakeOpener) Open(_ context.Context, target string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.targets = append(o.targets, target)
	return o.err
}

type fixture struct {
	ctrl   *Controller
	dir    *source.Filesystem
	store  *positions.Store
	opener *fakeOpener
	cfg    *config.Config
	saves  int
}

// newFixture builds a controller over a temp desktop holding a.txt (10
// bytes), b.txt (5) and c.txt (20), plus This PC and Trash, on an 820x600
// display (ten 82px columns).
func newFixture(t *testing.T, snap bool) *fixture {
	t.Helper()
	root := t.TempDir()
	for name, size := range map[string]int{"a.txt": 10, "b.txt": 5, "c.txt": 20} {
		if err := os.WriteFile(filepath.Join(root, name), make([]byte, size), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Snap = snap

	f := &fixture{
		dir:    source.NewFilesystem(root, nil),
		store:  positions.NewStore(filepath.Join(t.TempDir(), "positions.dat"), nil),
		opener: &fakeOpener{},
		cfg:    cfg,
	}
	ctrl, err := New(Options{
		Config:  cfg,
		Display: display.NewStatic(820, 600),
		Store:   f.store,
		Opener:  f.opener,
		Providers: []source.Provider{
			f.dir,
			source.NewSpecial(source.SpecialItems{PC: true, Trash: true}),
		},
		SaveConfig: func(*config.Config) error {
			f.saves++
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	f.ctrl = ctrl
	return f
}

func (f *fixture) key(name string) string {
	return filepath.Join(f.dir.Root(), name)
}

func positionOf(t *testing.T, st State, key string) IconView {
	t.Helper()
	for _, ic := range st.Icons {
		if ic.Key == key {
			return ic
		}
	}
	t.Fatalf("icon %q not in snapshot", key)
	return IconView{}
}

func TestController_RescanPopulatesGrid(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	st := f.ctrl.Snapshot()
	if len(st.Icons) != 5 {
		t.Fatalf("expected 5 icons, got %d", len(st.Icons))
	}
	if st.Mode != "snap" || st.Sorted {
		t.Fatalf("unexpected state mode=%s sorted=%v", st.Mode, st.Sorted)
	}
	if st.Cell != (layout.Size{W: 82, H: 106}) {
		t.Fatalf("unexpected cell %v", st.Cell)
	}
	// Aggregate order: directory entries by name, then the special items.
	if st.Icons[0].Key != f.key("a.txt") || st.Icons[3].Key != source.PCID {
		t.Fatalf("unexpected order %v", st.Icons)
	}
	if p := positionOf(t, st, source.PCID).Position; p != (layout.Point{X: 246, Y: 0}) {
		t.Fatalf("expected This PC in slot 3, got %v", p)
	}
}

func TestController_SortBySizeArrangesGrid(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	if err := f.ctrl.Drop([]string{f.key("a.txt")}, layout.Point{X: 500, Y: 400}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.ctrl.SortBy(sortview.BySize)

	st := f.ctrl.Snapshot()
	want := []string{source.PCID, source.TrashID, f.key("b.txt"), f.key("a.txt"), f.key("c.txt")}
	for i, k := range want {
		if st.Icons[i].Key != k {
			t.Fatalf("position %d: expected %q, got %q", i, k, st.Icons[i].Key)
		}
		slot := layout.Point{X: i * 82, Y: 0}
		if st.Icons[i].Position != slot || st.Icons[i].Placed {
			t.Fatalf("expected %q in slot %v, got %v placed=%v", k, slot, st.Icons[i].Position, st.Icons[i].Placed)
		}
	}
	if !st.Sorted || st.SortKey != "size" || st.SortOrder != "ascending" {
		t.Fatalf("unexpected sort state %s %s %v", st.SortKey, st.SortOrder, st.Sorted)
	}
}

func TestController_DropSnapsInSnapMode(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	if err := f.ctrl.Drop([]string{f.key("b.txt")}, layout.Point{X: 130, Y: 170}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ic := positionOf(t, f.ctrl.Snapshot(), f.key("b.txt"))
	if ic.Position != (layout.Point{X: 164, Y: 212}) || !ic.Placed {
		t.Fatalf("expected b.txt snapped to 164,212, got %v", ic.Position)
	}

	if err := f.ctrl.Drop([]string{"/nowhere"}, layout.Point{}); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestController_FreeSnapFreeRoundTrip(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.Rescan()

	free := layout.Point{X: 301, Y: 207}
	if err := f.ctrl.Drop([]string{f.key("c.txt")}, free); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.ctrl.SetSnap(true)
	st := f.ctrl.Snapshot()
	if st.Mode != "snap" {
		t.Fatalf("expected snap mode, got %s", st.Mode)
	}
	if ic := positionOf(t, st, f.key("c.txt")); ic.Placed || ic.Position != (layout.Point{X: 164, Y: 0}) {
		t.Fatalf("expected c.txt back in its slot, got %v placed=%v", ic.Position, ic.Placed)
	}

	f.ctrl.SetSnap(false)
	st = f.ctrl.Snapshot()
	if ic := positionOf(t, st, f.key("c.txt")); ic.Position != free {
		t.Fatalf("expected c.txt restored to %v, got %v", free, ic.Position)
	}
	if f.saves != 2 || f.cfg.Snap {
		t.Fatalf("expected the snap setting to be persisted twice, got %d (snap=%v)", f.saves, f.cfg.Snap)
	}
}

func TestController_ToggleSnap(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	if on := f.ctrl.ToggleSnap(); on {
		t.Fatalf("expected toggle from snap to turn snap off")
	}
	if st := f.ctrl.Snapshot(); st.Mode != "free" {
		t.Fatalf("expected free mode, got %s", st.Mode)
	}
	if on := f.ctrl.ToggleSnap(); !on {
		t.Fatalf("expected second toggle to turn snap on")
	}
	if st := f.ctrl.Snapshot(); st.Mode != "snap" {
		t.Fatalf("expected snap mode, got %s", st.Mode)
	}
}

func TestController_RebuildRestoresSavedPositions(t *testing.T) {
	f := newFixture(t, false)
	saved := layout.Point{X: 500, Y: 300}
	f.store.Save([]layout.Placement{{Key: f.key("a.txt"), Point: saved}})

	f.ctrl.Rescan()

	if ic := positionOf(t, f.ctrl.Snapshot(), f.key("a.txt")); ic.Position != saved {
		t.Fatalf("expected a.txt at %v, got %v", saved, ic.Position)
	}
}

func TestController_RebuildAfterSortIgnoresSavedPositions(t *testing.T) {
	f := newFixture(t, false)
	f.store.Save([]layout.Placement{{Key: f.key("a.txt"), Point: layout.Point{X: 500, Y: 300}}})
	f.ctrl.Rescan()

	f.ctrl.SortBy(sortview.ByName)
	f.ctrl.Rebuild()

	if ic := positionOf(t, f.ctrl.Snapshot(), f.key("a.txt")); ic.Placed {
		t.Fatalf("expected a.txt to stay in the sorted grid, got %v", ic.Position)
	}
}

func TestController_SaveWritesCurrentPlacements(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.Rescan()
	f.ctrl.Drop([]string{f.key("a.txt")}, layout.Point{X: 10, Y: 500})

	if !f.ctrl.Save() {
		t.Fatalf("expected save to succeed")
	}
	got := f.store.Load()
	if len(got) != 5 {
		t.Fatalf("expected every icon to be saved, got %v", got)
	}
	if got[f.key("a.txt")] != (layout.Point{X: 10, Y: 500}) {
		t.Fatalf("unexpected saved point %v", got[f.key("a.txt")])
	}
}

func TestController_Activate(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	if err := f.ctrl.Activate(context.Background(), source.PCID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.ctrl.Activate(context.Background(), f.key("b.txt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.opener.targets) != 2 || f.opener.targets[0] != "computer:///" || f.opener.targets[1] != f.key("b.txt") {
		t.Fatalf("unexpected opened targets %v", f.opener.targets)
	}
	if err := f.ctrl.Activate(context.Background(), "/missing"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestController_SetIconSize(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.Rescan()

	if err := f.ctrl.SetIconSize(8); err == nil {
		t.Fatalf("expected error for tiny icon size")
	}
	if err := f.ctrl.SetIconSize(config.IconSizeLarge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := f.ctrl.Snapshot()
	if st.IconSize != 64 || st.Cell != (layout.Size{W: 98, H: 122}) {
		t.Fatalf("unexpected icon size %d cell %v", st.IconSize, st.Cell)
	}
}

// startRun runs ctrl in the background and waits until the loop owns it.
func startRun(t *testing.T, ctrl *Controller) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !ctrl.running.Load() {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("timed out waiting for Run to start")
		}
		time.Sleep(time.Millisecond)
	}
	if n := len(ctrl.Snapshot().Icons); n != 5 {
		cancel()
		t.Fatalf("expected 5 icons after the initial scan, got %d", n)
	}
	return cancel, done
}

func TestController_RunProcessesEventsAndSavesOnExit(t *testing.T) {
	f := newFixture(t, true)
	cancel, done := startRun(t, f.ctrl)

	if err := f.ctrl.Drop([]string{source.TrashID}, layout.Point{X: 400, Y: 300}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}

	got := f.store.Load()
	if got[source.TrashID] != (layout.Point{X: 410, Y: 318}) {
		t.Fatalf("expected Trash saved at its snapped point, got %v", got[source.TrashID])
	}

	// After Run returns operations execute inline.
	if len(f.ctrl.Snapshot().Icons) != 5 {
		t.Fatalf("expected snapshot to keep working after Run")
	}
}

func TestController_DirectoryChangeRebuildsBeforeSave(t *testing.T) {
	f := newFixture(t, true)
	cancel, done := startRun(t, f.ctrl)
	defer func() {
		cancel()
		<-done
	}()

	if err := os.WriteFile(f.key("aa.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write aa.txt: %v", err)
	}
	f.ctrl.dirChanged(f.dir)()

	if !f.ctrl.Save() {
		t.Fatalf("expected save to succeed")
	}
	got := f.store.Load()
	want := map[string]layout.Point{
		f.key("a.txt"):  {X: 0, Y: 0},
		f.key("aa.txt"): {X: 82, Y: 0},
		f.key("b.txt"):  {X: 164, Y: 0},
		f.key("c.txt"):  {X: 246, Y: 0},
		source.PCID:     {X: 328, Y: 0},
		source.TrashID:  {X: 410, Y: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d saved keys, got %v", len(want), got)
	}
	for k, p := range want {
		if got[k] != p {
			t.Fatalf("expected %s saved at %v, got %v", k, p, got[k])
		}
	}
	if len(f.ctrl.kick) != 0 {
		t.Fatalf("expected no rebuild left pending after the rescan")
	}
}

func TestController_RescanRebuildsInOneStep(t *testing.T) {
	f := newFixture(t, true)
	cancel, done := startRun(t, f.ctrl)
	defer func() {
		cancel()
		<-done
	}()

	if err := os.Remove(f.key("a.txt")); err != nil {
		t.Fatalf("failed to remove a.txt: %v", err)
	}
	f.ctrl.Rescan()

	var keys []string
	f.ctrl.do(func() { keys = f.ctrl.agg.Keys() })
	want := []string{f.key("b.txt"), f.key("c.txt"), source.PCID, source.TrashID}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}
}
