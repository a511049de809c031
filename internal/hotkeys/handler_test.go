package hotkeys

import (
	"errors"
	"reflect"
	"testing"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/display"
	"github.com/1broseidon/deskgrid/internal/sortview"
)

type fakeDesktop struct {
	sorts   []sortview.Key
	toggles int
	rescans int
}

func (d *fakeDesktop) SortBy(key sortview.Key) { d.sorts = append(d.sorts, key) }
func (d *fakeDesktop) ToggleSnap() bool        { d.toggles++; return d.toggles%2 == 1 }
func (d *fakeDesktop) Rescan()                 { d.rescans++ }

func TestActionFunc_Arrange(t *testing.T) {
	tests := map[string]sortview.Key{
		config.ActionArrangeName: sortview.ByName,
		config.ActionArrangeType: sortview.ByType,
		config.ActionArrangeSize: sortview.BySize,
		config.ActionArrangeDate: sortview.ByDate,
	}
	for action, want := range tests {
		desk := &fakeDesktop{}
		fn, err := ActionFunc(desk, action)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", action, err)
		}
		fn()
		if len(desk.sorts) != 1 || desk.sorts[0] != want {
			t.Fatalf("%s: expected sort by %v, got %v", action, want, desk.sorts)
		}
	}
}

func TestActionFunc_ToggleAndRescan(t *testing.T) {
	desk := &fakeDesktop{}

	toggle, err := ActionFunc(desk, config.ActionToggleSnap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	toggle()
	toggle()
	if desk.toggles != 2 {
		t.Fatalf("expected 2 toggles, got %d", desk.toggles)
	}

	rescan, err := ActionFunc(desk, config.ActionRescan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rescan()
	if desk.rescans != 1 || len(desk.sorts) != 0 {
		t.Fatalf("unexpected calls: rescans=%d sorts=%v", desk.rescans, desk.sorts)
	}
}

func TestActionFunc_EveryConfigActionIsBound(t *testing.T) {
	for _, action := range config.HotkeyActions {
		if _, err := ActionFunc(&fakeDesktop{}, action); err != nil {
			t.Fatalf("action %q has no binding: %v", action, err)
		}
	}
	if _, err := ActionFunc(&fakeDesktop{}, "explode"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestNewHandler_RequiresX11(t *testing.T) {
	_, err := NewHandler(display.NewStatic(800, 600), &fakeDesktop{})
	if !errors.Is(err, ErrNoX11) {
		t.Fatalf("expected ErrNoX11, got %v", err)
	}
}

func TestLockCombinations(t *testing.T) {
	got := lockCombinations([]uint16{2, 16})
	want := []uint16{0, 2, 16, 18}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := lockCombinations(nil); !reflect.DeepEqual(got, []uint16{0}) {
		t.Fatalf("expected only the empty mask, got %v", got)
	}
}
