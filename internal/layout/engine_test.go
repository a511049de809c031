package layout

import "testing"

var testCell = Size{W: 82, H: 106}

func newTestEngine(mode Mode, area Size, keys ...string) *Engine {
	e := NewEngine(mode, testCell, area, nil)
	e.SetItems(keys)
	return e
}

func TestEngine_ImplicitSlotsWrapAtDisplayWidth(t *testing.T) {
	e := newTestEngine(ModeSnap, Size{W: 200, H: 600}, "a", "b", "c")

	want := map[string]Point{
		"a": {0, 0},
		"b": {82, 0},
		"c": {0, 106},
	}
	for k, p := range want {
		got, ok := e.Position(k)
		if !ok || got != p {
			t.Fatalf("Position(%s) = %v,%v, want %v", k, got, ok, p)
		}
	}
	if _, ok := e.Position("missing"); ok {
		t.Fatalf("expected unknown key to have no position")
	}
}

func TestEngine_ItemAt(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a", "b")

	if k, ok := e.ItemAt(Point{X: 90, Y: 50}); !ok || k != "b" {
		t.Fatalf("expected b at 90,50, got %q,%v", k, ok)
	}
	if _, ok := e.ItemAt(Point{X: 500, Y: 500}); ok {
		t.Fatalf("expected no item at 500,500")
	}
}

func TestEngine_DropFreeKeepsExactPoint(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a", "b")

	e.Drop([]string{"a", "b"}, Point{X: 10, Y: 20})

	if p, _ := e.Position("a"); p != (Point{X: 10, Y: 20}) {
		t.Fatalf("expected a at 10,20, got %v", p)
	}
	// b keeps its offset from a.
	if p, _ := e.Position("b"); p != (Point{X: 92, Y: 20}) {
		t.Fatalf("expected b at 92,20, got %v", p)
	}
	if !e.Placed("a") || !e.Placed("b") {
		t.Fatalf("expected both items to be placed")
	}
}

func TestEngine_DropSnapRoundsToCell(t *testing.T) {
	e := newTestEngine(ModeSnap, Size{W: 820, H: 600}, "a", "b")

	e.Drop([]string{"a", "b"}, Point{X: 10, Y: 20})

	if p, _ := e.Position("a"); p != (Point{X: 0, Y: 0}) {
		t.Fatalf("expected a at 0,0, got %v", p)
	}
	if p, _ := e.Position("b"); p != (Point{X: 82, Y: 0}) {
		t.Fatalf("expected b at 82,0, got %v", p)
	}

	e.Drop([]string{"a"}, Point{X: 130, Y: 170})
	if p, _ := e.Position("a"); p != (Point{X: 164, Y: 212}) {
		t.Fatalf("expected a at 164,212, got %v", p)
	}
}

func TestEngine_ClearPlacementsRevertsToSlots(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a")
	e.Place("a", Point{X: 300, Y: 300})
	e.ClearPlacements()

	if e.Placed("a") {
		t.Fatalf("expected a to have no explicit placement")
	}
	if p, _ := e.Position("a"); p != (Point{}) {
		t.Fatalf("expected a back at its slot, got %v", p)
	}
}

func TestEngine_RestoreOverlapMovesLaterItem(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a", "b")
	shared := Point{X: 164, Y: 0}

	conflicts := e.Restore(map[string]Point{"a": shared, "b": shared}, []string{"a", "b"})
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}

	if p, _ := e.Position("a"); p != shared {
		t.Fatalf("expected a to keep %v, got %v", shared, p)
	}
	pb, _ := e.Position("b")
	if pb == shared {
		t.Fatalf("expected b to be relocated off %v", shared)
	}
	if pb != (Point{X: 0, Y: 0}) {
		t.Fatalf("expected b in the first free cell 0,0, got %v", pb)
	}
}

func TestEngine_RestoreKeepsNonOverlappingPoints(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a", "b")
	persisted := map[string]Point{"a": {X: 400, Y: 300}, "b": {X: 17, Y: 5}}

	e.Restore(persisted, []string{"a", "b"})

	for k, want := range persisted {
		if got, _ := e.Position(k); got != want {
			t.Fatalf("expected %s at %v, got %v", k, want, got)
		}
	}
}

func TestEngine_RestoreRecordsConflictWhenDisplayIsFull(t *testing.T) {
	// Room for exactly one cell.
	e := newTestEngine(ModeFree, testCell, "a", "b")
	origin := Point{}

	conflicts := e.Restore(map[string]Point{"a": origin, "b": origin}, []string{"a", "b"})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %v", conflicts)
	}
	c := conflicts[0]
	if c.Key != "b" || c.OccupiedBy != "a" || c.At != origin {
		t.Fatalf("unexpected conflict %+v", c)
	}
	if p, _ := e.Position("b"); p != origin {
		t.Fatalf("expected b to keep the conflicting point, got %v", p)
	}
}

func TestEngine_RestoreIgnoresUnknownKeys(t *testing.T) {
	e := newTestEngine(ModeFree, Size{W: 820, H: 600}, "a")

	e.Restore(map[string]Point{"gone": {X: 10, Y: 10}}, []string{"a"})

	placements := e.Placements([]string{"a", "gone"})
	if len(placements) != 1 || placements[0].Key != "a" {
		t.Fatalf("expected only a in placements, got %v", placements)
	}
}
