package display

import "testing"

func TestStatic_PrimaryDisplay(t *testing.T) {
	s := NewStatic(1280, 720)

	d, err := s.PrimaryDisplay()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Bounds.Width != 1280 || d.Bounds.Height != 720 || !d.Primary {
		t.Fatalf("unexpected display %+v", d)
	}
	all, err := s.Displays()
	if err != nil || len(all) != 1 {
		t.Fatalf("expected one display, got %v %v", all, err)
	}
}

func TestStatic_EmptyAreaErrors(t *testing.T) {
	s := NewStatic(0, 0)
	if _, err := s.PrimaryDisplay(); err == nil {
		t.Fatalf("expected error for empty display")
	}
}
