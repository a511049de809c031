package icons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/deskgrid/internal/source"
)

type countingResolver struct {
	calls int
}

func (r *countingResolver) Icon(item source.Item, size int) Icon {
	r.calls++
	return Icon{Name: IconName(item)}
}

func TestIconName(t *testing.T) {
	tests := []struct {
		item source.Item
		want string
	}{
		{source.Item{Key: source.PCID}, "computer"},
		{source.Item{Key: source.TrashID}, "user-trash"},
		{source.Item{Mime: "inode/directory"}, "folder"},
		{source.Item{Mime: "image/png"}, "image-x-generic"},
		{source.Item{Mime: "application/zip"}, "package-x-generic"},
		{source.Item{Mime: "application/pdf"}, "x-office-document"},
		{source.Item{Mime: "application/octet-stream"}, "unknown"},
		{source.Item{IconName: "folder-documents", Mime: "-90"}, "folder-documents"},
	}
	for _, tc := range tests {
		if got := IconName(tc.item); got != tc.want {
			t.Fatalf("IconName(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}

func TestThemeResolver_FindsSizedThenScalable(t *testing.T) {
	root := t.TempDir()
	sized := filepath.Join(root, "hicolor", "48x48", "places", "folder.png")
	scalable := filepath.Join(root, "hicolor", "scalable", "devices", "computer.svg")
	for _, p := range []string{sized, scalable} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatalf("failed to write icon: %v", err)
		}
	}

	r := NewThemeResolver("", []string{root})

	if got := r.Icon(source.Item{Mime: "inode/directory"}, 48); got.Path != sized {
		t.Fatalf("expected %q, got %+v", sized, got)
	}
	if got := r.Icon(source.Item{Key: source.PCID}, 48); got.Path != scalable {
		t.Fatalf("expected %q, got %+v", scalable, got)
	}
	got := r.Icon(source.Item{Mime: "image/png"}, 48)
	if !got.Empty() || got.Name != "image-x-generic" {
		t.Fatalf("expected a named but empty icon, got %+v", got)
	}
}

func TestCache_MemoizesUntilInvalidated(t *testing.T) {
	r := &countingResolver{}
	c := NewCache(r)
	item := source.Item{Key: "/d/a.txt", Mime: "text/plain", ModTime: time.Unix(100, 0), HasModTime: true}

	c.Icon(item, 48)
	c.Icon(item, 48)
	if r.calls != 1 {
		t.Fatalf("expected 1 resolver call, got %d", r.calls)
	}

	c.Icon(item, 64)
	item.ModTime = time.Unix(200, 0)
	c.Icon(item, 48)
	if r.calls != 3 {
		t.Fatalf("expected size and mtime changes to miss, got %d calls", r.calls)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}

	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Invalidate")
	}
	c.Icon(item, 48)
	if r.calls != 4 {
		t.Fatalf("expected a miss after Invalidate, got %d calls", r.calls)
	}
}
