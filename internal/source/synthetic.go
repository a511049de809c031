package source

import (
	"os"
	"path/filepath"
	"time"
)

// Well-known synthetic identity keys.
const (
	PCID    = "::{20D04FE0-3AEA-1069-A2D8-08002B30309D}"
	TrashID = "::{645FF040-5081-101B-9F08-00AA002F954E}"
)

// Sentinel sizes for the special items. They sort ahead of any real file when
// ordering by size.
const (
	SizePC        int64 = -100
	SizeDocuments int64 = -90
	SizeTrash     int64 = -80
)

// SpecialItems selects which synthetic entries are shown.
type SpecialItems struct {
	PC        bool
	Trash     bool
	Documents bool
}

// Synthetic is a fixed-cardinality provider of special desktop entries.
type Synthetic struct {
	notifier
	items snapshot
}

var _ Provider = (*Synthetic)(nil)

// NewSynthetic creates a provider holding exactly the given entries.
func NewSynthetic(items ...Item) *Synthetic {
	s := &Synthetic{items: make(snapshot, 0, len(items))}
	for _, it := range items {
		it.Kind = KindSynthetic
		it.HasModTime = false
		it.ModTime = time.Time{}
		s.items = append(s.items, it)
	}
	return s
}

// NewSpecial builds the standard This PC / Trash / Documents provider.
func NewSpecial(which SpecialItems) *Synthetic {
	var items []Item
	if which.PC {
		items = append(items, Item{Key: PCID, Name: "This PC", Size: SizePC, Mime: "-100", IconName: "computer"})
	}
	if which.Trash {
		items = append(items, Item{Key: TrashID, Name: "Trash", Size: SizeTrash, Mime: "-80", IconName: "user-trash"})
	}
	if which.Documents {
		items = append(items, Item{Key: DocumentsDir(), Name: "Documents", Size: SizeDocuments, Mime: "-90", IconName: "folder-documents"})
	}
	return NewSynthetic(items...)
}

// DocumentsDir returns the user's documents directory, honouring
// XDG_DOCUMENTS_DIR when set.
func DocumentsDir() string {
	if dir := os.Getenv("XDG_DOCUMENTS_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "Documents"
	}
	return filepath.Join(home, "Documents")
}

func (s *Synthetic) Name() string { return "special" }
func (s *Synthetic) Kind() Kind   { return KindSynthetic }
func (s *Synthetic) Count() int   { return len(s.items) }

func (s *Synthetic) Item(i int) (Item, bool) { return s.items.item(i) }

func (s *Synthetic) Identity(i int) string {
	it, _ := s.items.item(i)
	return it.Key
}

func (s *Synthetic) DisplayName(i int) string {
	it, _ := s.items.item(i)
	return it.Name
}

func (s *Synthetic) Size(i int) int64 {
	it, ok := s.items.item(i)
	if !ok {
		return SizeUnknown
	}
	return it.Size
}

// LastModified is never available for synthetic items.
func (s *Synthetic) LastModified(int) (time.Time, bool) { return time.Time{}, false }

func (s *Synthetic) MimeType(i int) string {
	it, _ := s.items.item(i)
	return it.Mime
}
