// Package source provides the leaf data sources that contribute desktop
// icons: filesystem directories and a fixed list of special items.
package source

import (
	"sync"
	"time"
)

// Kind distinguishes the capability set behind an item.
type Kind int

const (
	// KindFilesystem items are backed by a path on disk.
	KindFilesystem Kind = iota
	// KindSynthetic items are special entries (This PC, Trash, ...) with
	// sentinel metadata.
	KindSynthetic
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// Item is one logical desktop icon.
type Item struct {
	Key        string // identity key: absolute path or synthetic id
	Name       string
	Size       int64 // negative for synthetic items
	ModTime    time.Time
	HasModTime bool
	Mime       string
	Kind       Kind
	IconName   string // only set by providers that know their icon up front
}

// Provider is a data source contributing rows to the desktop.
//
// Every accessor must return an empty or sentinel value for an index that is
// out of range rather than fail.
type Provider interface {
	Name() string
	Kind() Kind
	Count() int
	Item(i int) (Item, bool)
	Identity(i int) string
	DisplayName(i int) string
	Size(i int) int64
	LastModified(i int) (time.Time, bool)
	MimeType(i int) string
	OnChange(fn func())
}

// SizeUnknown is returned by Size for rows that cannot be resolved.
const SizeUnknown int64 = -1

// notifier fans a "content changed" signal out to registered listeners.
type notifier struct {
	mu        sync.Mutex
	listeners []func()
}

func (n *notifier) OnChange(fn func()) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

func (n *notifier) notify() {
	n.mu.Lock()
	listeners := append([]func(){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// snapshot implements the per-index accessors over a fixed item slice.
type snapshot []Item

func (s snapshot) item(i int) (Item, bool) {
	if i < 0 || i >= len(s) {
		return Item{}, false
	}
	return s[i], true
}
