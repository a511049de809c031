// Package aggregate flattens several source providers into one addressable
// list of desktop items.
package aggregate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/deskgrid/internal/source"
)

// Ref points at one row of one provider.
type Ref struct {
	Provider source.Provider
	Local    int
}

// Valid reports whether the reference points at a provider.
func (r Ref) Valid() bool { return r.Provider != nil && r.Local >= 0 }

// Aggregator concatenates the rows of its providers in insertion order.
type Aggregator struct {
	logger    *slog.Logger
	providers []source.Provider

	mu       sync.RWMutex
	index    []Ref
	byKey    map[string]int
	onLoaded []func()
}

// New creates an empty aggregator.
func New(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Add appends a provider. Providers added earlier come first.
func (a *Aggregator) Add(p source.Provider) {
	if p == nil {
		return
	}
	a.mu.Lock()
	a.providers = append(a.providers, p)
	a.mu.Unlock()
}

// Providers returns the registered providers in priority order.
func (a *Aggregator) Providers() []source.Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]source.Provider(nil), a.providers...)
}

// OnLoaded registers a listener invoked after every Rebuild.
func (a *Aggregator) OnLoaded(fn func()) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.onLoaded = append(a.onLoaded, fn)
	a.mu.Unlock()
}

// Rebuild re-reads every provider and swaps in a fresh index. Readers see
// either the old index or the new one, never a partial build.
func (a *Aggregator) Rebuild() {
	providers := a.Providers()

	index := make([]Ref, 0, 64)
	byKey := make(map[string]int)
	for _, p := range providers {
		n := p.Count()
		for i := 0; i < n; i++ {
			key := p.Identity(i)
			if _, dup := byKey[key]; !dup {
				byKey[key] = len(index)
			}
			index = append(index, Ref{Provider: p, Local: i})
		}
	}

	a.mu.Lock()
	a.index = index
	a.byKey = byKey
	listeners := append([]func(){}, a.onLoaded...)
	a.mu.Unlock()

	a.logger.Debug("aggregate rebuilt", "providers", len(providers), "items", len(index))

	for _, fn := range listeners {
		fn()
	}
}

// Count returns the number of rows in the current index.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.index)
}

// Resolve maps an aggregate position to its provider row. It returns false
// when i is out of bounds or the index is empty.
func (a *Aggregator) Resolve(i int) (Ref, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.index) == 0 || i < 0 || i >= len(a.index) {
		return Ref{}, false
	}
	return a.index[i], true
}

// IndexOf returns the current position of the first row with the given
// identity key.
func (a *Aggregator) IndexOf(key string) (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.byKey[key]
	return i, ok
}

// Item returns the full item at position i.
func (a *Aggregator) Item(i int) (source.Item, bool) {
	ref, ok := a.Resolve(i)
	if !ok {
		return source.Item{}, false
	}
	return ref.Provider.Item(ref.Local)
}

func (a *Aggregator) Name(i int) string {
	ref, ok := a.Resolve(i)
	if !ok {
		return ""
	}
	return ref.Provider.DisplayName(ref.Local)
}

func (a *Aggregator) Identity(i int) string {
	ref, ok := a.Resolve(i)
	if !ok {
		return ""
	}
	return ref.Provider.Identity(ref.Local)
}

func (a *Aggregator) MimeType(i int) string {
	ref, ok := a.Resolve(i)
	if !ok {
		return ""
	}
	return ref.Provider.MimeType(ref.Local)
}

// Size returns -1 for unresolvable rows.
func (a *Aggregator) Size(i int) int64 {
	ref, ok := a.Resolve(i)
	if !ok {
		return source.SizeUnknown
	}
	return ref.Provider.Size(ref.Local)
}

// LastModified reports false when the row has no timestamp.
func (a *Aggregator) LastModified(i int) (time.Time, bool) {
	ref, ok := a.Resolve(i)
	if !ok {
		return time.Time{}, false
	}
	return ref.Provider.LastModified(ref.Local)
}

// Keys returns the identity keys in aggregate order.
func (a *Aggregator) Keys() []string {
	a.mu.RLock()
	index := a.index
	a.mu.RUnlock()

	keys := make([]string, len(index))
	for i, ref := range index {
		keys[i] = ref.Provider.Identity(ref.Local)
	}
	return keys
}
