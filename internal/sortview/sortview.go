// Package sortview exposes the aggregated desktop items permuted by a sort
// key, without touching provider storage.
package sortview

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key selects the comparator.
type Key int

const (
	ByName Key = iota
	ByType
	BySize
	ByDate
)

// String returns the string representation of the key
func (k Key) String() string {
	switch k {
	case ByName:
		return "name"
	case ByType:
		return "type"
	case BySize:
		return "size"
	case ByDate:
		return "date"
	default:
		return "unknown"
	}
}

// ParseKey parses "name", "type", "size" or "date".
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ByName, nil
	case "type", "item-type", "mime":
		return ByType, nil
	case "size":
		return BySize, nil
	case "date", "modified", "date-modified":
		return ByDate, nil
	default:
		return ByName, fmt.Errorf("unknown sort key %q (expected name, type, size or date)", s)
	}
}

// Order is the sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// ReorderFunc is notified after every explicit sort.
type ReorderFunc func(key Key, order Order)

// Projection is a sorted view over a Source.
type Projection struct {
	src      Source
	logger   *slog.Logger
	collator *collate.Collator

	key   Key
	order Order
	rows  []int
	// sorted is false until the first explicit sort; rows then follow
	// aggregate order.
	sorted bool

	onReordered []ReorderFunc
}

// New creates a projection over src. locale selects the collation used for
// name comparisons; an unparseable locale falls back to English.
func New(src Source, locale string, logger *slog.Logger) *Projection {
	if logger == nil {
		logger = slog.Default()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("invalid sort locale, using en", "locale", locale, "error", err)
		tag = language.English
	}
	p := &Projection{
		src:      src,
		logger:   logger,
		collator: collate.New(tag, collate.Loose, collate.Numeric),
	}
	p.Refresh()
	return p
}

// OnReordered registers a listener for explicit reorders.
func (p *Projection) OnReordered(fn ReorderFunc) {
	if fn != nil {
		p.onReordered = append(p.onReordered, fn)
	}
}

func (p *Projection) Key() Key     { return p.key }
func (p *Projection) Order() Order { return p.order }
func (p *Projection) Len() int     { return len(p.rows) }

// Sorted reports whether an explicit sort has been applied.
func (p *Projection) Sorted() bool { return p.sorted }

// Row returns the aggregate position of the i-th sorted row, or -1.
func (p *Projection) Row(i int) int {
	if i < 0 || i >= len(p.rows) {
		return -1
	}
	return p.rows[i]
}

// Rows returns a copy of the sorted aggregate positions.
func (p *Projection) Rows() []int {
	return append([]int(nil), p.rows...)
}

// Refresh rebuilds the row mapping after the source changed, keeping the
// active key and order. It does not signal a reorder.
func (p *Projection) Refresh() {
	n := p.src.Count()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	p.rows = rows
	if p.sorted {
		p.apply()
	}
}

// Sort orders the rows by key in the given direction and signals a reorder.
func (p *Projection) Sort(key Key, order Order) {
	p.key = key
	p.order = order
	p.sorted = true
	p.Refresh()

	p.logger.Debug("sorted", "key", key, "order", order, "rows", len(p.rows))
	for _, fn := range p.onReordered {
		fn(key, order)
	}
}

// Resort is the "sort by" action: an ascending sort by key with exactly one
// reorder signal. The final order is that of Sort(key, Ascending).
func (p *Projection) Resort(key Key) {
	p.Sort(key, Ascending)
}

func (p *Projection) apply() {
	slices.SortFunc(p.rows, func(a, b int) int {
		c := p.Compare(a, b)
		if p.order == Descending {
			return -c
		}
		return c
	})
}

// Compare orders two aggregate positions by the active key. Ties fall back to
// the identity key and then the aggregate position, so the result is a total
// order.
func (p *Projection) Compare(a, b int) int {
	var c int
	switch p.key {
	case ByName:
		c = p.collator.CompareString(p.src.Name(a), p.src.Name(b))
	case ByType:
		c = strings.Compare(p.src.MimeType(a), p.src.MimeType(b))
	case BySize:
		c = compareInt64(p.src.Size(a), p.src.Size(b))
	case ByDate:
		ta, _ := p.src.LastModified(a)
		tb, _ := p.src.LastModified(b)
		// Missing timestamps are the zero time, i.e. the earliest instant.
		c = ta.Compare(tb)
	}
	if c != 0 {
		return c
	}
	if c = strings.Compare(p.src.Identity(a), p.src.Identity(b)); c != 0 {
		return c
	}
	return compareInt64(int64(a), int64(b))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
