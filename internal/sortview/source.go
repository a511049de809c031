package sortview

import "time"

// Source is the row data a Projection sorts. *aggregate.Aggregator
// satisfies it.
type Source interface {
	Count() int
	Name(i int) string
	Identity(i int) string
	MimeType(i int) string
	Size(i int) int64
	LastModified(i int) (time.Time, bool)
}
