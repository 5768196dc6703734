package shared

import "context"

// Filter contains common list parameters
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]interface{}
}

// NewFilter creates a filter with sane defaults
func NewFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated wraps a page of results with its total count
type Paginated[T any] struct {
	Items      []T
	TotalCount int64
	Page       int
	PageSize   int
}

// TxManager runs a function inside a single database transaction. The
// context passed to fn carries the transaction; repositories resolve it
// from there so every operation's reads, writes and audit inserts commit
// or roll back together.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
