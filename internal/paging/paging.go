package paging

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLimit is returned for a limit that is not a positive integer.
	ErrInvalidLimit = errors.New("paging: limit must be a positive integer")

	// ErrInvalidCursor is returned when a wire cursor cannot be decoded.
	ErrInvalidCursor = errors.New("paging: malformed cursor")
)

// Info is a page request. Cursor is the raw key to resume after ("" starts
// from the beginning). Limit 0 means the backend default.
type Info struct {
	Cursor string
	Limit  int
}

// Validate rejects negative limits.
func (i Info) Validate() error {
	if i.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, i.Limit)
	}
	return nil
}

// Bounded reports whether the request carries an explicit limit.
func (i Info) Bounded() bool {
	return i.Limit > 0
}

// WithDefaultLimit returns i with Limit set to n when no limit was given.
func (i Info) WithDefaultLimit(n int) Info {
	if i.Limit <= 0 {
		i.Limit = n
	}
	return i
}

// Result is one page of items. NextCursor is "" on the last page.
type Result[T any] struct {
	NextCursor string
	Items      []T
}

// HasMore reports whether another page follows.
func (r Result[T]) HasMore() bool {
	return r.NextCursor != ""
}

// Map converts the items of a page, keeping its cursor.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{NextCursor: r.NextCursor, Items: make([]U, 0, len(r.Items))}
	for _, item := range r.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
