package paging

import "sort"

// Ascender iterates an ordered key space strictly after a key, calling fn
// for each item in ascending order until fn returns false. An empty after
// starts from the first item.
type Ascender[T any] interface {
	AscendAfter(after string, fn func(item T) bool)
}

// Successor pages through src. Items rejected by keep are skipped; a nil
// keep accepts everything. NextCursor is the key of the last returned item
// and is only set when another accepted item exists after it.
func Successor[T any](src Ascender[T], info Info, keep func(T) bool, key func(T) string) Result[T] {
	var items []T
	next := ""

	src.AscendAfter(info.Cursor, func(item T) bool {
		if keep != nil && !keep(item) {
			return true
		}
		if info.Bounded() && len(items) == info.Limit {
			next = key(items[len(items)-1])
			return false
		}
		items = append(items, item)
		return true
	})

	if items == nil {
		items = []T{}
	}
	return Result[T]{NextCursor: next, Items: items}
}

// Slice pages through a slice already sorted by key.
func Slice[T any](sorted []T, info Info, key func(T) string) Result[T] {
	return Successor[T](sortedSlice[T]{items: sorted, key: key}, info, nil, key)
}

type sortedSlice[T any] struct {
	items []T
	key   func(T) string
}

func (s sortedSlice[T]) AscendAfter(after string, fn func(T) bool) {
	start := 0
	if after != "" {
		start = sort.Search(len(s.items), func(i int) bool {
			return s.key(s.items[i]) > after
		})
	}
	for _, item := range s.items[start:] {
		if !fn(item) {
			return
		}
	}
}
