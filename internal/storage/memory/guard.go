package memory

import (
	"sync"

	"github.com/google/btree"
)

// btreeDegree is the branching factor of the sorted key index.
const btreeDegree = 32

// View is the read-only side of an Index handed to Guard.Read callbacks.
type View[T any] interface {
	Get(key string) (T, bool)
	Len() int
	AscendAfter(after string, fn func(item T) bool)
}

// Index pairs a sorted key index with a key→item lookup map. Both always
// hold the same key set; every mutation goes through Put or Remove.
type Index[T any] struct {
	sorted *btree.BTreeG[string]
	lookup map[string]T
	key    func(T) string
}

func newIndex[T any](key func(T) string) *Index[T] {
	return &Index[T]{
		sorted: btree.NewOrderedG[string](btreeDegree),
		lookup: make(map[string]T),
		key:    key,
	}
}

// Get returns the item stored under key.
func (ix *Index[T]) Get(key string) (T, bool) {
	item, ok := ix.lookup[key]
	return item, ok
}

// Len returns the number of stored items.
func (ix *Index[T]) Len() int {
	return len(ix.lookup)
}

// AscendAfter calls fn for every item whose key sorts strictly after
// after, in ascending key order, until fn returns false.
func (ix *Index[T]) AscendAfter(after string, fn func(item T) bool) {
	visit := func(k string) bool {
		return fn(ix.lookup[k])
	}
	if after == "" {
		ix.sorted.Ascend(visit)
		return
	}
	ix.sorted.AscendGreaterOrEqual(after, func(k string) bool {
		if k == after {
			return true
		}
		return visit(k)
	})
}

// Put inserts or replaces item.
func (ix *Index[T]) Put(item T) {
	k := ix.key(item)
	ix.sorted.ReplaceOrInsert(k)
	ix.lookup[k] = item
}

// Remove deletes the item stored under key.
func (ix *Index[T]) Remove(key string) (T, bool) {
	item, ok := ix.lookup[key]
	if !ok {
		return item, false
	}
	ix.sorted.Delete(key)
	delete(ix.lookup, key)
	return item, true
}

// keys returns every key in ascending order.
func (ix *Index[T]) keys() []string {
	out := make([]string, 0, ix.sorted.Len())
	ix.sorted.Ascend(func(k string) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Guard serialises access to an Index with a reader/writer lock. Any
// number of Read callbacks run concurrently; Write and Clear are exclusive.
type Guard[T any] struct {
	mu    sync.RWMutex
	index *Index[T]
}

// NewGuard returns a Guard over an empty index keyed by key.
func NewGuard[T any](key func(T) string) *Guard[T] {
	return &Guard[T]{index: newIndex(key)}
}

// Read runs fn under the shared lock.
func (g *Guard[T]) Read(fn func(v View[T])) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.index)
}

// Write runs fn under the exclusive lock and returns its error.
func (g *Guard[T]) Write(fn func(ix *Index[T]) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.index)
}

// Clear empties both indexes in one exclusive section and returns the
// removed keys in ascending order.
func (g *Guard[T]) Clear() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := g.index.keys()
	g.index.sorted.Clear(false)
	g.index.lookup = make(map[string]T)
	return removed
}
