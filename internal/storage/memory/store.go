// Package memory is the in-process shell backend.
//
// Shells live in a Guard-protected Index: a btree of IDs for ordered
// iteration plus a map for point lookups. Listings use successor
// pagination directly over the btree, so a page costs O(log n + k) plus
// whatever the filter skips.
package memory

import (
	"context"
	"fmt"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

// Store keeps shells in memory.
type Store struct {
	guard *Guard[*shell.Shell]
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{guard: NewGuard(storage.Key)}
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "memory"
}

// Get returns a copy of the shell stored under id.
func (s *Store) Get(_ context.Context, id string) (*shell.Shell, error) {
	var found *shell.Shell
	s.guard.Read(func(v View[*shell.Shell]) {
		if item, ok := v.Get(id); ok {
			found = item.DeepCopy()
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %s", shell.ErrNotFound, id)
	}
	return found, nil
}

// Insert stores a copy of sh.
func (s *Store) Insert(_ context.Context, sh *shell.Shell) error {
	stored := sh.DeepCopy()
	return s.guard.Write(func(ix *Index[*shell.Shell]) error {
		if _, ok := ix.Get(stored.ID); ok {
			return fmt.Errorf("%w: %s", shell.ErrExists, stored.ID)
		}
		ix.Put(stored)
		return nil
	})
}

// Update replaces the shell stored under id.
func (s *Store) Update(_ context.Context, id string, sh *shell.Shell) error {
	if sh.ID != id {
		return fmt.Errorf("%w: %q != %q", shell.ErrIDMismatch, sh.ID, id)
	}
	stored := sh.DeepCopy()
	return s.guard.Write(func(ix *Index[*shell.Shell]) error {
		if _, ok := ix.Get(id); !ok {
			return fmt.Errorf("%w: %s", shell.ErrNotFound, id)
		}
		ix.Put(stored)
		return nil
	})
}

// Delete removes the shell stored under id.
func (s *Store) Delete(_ context.Context, id string) error {
	return s.guard.Write(func(ix *Index[*shell.Shell]) error {
		if _, ok := ix.Remove(id); !ok {
			return fmt.Errorf("%w: %s", shell.ErrNotFound, id)
		}
		return nil
	})
}

// List returns one page of shells matching spec.
func (s *Store) List(_ context.Context, spec filter.Spec, info paging.Info) (paging.Result[*shell.Shell], error) {
	if err := info.Validate(); err != nil {
		return paging.Result[*shell.Shell]{}, err
	}

	var page paging.Result[*shell.Shell]
	s.guard.Read(func(v View[*shell.Shell]) {
		page = paging.Successor[*shell.Shell](v, info, filter.Match(spec), storage.Key)
		for i, item := range page.Items {
			page.Items[i] = item.DeepCopy()
		}
	})
	return page, nil
}

// Clear removes every shell.
func (s *Store) Clear(_ context.Context) ([]string, error) {
	return s.guard.Clear(), nil
}

// Len returns the number of stored shells.
func (s *Store) Len() int {
	n := 0
	s.guard.Read(func(v View[*shell.Shell]) {
		n = v.Len()
	})
	return n
}
