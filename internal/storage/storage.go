// Package storage defines the contract every shell backend implements.
//
// Backends live in sub-packages: memory (sorted btree index under a
// reader/writer guard), sqlite (relational, probe pagination) and mongodb
// (aggregation pipeline, probe pagination). The search package provides a
// Lister backed by Elasticsearch that can serve listings in place of the
// primary store.
//
// All backends order shells by ID and return deep copies. Errors use the
// shell package sentinels (shell.ErrNotFound, shell.ErrExists,
// shell.ErrIDMismatch) so callers can map them uniformly; I/O failures are
// wrapped and returned without retry.
package storage

import (
	"context"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// Lister serves filtered, cursor-paginated listings.
type Lister interface {
	List(ctx context.Context, spec filter.Spec, info paging.Info) (paging.Result[*shell.Shell], error)
}

// Storage is a primary shell store.
type Storage interface {
	Lister

	// Name identifies the backend in logs and metrics.
	Name() string

	// Get returns the shell with the given ID or shell.ErrNotFound.
	Get(ctx context.Context, id string) (*shell.Shell, error)

	// Insert stores a new shell or fails with shell.ErrExists.
	Insert(ctx context.Context, s *shell.Shell) error

	// Update replaces the shell stored under id. s.ID must equal id.
	Update(ctx context.Context, id string, s *shell.Shell) error

	// Delete removes the shell with the given ID.
	Delete(ctx context.Context, id string) error

	// Clear removes every shell and returns the removed IDs in order.
	Clear(ctx context.Context) ([]string, error)
}

// HealthChecker is implemented by backends that can verify their connection.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Key returns the ordering key of a shell.
func Key(s *shell.Shell) string {
	return s.ID
}
