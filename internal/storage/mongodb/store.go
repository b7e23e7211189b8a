// Package mongodb is the document-store shell backend.
//
// Each shell is one document keyed by _id. Listings run a single
// aggregation: the filter's $match stage, a $match on _id > cursor, a sort
// on _id and a $limit of limit+1 for probe pagination.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

// ErrNoDocument is returned by a Collection when a lookup finds nothing.
var ErrNoDocument = errors.New("mongodb: no document")

// ErrDuplicateKey is returned by a Collection when an insert collides.
var ErrDuplicateKey = errors.New("mongodb: duplicate key")

// Collection is the document-store surface the Store needs.
type Collection interface {
	Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*shell.Shell, error)
	FindByID(ctx context.Context, id string) (*shell.Shell, error)
	Insert(ctx context.Context, s *shell.Shell) error
	Replace(ctx context.Context, id string, s *shell.Shell) (matched int64, err error)
	Delete(ctx context.Context, id string) (deleted int64, err error)
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Store implements storage.Storage on a document collection.
type Store struct {
	coll Collection
}

// New returns a Store over coll.
func New(coll Collection) *Store {
	return &Store{coll: coll}
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "mongodb"
}

// HealthCheck pings the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.coll.Ping(ctx); err != nil {
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Get retrieves a shell by ID.
func (s *Store) Get(ctx context.Context, id string) (*shell.Shell, error) {
	sh, err := s.coll.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			return nil, fmt.Errorf("%w: %s", shell.ErrNotFound, id)
		}
		return nil, fmt.Errorf("finding shell: %w", err)
	}
	return sh, nil
}

// Insert stores a new shell.
func (s *Store) Insert(ctx context.Context, sh *shell.Shell) error {
	if err := s.coll.Insert(ctx, sh); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", shell.ErrExists, sh.ID)
		}
		return fmt.Errorf("inserting shell: %w", err)
	}
	return nil
}

// Update replaces the shell stored under id.
func (s *Store) Update(ctx context.Context, id string, sh *shell.Shell) error {
	if sh.ID != id {
		return fmt.Errorf("%w: %q != %q", shell.ErrIDMismatch, sh.ID, id)
	}
	matched, err := s.coll.Replace(ctx, id, sh)
	if err != nil {
		return fmt.Errorf("replacing shell: %w", err)
	}
	if matched == 0 {
		return fmt.Errorf("%w: %s", shell.ErrNotFound, id)
	}
	return nil
}

// Delete removes a shell by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	deleted, err := s.coll.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting shell: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", shell.ErrNotFound, id)
	}
	return nil
}

// List returns one page of shells matching spec.
func (s *Store) List(ctx context.Context, spec filter.Spec, info paging.Info) (paging.Result[*shell.Shell], error) {
	if err := info.Validate(); err != nil {
		return paging.Result[*shell.Shell]{}, err
	}

	docs, err := s.coll.Aggregate(ctx, listPipeline(spec, info))
	if err != nil {
		return paging.Result[*shell.Shell]{}, fmt.Errorf("aggregating shells: %w", err)
	}
	return paging.Probe(docs, info, storage.Key), nil
}

// Clear deletes every shell. The ID listing and the delete are two
// operations; shells inserted in between are deleted but not reported.
func (s *Store) Clear(ctx context.Context) ([]string, error) {
	docs, err := s.coll.Aggregate(ctx, idsPipeline())
	if err != nil {
		return nil, fmt.Errorf("listing shell ids: %w", err)
	}
	if err := s.coll.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("deleting shells: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
