package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

const (
	// DefaultPageSize applies when a listing carries no limit.
	DefaultPageSize = 100

	// DefaultIndex is the index name used when none is configured.
	DefaultIndex = "twinregistry-shells"

	rebuildBatch = 500
)

// Logger defines the logging interface used by the index.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Options configures an Index.
type Options struct {
	Index           string
	DefaultPageSize int
}

// Index mirrors shells into Elasticsearch and lists them back.
type Index struct {
	client   Client
	name     string
	pageSize int
	logger   Logger
}

// NewIndex creates an index over client. Zero options take defaults.
func NewIndex(client Client, opts Options) *Index {
	if opts.Index == "" {
		opts.Index = DefaultIndex
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	return &Index{
		client:   client,
		name:     opts.Index,
		pageSize: opts.DefaultPageSize,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the index.
func (x *Index) SetLogger(logger Logger) {
	x.logger = logger
}

// Name identifies the index as a registry interceptor.
func (x *Index) Name() string {
	return "search-index"
}

// Ensure creates the index and its mapping if missing.
func (x *Index) Ensure(ctx context.Context) error {
	return x.client.EnsureIndex(ctx, x.name, []byte(indexMapping))
}

// HealthCheck pings the cluster.
func (x *Index) HealthCheck(ctx context.Context) error {
	return x.client.Ping(ctx)
}

// List returns one page of indexed shells matching spec, ordered by ID.
func (x *Index) List(ctx context.Context, spec filter.Spec, info paging.Info) (paging.Result[*shell.Shell], error) {
	info = info.WithDefaultLimit(x.pageSize)

	body, err := json.Marshal(buildRequest(spec, info))
	if err != nil {
		return paging.Result[*shell.Shell]{}, fmt.Errorf("encoding search request: %w", err)
	}
	hits, err := x.client.Search(ctx, x.name, body)
	if err != nil {
		return paging.Result[*shell.Shell]{}, err
	}

	rows := make([]*shell.Shell, 0, len(hits))
	for _, hit := range hits {
		var sh shell.Shell
		if err := json.Unmarshal(hit.Source, &sh); err != nil {
			return paging.Result[*shell.Shell]{}, fmt.Errorf("decoding document %s: %w", hit.ID, err)
		}
		rows = append(rows, &sh)
	}
	return paging.Probe(rows, info, storage.Key), nil
}

// Put indexes sh, replacing any previous version.
func (x *Index) Put(ctx context.Context, sh *shell.Shell) error {
	body, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("encoding shell %s: %w", sh.ID, err)
	}
	return x.client.IndexDocument(ctx, x.name, sh.ID, body)
}

// Remove drops a shell from the index.
func (x *Index) Remove(ctx context.Context, id string) error {
	return x.client.DeleteDocument(ctx, x.name, id)
}

// Intercept mirrors a committed registry mutation into the index.
func (x *Index) Intercept(ctx context.Context, ev registry.Event) error {
	switch ev.Type {
	case registry.EventCreated, registry.EventUpdated:
		return x.Put(ctx, ev.Shell)
	case registry.EventDeleted:
		return x.Remove(ctx, ev.ShellID)
	case registry.EventCleared:
		return x.client.DeleteAll(ctx, x.name)
	default:
		return nil
	}
}

// Rebuild replaces the index contents with every shell src lists and
// returns how many were indexed.
func (x *Index) Rebuild(ctx context.Context, src storage.Lister) (int, error) {
	if err := x.client.DeleteAll(ctx, x.name); err != nil {
		return 0, err
	}

	count := 0
	info := paging.Info{Limit: rebuildBatch}
	for {
		page, err := src.List(ctx, filter.Spec{}, info)
		if err != nil {
			return count, fmt.Errorf("reading shells for reindex: %w", err)
		}
		for _, sh := range page.Items {
			if err := x.Put(ctx, sh); err != nil {
				return count, err
			}
			count++
		}
		if !page.HasMore() {
			break
		}
		info.Cursor = page.NextCursor
	}

	x.logger.Info("search index rebuilt", "index", x.name, "shells", count)
	return count, nil
}
