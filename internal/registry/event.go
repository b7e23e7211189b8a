package registry

import (
	"context"
	"time"

	"github.com/nerrad567/twin-registry/internal/shell"
)

// EventType names a committed mutation.
type EventType string

// Mutation kinds delivered to interceptors.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventCleared EventType = "cleared"
)

// Event describes a committed mutation. Shell is set for created and
// updated events and holds the removed shell for deleted events.
// Cleared events carry only RemovedIDs.
type Event struct {
	Type       EventType
	ShellID    string
	Shell      *shell.Shell
	RemovedIDs []string
	Time       time.Time
}

// Interceptor reacts to committed mutations.
type Interceptor interface {
	Name() string
	Intercept(ctx context.Context, ev Event) error
}

// Observer receives the outcome of every registry operation.
type Observer interface {
	ObserveOperation(op, backend string, elapsed time.Duration, err error)
}

// PageObserver is optionally implemented by an Observer to receive the
// size of every listing page.
type PageObserver interface {
	ObservePage(backend string, items int, hasMore bool)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration, error) {}
