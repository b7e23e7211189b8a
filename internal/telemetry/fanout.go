package telemetry

import (
	"time"

	"github.com/nerrad567/twin-registry/internal/registry"
)

// Fanout delivers every observation to each observer in order.
type Fanout []registry.Observer

// ObserveOperation implements registry.Observer.
func (f Fanout) ObserveOperation(op, backend string, elapsed time.Duration, err error) {
	for _, o := range f {
		o.ObserveOperation(op, backend, elapsed, err)
	}
}

// ObservePage forwards to the observers that accept page observations.
func (f Fanout) ObservePage(backend string, items int, hasMore bool) {
	for _, o := range f {
		if po, ok := o.(registry.PageObserver); ok {
			po.ObservePage(backend, items, hasMore)
		}
	}
}
