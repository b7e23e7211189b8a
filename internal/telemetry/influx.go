package telemetry

import (
	"time"

	"github.com/nerrad567/twin-registry/internal/infrastructure/influxdb"
)

// OperationWriter is the part of influxdb.Client the sink uses.
type OperationWriter interface {
	WriteOperation(op influxdb.Operation)
}

// InfluxSink forwards registry observations to InfluxDB.
type InfluxSink struct {
	w   OperationWriter
	now func() time.Time
}

// NewInfluxSink creates a sink writing through w.
func NewInfluxSink(w OperationWriter) *InfluxSink {
	return &InfluxSink{w: w, now: time.Now}
}

// ObserveOperation implements registry.Observer.
func (s *InfluxSink) ObserveOperation(op, backend string, elapsed time.Duration, err error) {
	s.w.WriteOperation(influxdb.Operation{
		Name:    op,
		Backend: backend,
		Result:  Classify(err),
		Elapsed: elapsed,
		At:      s.now(),
	})
}

// ObservePage implements registry.PageObserver.
func (s *InfluxSink) ObservePage(backend string, items int, _ bool) {
	s.w.WriteOperation(influxdb.Operation{
		Name:     "list_page",
		Backend:  backend,
		Result:   ResultOK,
		At:       s.now(),
		Items:    items,
		HasItems: true,
	})
}
