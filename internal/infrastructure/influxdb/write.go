package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementOperations = "registry_operations"
)

// Operation is one registry call to record.
type Operation struct {
	Name    string // e.g. "list", "create"
	Backend string // storage backend name
	Result  string // "ok" or an error class
	Elapsed time.Duration
	At      time.Time

	// Items is recorded only when HasItems is set (listings).
	Items    int
	HasItems bool
}

// WriteOperation records a registry operation. The write is batched.
func (c *Client) WriteOperation(op Operation) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]any{
		"duration_ms": float64(op.Elapsed.Microseconds()) / 1000,
	}
	if op.HasItems {
		fields["items"] = op.Items
	}

	at := op.At
	if at.IsZero() {
		at = time.Now()
	}

	c.writeAPI.WritePoint(write.NewPoint(
		measurementOperations,
		map[string]string{
			"operation": op.Name,
			"backend":   op.Backend,
			"result":    op.Result,
		},
		fields,
		at,
	))
}

// WritePointWithTime writes a custom point at the given time.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
