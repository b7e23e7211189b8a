// Package influxdb records registry operation telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection management, a batched
// non-blocking write API and health checks.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteOperation(influxdb.Operation{Name: "list", Backend: "sqlite", Result: "ok", Elapsed: d})
//
// Points land in the "registry_operations" measurement tagged by
// operation, backend and result. Write errors arrive asynchronously
// through SetOnError.
package influxdb
