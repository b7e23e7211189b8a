// Package api implements the HTTP REST API of the twin registry.
//
// This package provides:
//   - Shell CRUD under /api/v3/shells with base64url encoded identifiers
//   - Filtered, cursor-paginated listings (query parameters or a JSON
//     filter body posted to /api/v3/shells/$query)
//   - Submodel reference management per shell
//   - Health and Prometheus metrics endpoints
//   - Middleware stack (request ID, metrics, logging, recovery, CORS, body limit)
//
// # Architecture
//
//	client ──HTTP──► chi router ──► handlers ──► registry.Registry
//	                                                 │
//	                          storage backend ◄──────┤
//	                          interceptors    ◄──────┘ (search index, MQTT)
//
// Paged responses carry an opaque cursor in pagingMetadata.cursor; it is
// null on the last page. An undecodable cursor is logged and the listing
// starts from the beginning.
//
// Errors are returned as {"error": {"code", "message", "request_id"}}.
package api
