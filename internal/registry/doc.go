// Package registry is the entry point for every shell operation.
//
// A Registry wraps one primary storage.Storage and composes the concerns
// around it explicitly instead of stacking wrappers:
//
//	            ┌──────────────────────────────────────────┐
//	 API ──────▶│                Registry                  │
//	            │  validate ─▶ Storage ─▶ Interceptors     │
//	            │                 │        • search index  │
//	            │                 │        • MQTT events   │
//	            │   List ─▶ Lister (Storage or search)     │
//	            │   every op ─▶ Observer (metrics)         │
//	            └──────────────────────────────────────────┘
//
// Interceptors run after a mutation has been committed to the primary
// store, in registration order. Their failures are logged and returned
// wrapped in ErrInterceptor; the primary write is not rolled back.
//
// Listings go to the primary store unless SetLister installs another
// storage.Lister such as the Elasticsearch index.
package registry
