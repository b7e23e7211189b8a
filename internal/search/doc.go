// Package search keeps an Elasticsearch index of shells and serves
// filtered, cursor-paginated listings from it.
//
// The index is secondary: the registry writes to its primary store first
// and Index.Intercept mirrors each committed mutation. Listings may then be
// routed to the index with registry.SetLister.
//
//	Registry ──commit──▶ Storage
//	    │
//	    └──Intercept──▶ Index ──Client──▶ Elasticsearch
//	                      ▲
//	ListShells ───────────┘  bool.filter query, sort id asc,
//	                         search_after [cursor], size limit+1
//
// Client is the narrow surface the index needs. NewClient builds one over
// the official go-elasticsearch v8 client; tests substitute a fake that
// evaluates the generated query DSL in memory.
package search
