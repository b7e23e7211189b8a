// Package paging implements cursor pagination over id-ordered collections.
//
// Every backend orders shells by ID (byte-wise), so a cursor is simply the
// ID of the last item a client has seen. Two strategies produce pages:
//
//   - Successor walks an ordered source strictly after the cursor and stops
//     once it has one page plus evidence of a following item. It suits
//     in-process sorted structures that can seek cheaply.
//   - Probe takes rows a remote backend already fetched with
//     limit+1, sorted by ID after the cursor, and trims the extra row. It
//     suits SQL, MongoDB and Elasticsearch.
//
// Both compare keys instead of locating the cursor item, so a cursor whose
// item has since been deleted still resumes at the right place.
//
// At the wire boundary cursors are base64url encoded (EncodeCursor,
// DecodeCursor). Inside the process they are raw IDs.
package paging
