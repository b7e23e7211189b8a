// Package shell defines the Asset Administration Shell records held by the
// twin registry.
//
// A shell is the registry's unit of storage. Every backend (memory, SQLite,
// MongoDB) persists the same Shell value and orders it by ID, so the types
// here are shared by the storage, filter, search and API packages.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          shell                                │
//	│                                                               │
//	│  ┌────────────────┐   ┌────────────────┐   ┌───────────────┐  │
//	│  │    Shell       │   │   Validation   │   │    Errors     │  │
//	│  │  (shell.go)    │   │(validation.go) │   │  (errors.go)  │  │
//	│  │ • identity     │   │ • id checks    │   │ • sentinels   │  │
//	│  │ • asset info   │   │ • asset kind   │   │   for errors. │  │
//	│  │ • submodel refs│   │ • id generation│   │   Is mapping  │  │
//	│  └────────────────┘   └────────────────┘   └───────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// # Asset kinds
//
// AssetInformation.AssetKind is one of KindInstance, KindType or
// KindNotApplicable. An empty kind means the shell carries no kind at all,
// which is what a NOT_APPLICABLE filter selects.
//
// # Copy semantics
//
// Stores hand out deep copies. Callers may mutate any Shell they receive
// without affecting stored state.
package shell
