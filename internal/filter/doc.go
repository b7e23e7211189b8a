// Package filter describes which shells a listing should return.
//
// A Spec is a plain, backend-agnostic value. Every storage backend compiles
// it into its own native form (a Go predicate here, a SQL WHERE clause, a
// MongoDB $match stage, an Elasticsearch bool query) and all of them must
// select exactly the same shells:
//
//	(ids empty      OR id ∈ ids)
//	AND (idShort blank OR idShort == shell.idShort)
//	AND (assetKind "" OR kind matches)
//	AND (every specificAssetId pair present in shell.specificAssetIds)
//
// Kind matching: INSTANCE needs an INSTANCE shell, NOT_APPLICABLE needs a
// shell without any kind, TYPE needs a TYPE shell whose assetType equals
// Spec.AssetType when that is set. Specific asset ids use subset
// containment, so a shell may carry more pairs than the filter names.
//
// The zero Spec matches everything.
package filter
