package search

import (
	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// Document field paths. They follow the shell's JSON encoding, which is
// also the stored document source.
const (
	fieldID               = "id"
	fieldIDShort          = "idShort"
	fieldAssetKind        = "assetInformation.assetKind"
	fieldAssetType        = "assetInformation.assetType"
	fieldSpecificAssetIDs = "assetInformation.specificAssetIds"
	fieldSpecificName     = fieldSpecificAssetIDs + ".name"
	fieldSpecificValue    = fieldSpecificAssetIDs + ".value"
)

// indexMapping declares the filterable fields as keywords and the
// specific asset ids as nested so name and value match within one pair.
const indexMapping = `{
  "mappings": {
    "dynamic": false,
    "properties": {
      "id":      {"type": "keyword"},
      "idShort": {"type": "keyword"},
      "assetInformation": {
        "properties": {
          "assetKind":     {"type": "keyword"},
          "assetType":     {"type": "keyword"},
          "globalAssetId": {"type": "keyword"},
          "specificAssetIds": {
            "type": "nested",
            "properties": {
              "name":  {"type": "keyword"},
              "value": {"type": "keyword"}
            }
          }
        }
      },
      "createdAt": {"type": "date"},
      "updatedAt": {"type": "date"}
    }
  }
}`

type object = map[string]any

// buildQuery translates spec into an Elasticsearch bool query.
func buildQuery(spec filter.Spec) object {
	var must, mustNot []any

	if len(spec.IDs) > 0 {
		must = append(must, object{"terms": object{fieldID: spec.IDs}})
	}
	if spec.HasIDShort() {
		must = append(must, object{"term": object{fieldIDShort: spec.IDShort}})
	}
	switch spec.AssetKind {
	case "":
	case shell.KindNotApplicable:
		mustNot = append(mustNot, object{"exists": object{"field": fieldAssetKind}})
	default:
		must = append(must, object{"term": object{fieldAssetKind: string(spec.AssetKind)}})
	}
	if assetType, ok := spec.AssetTypeConstraint(); ok {
		must = append(must, object{"term": object{fieldAssetType: assetType}})
	}
	for _, sid := range spec.SpecificAssetIDs {
		must = append(must, object{"nested": object{
			"path": fieldSpecificAssetIDs,
			"query": object{"bool": object{"filter": []any{
				object{"term": object{fieldSpecificName: sid.Name}},
				object{"term": object{fieldSpecificValue: sid.Value}},
			}}},
		}})
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return object{"match_all": object{}}
	}
	clauses := object{}
	if len(must) > 0 {
		clauses["filter"] = must
	}
	if len(mustNot) > 0 {
		clauses["must_not"] = mustNot
	}
	return object{"bool": clauses}
}

// buildRequest assembles a search body for one page. info must carry a limit.
func buildRequest(spec filter.Spec, info paging.Info) object {
	req := object{
		"query": buildQuery(spec),
		"sort":  []any{object{fieldID: "asc"}},
		"size":  paging.FetchSize(info),
	}
	if info.Cursor != "" {
		req["search_after"] = []any{info.Cursor}
	}
	return req
}
