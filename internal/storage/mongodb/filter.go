package mongodb

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// Document paths of the filterable shell fields.
const (
	fieldID               = "_id"
	fieldIDShort          = "idShort"
	fieldAssetKind        = "assetInformation.assetKind"
	fieldAssetType        = "assetInformation.assetType"
	fieldSpecificAssetIDs = "assetInformation.specificAssetIds"
)

// matchDocument compiles spec into the body of a $match stage. An empty
// spec yields an empty document; an empty ids list adds no $in clause.
func matchDocument(spec filter.Spec) bson.D {
	var doc bson.D

	if len(spec.IDs) > 0 {
		doc = append(doc, bson.E{Key: fieldID, Value: bson.D{{Key: "$in", Value: spec.IDs}}})
	}
	if spec.HasIDShort() {
		doc = append(doc, bson.E{Key: fieldIDShort, Value: spec.IDShort})
	}

	switch spec.AssetKind {
	case "":
	case shell.KindNotApplicable:
		// null matches both a missing field and an explicit null.
		doc = append(doc, bson.E{Key: fieldAssetKind, Value: nil})
	default:
		doc = append(doc, bson.E{Key: fieldAssetKind, Value: string(spec.AssetKind)})
	}
	if assetType, ok := spec.AssetTypeConstraint(); ok {
		doc = append(doc, bson.E{Key: fieldAssetType, Value: assetType})
	}

	if len(spec.SpecificAssetIDs) > 0 {
		clauses := make(bson.A, 0, len(spec.SpecificAssetIDs))
		for _, sid := range spec.SpecificAssetIDs {
			clauses = append(clauses, bson.D{{
				Key: fieldSpecificAssetIDs,
				Value: bson.D{{Key: "$elemMatch", Value: bson.D{
					{Key: "name", Value: sid.Name},
					{Key: "value", Value: sid.Value},
				}}},
			}})
		}
		doc = append(doc, bson.E{Key: "$and", Value: clauses})
	}

	return doc
}

// listPipeline builds the aggregation for one page: filter, resume after
// the cursor, sort by _id and fetch one extra document when bounded.
func listPipeline(spec filter.Spec, info paging.Info) mongo.Pipeline {
	var pipeline mongo.Pipeline

	if match := matchDocument(spec); len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	if info.Cursor != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: fieldID, Value: bson.D{{Key: "$gt", Value: info.Cursor}}},
		}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: fieldID, Value: 1}}}})
	if n := paging.FetchSize(info); n > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: n}})
	}

	return pipeline
}

// idsPipeline lists every _id in order.
func idsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$sort", Value: bson.D{{Key: fieldID, Value: 1}}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: fieldID, Value: 1}}}},
	}
}
