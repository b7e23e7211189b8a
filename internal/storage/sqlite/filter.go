package sqlite

import (
	"strings"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// specificAssetIDMatch requires one element of specific_asset_ids to carry
// the given name and value.
const specificAssetIDMatch = `EXISTS (
			SELECT 1 FROM json_each(shells.specific_asset_ids) AS sid
			WHERE json_extract(sid.value, '$.name') = ?
			  AND json_extract(sid.value, '$.value') = ?)`

// where is a conjunction of SQL conditions with their bound arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// String renders the clause including the WHERE keyword, or "" when empty.
func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// resolveFilter compiles spec into SQL conditions over the shells table.
func resolveFilter(spec filter.Spec) *where {
	w := &where{}

	if len(spec.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(spec.IDs)), ",")
		args := make([]any, len(spec.IDs))
		for i, id := range spec.IDs {
			args[i] = id
		}
		w.add("id IN ("+placeholders+")", args...)
	}

	if spec.HasIDShort() {
		w.add("id_short = ?", spec.IDShort)
	}

	switch spec.AssetKind {
	case "":
	case shell.KindNotApplicable:
		w.add("asset_kind IS NULL")
	default:
		w.add("asset_kind = ?", string(spec.AssetKind))
	}
	if assetType, ok := spec.AssetTypeConstraint(); ok {
		w.add("asset_type = ?", assetType)
	}

	for _, sid := range spec.SpecificAssetIDs {
		w.add(specificAssetIDMatch, sid.Name, sid.Value)
	}

	return w
}
