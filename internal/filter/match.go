package filter

import "github.com/nerrad567/twin-registry/internal/shell"

// Predicate reports whether a shell satisfies a Spec.
type Predicate func(*shell.Shell) bool

// All matches every non-nil shell.
func All(s *shell.Shell) bool {
	return s != nil
}

// Match compiles spec into an in-memory predicate.
func Match(spec Spec) Predicate {
	if spec.IsEmpty() {
		return All
	}

	var ids map[string]struct{}
	if len(spec.IDs) > 0 {
		ids = make(map[string]struct{}, len(spec.IDs))
		for _, id := range spec.IDs {
			ids[id] = struct{}{}
		}
	}
	checkIDShort := spec.HasIDShort()
	assetType, checkAssetType := spec.AssetTypeConstraint()

	return func(s *shell.Shell) bool {
		if s == nil {
			return false
		}
		if ids != nil {
			if _, ok := ids[s.ID]; !ok {
				return false
			}
		}
		if checkIDShort && s.IDShort != spec.IDShort {
			return false
		}
		if spec.AssetKind != "" && !kindMatches(spec.AssetKind, s, assetType, checkAssetType) {
			return false
		}
		return containsAll(s.SpecificAssetIDs(), spec.SpecificAssetIDs)
	}
}

func kindMatches(want shell.AssetKind, s *shell.Shell, assetType string, checkAssetType bool) bool {
	switch want {
	case shell.KindInstance:
		return s.Kind() == shell.KindInstance
	case shell.KindNotApplicable:
		return s.Kind() == ""
	case shell.KindType:
		if s.Kind() != shell.KindType {
			return false
		}
		return !checkAssetType || s.AssetType() == assetType
	default:
		return false
	}
}

// containsAll reports whether every pair in want appears in have.
func containsAll(have, want []shell.SpecificAssetID) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply returns the shells in items that satisfy spec, preserving order.
func Apply(spec Spec, items []*shell.Shell) []*shell.Shell {
	match := Match(spec)
	out := make([]*shell.Shell, 0, len(items))
	for _, s := range items {
		if match(s) {
			out = append(out, s)
		}
	}
	return out
}
