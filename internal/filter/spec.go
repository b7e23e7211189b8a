package filter

import (
	"fmt"
	"strings"

	"github.com/nerrad567/twin-registry/internal/shell"
)

// Spec holds optional match criteria. Empty fields are unconstrained.
type Spec struct {
	IDs              []string                `json:"ids,omitempty"`
	IDShort          string                  `json:"idShort,omitempty"`
	AssetKind        shell.AssetKind         `json:"assetKind,omitempty"`
	AssetType        string                  `json:"assetType,omitempty"`
	SpecificAssetIDs []shell.SpecificAssetID `json:"specificAssetIds,omitempty"`
}

// IsEmpty reports whether the spec constrains nothing.
func (s Spec) IsEmpty() bool {
	return len(s.IDs) == 0 &&
		!s.HasIDShort() &&
		s.AssetKind == "" &&
		len(s.SpecificAssetIDs) == 0
}

// HasIDShort reports whether IDShort is set to something other than whitespace.
func (s Spec) HasIDShort() bool {
	return strings.TrimSpace(s.IDShort) != ""
}

// AssetTypeConstraint returns the asset type to enforce, if any.
// It only applies when the kind is TYPE.
func (s Spec) AssetTypeConstraint() (string, bool) {
	if s.AssetKind != shell.KindType || s.AssetType == "" {
		return "", false
	}
	return s.AssetType, true
}

// Normalized returns a copy of s with a recognised asset kind in its
// canonical form. Unrecognised kinds are kept for Validate to reject.
func (s Spec) Normalized() Spec {
	if k, err := shell.ParseAssetKind(string(s.AssetKind)); err == nil {
		s.AssetKind = k
	}
	return s
}

// Validate rejects non-canonical asset kinds and unnamed specific asset ids.
func (s Spec) Validate() error {
	if !s.AssetKind.Valid() {
		return fmt.Errorf("%w: %q", shell.ErrInvalidAssetKind, s.AssetKind)
	}
	for i, sid := range s.SpecificAssetIDs {
		if sid.Name == "" {
			return fmt.Errorf("%w: specificAssetIds[%d] has empty name", shell.ErrInvalid, i)
		}
	}
	return nil
}
