package shell

import (
	"slices"
	"time"
)

// AssetKind classifies the asset a shell describes.
type AssetKind string

// Asset kinds as they appear on the wire and in every backend.
const (
	KindInstance      AssetKind = "INSTANCE"
	KindType          AssetKind = "TYPE"
	KindNotApplicable AssetKind = "NOT_APPLICABLE"
)

// AllAssetKinds returns every recognised asset kind.
func AllAssetKinds() []AssetKind {
	return []AssetKind{KindInstance, KindType, KindNotApplicable}
}

// SpecificAssetID is a (name, value) attribute identifying the asset.
type SpecificAssetID struct {
	Name  string `json:"name" bson:"name"`
	Value string `json:"value" bson:"value"`
}

// AssetInformation describes the asset behind a shell.
type AssetInformation struct {
	AssetKind        AssetKind         `json:"assetKind,omitempty" bson:"assetKind,omitempty"`
	AssetType        string            `json:"assetType,omitempty" bson:"assetType,omitempty"`
	GlobalAssetID    string            `json:"globalAssetId,omitempty" bson:"globalAssetId,omitempty"`
	SpecificAssetIDs []SpecificAssetID `json:"specificAssetIds,omitempty" bson:"specificAssetIds,omitempty"`
}

// SubmodelRef points at a submodel attached to a shell.
type SubmodelRef struct {
	ID string `json:"id" bson:"id"`
}

// Shell is an Asset Administration Shell record.
type Shell struct {
	ID               string            `json:"id" bson:"_id"`
	IDShort          string            `json:"idShort,omitempty" bson:"idShort,omitempty"`
	Description      string            `json:"description,omitempty" bson:"description,omitempty"`
	AssetInformation *AssetInformation `json:"assetInformation,omitempty" bson:"assetInformation,omitempty"`
	Submodels        []SubmodelRef     `json:"submodels,omitempty" bson:"submodels,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Key returns the ordering key of the shell.
func (s *Shell) Key() string {
	return s.ID
}

// Kind returns the asset kind, or "" when the shell carries none.
func (s *Shell) Kind() AssetKind {
	if s.AssetInformation == nil {
		return ""
	}
	return s.AssetInformation.AssetKind
}

// AssetType returns the asset type, or "" when absent.
func (s *Shell) AssetType() string {
	if s.AssetInformation == nil {
		return ""
	}
	return s.AssetInformation.AssetType
}

// SpecificAssetIDs returns the shell's specific asset ids without copying.
func (s *Shell) SpecificAssetIDs() []SpecificAssetID {
	if s.AssetInformation == nil {
		return nil
	}
	return s.AssetInformation.SpecificAssetIDs
}

// HasSubmodel reports whether the shell references the given submodel.
func (s *Shell) HasSubmodel(submodelID string) bool {
	return slices.ContainsFunc(s.Submodels, func(ref SubmodelRef) bool {
		return ref.ID == submodelID
	})
}

// DeepCopy returns an independent copy of the shell.
func (s *Shell) DeepCopy() *Shell {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.AssetInformation != nil {
		info := *s.AssetInformation
		info.SpecificAssetIDs = slices.Clone(s.AssetInformation.SpecificAssetIDs)
		cpy.AssetInformation = &info
	}
	cpy.Submodels = slices.Clone(s.Submodels)

	return &cpy
}

// SortedSubmodels returns the shell's submodel references ordered by ID.
func (s *Shell) SortedSubmodels() []SubmodelRef {
	refs := slices.Clone(s.Submodels)
	slices.SortFunc(refs, func(a, b SubmodelRef) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return refs
}
