package shell

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Validation limits.
const (
	maxIDLength        = 2048
	maxIDShortLength   = 128
	maxSpecificIDs     = 100
	maxSubmodelRefs    = 1000
	maxAttributeLength = 1024
)

// ParseAssetKind converts a wire value into an AssetKind.
// An empty string yields an empty kind and no error.
func ParseAssetKind(s string) (AssetKind, error) {
	if s == "" {
		return "", nil
	}
	k := AssetKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllAssetKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssetKind, s)
}

// Valid reports whether k is empty or exactly one of AllAssetKinds.
func (k AssetKind) Valid() bool {
	return k == "" || slices.Contains(AllAssetKinds(), k)
}

// Normalize rewrites a recognised asset kind into its canonical form.
// Unrecognised kinds are left for Validate to reject.
func Normalize(s *Shell) {
	if s == nil || s.AssetInformation == nil {
		return
	}
	if k, err := ParseAssetKind(string(s.AssetInformation.AssetKind)); err == nil {
		s.AssetInformation.AssetKind = k
	}
}

// GenerateID returns a new shell identifier.
func GenerateID() string {
	return "urn:uuid:" + uuid.New().String()
}

// Validate checks a shell for structural problems.
func Validate(s *Shell) error {
	if s == nil {
		return fmt.Errorf("%w: nil shell", ErrInvalid)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if len(s.ID) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalid, maxIDLength)
	}
	if len(s.IDShort) > maxIDShortLength {
		return fmt.Errorf("%w: idShort exceeds %d characters", ErrInvalid, maxIDShortLength)
	}

	if info := s.AssetInformation; info != nil {
		if !info.AssetKind.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidAssetKind, info.AssetKind)
		}
		if len(info.SpecificAssetIDs) > maxSpecificIDs {
			return fmt.Errorf("%w: more than %d specific asset ids", ErrInvalid, maxSpecificIDs)
		}
		for i, sid := range info.SpecificAssetIDs {
			if sid.Name == "" {
				return fmt.Errorf("%w: specificAssetIds[%d] has empty name", ErrInvalid, i)
			}
			if len(sid.Name) > maxAttributeLength || len(sid.Value) > maxAttributeLength {
				return fmt.Errorf("%w: specificAssetIds[%d] too long", ErrInvalid, i)
			}
		}
	}

	if len(s.Submodels) > maxSubmodelRefs {
		return fmt.Errorf("%w: more than %d submodel references", ErrInvalid, maxSubmodelRefs)
	}
	seen := make(map[string]struct{}, len(s.Submodels))
	for _, ref := range s.Submodels {
		if ref.ID == "" {
			return fmt.Errorf("%w: submodel reference with empty id", ErrInvalid)
		}
		if _, dup := seen[ref.ID]; dup {
			return fmt.Errorf("%w: duplicate submodel reference %q", ErrInvalid, ref.ID)
		}
		seen[ref.ID] = struct{}{}
	}

	return nil
}
