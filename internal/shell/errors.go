package shell

import "errors"

// Domain errors for the shell package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, shell.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a shell ID does not exist.
	ErrNotFound = errors.New("shell: not found")

	// ErrExists is returned when creating a shell with an ID that already exists.
	ErrExists = errors.New("shell: already exists")

	// ErrInvalid is returned when shell validation fails.
	ErrInvalid = errors.New("shell: invalid")

	// ErrIDMismatch is returned when an update body names a different ID than the target.
	ErrIDMismatch = errors.New("shell: id mismatch")

	// ErrInvalidAssetKind is returned when an asset kind is not recognised.
	ErrInvalidAssetKind = errors.New("shell: invalid asset kind")

	// ErrSubmodelRefNotFound is returned when a shell has no reference to the submodel.
	ErrSubmodelRefNotFound = errors.New("shell: submodel reference not found")

	// ErrSubmodelRefExists is returned when a shell already references the submodel.
	ErrSubmodelRefExists = errors.New("shell: submodel reference already exists")
)
