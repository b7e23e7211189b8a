package telemetry

import (
	"context"
	"errors"

	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// Result labels.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultConflict    = "conflict"
	ResultInvalid     = "invalid"
	ResultInterceptor = "interceptor_error"
	ResultCanceled    = "canceled"
	ResultError       = "error"
)

// Classify maps an operation error to a low-cardinality result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, shell.ErrNotFound), errors.Is(err, shell.ErrSubmodelRefNotFound):
		return ResultNotFound
	case errors.Is(err, shell.ErrExists), errors.Is(err, shell.ErrSubmodelRefExists):
		return ResultConflict
	case errors.Is(err, shell.ErrInvalid),
		errors.Is(err, shell.ErrInvalidAssetKind),
		errors.Is(err, shell.ErrIDMismatch),
		errors.Is(err, paging.ErrInvalidLimit),
		errors.Is(err, paging.ErrInvalidCursor):
		return ResultInvalid
	case errors.Is(err, registry.ErrInterceptor):
		return ResultInterceptor
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}
