package booking

import (
	"errors"
	"fmt"

	"facilityhub/internal/modules/availability"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotAvailable            = errors.New("booking not available")
	ErrNotFound                = errors.New("booking not found")
	ErrResourceNotFound        = errors.New("resource not found")
	ErrResourceInactive        = errors.New("resource is not accepting bookings")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrJustificationRequired   = errors.New("override requires a justification")
	ErrConcurrentUpdate        = errors.New("booking was modified concurrently")
)

// ConflictError carries the full conflict set. Late is set when the store
// rejected the write after the pre-check had passed.
type ConflictError struct {
	Result *availability.Result
	Late   bool
}

func (e *ConflictError) Error() string {
	if e.Result == nil {
		return ErrNotAvailable.Error()
	}
	return fmt.Sprintf("%s: %d booking(s), %d blackout(s) overlap",
		ErrNotAvailable, len(e.Result.ConflictingBookings), len(e.Result.ConflictingBlackouts))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrNotAvailable
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
