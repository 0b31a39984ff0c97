package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"facilityhub/internal/domain"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrBlackoutNotFound = errors.New("blackout window not found")
	ErrBookingsInWindow = errors.New("blackout overlaps active bookings")
)

// ValidationError lists failing fields by json name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		names = append(names, k+"="+v)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, tag string) error {
	return &ValidationError{Fields: map[string]string{field: tag}}
}

// BlackoutConflictError carries the active bookings a new blackout would
// cover.
type BlackoutConflictError struct {
	Bookings []domain.BookingRequest
}

func (e *BlackoutConflictError) Error() string {
	return fmt.Sprintf("%s: %d booking(s)", ErrBookingsInWindow, len(e.Bookings))
}

func (e *BlackoutConflictError) Unwrap() error { return ErrBookingsInWindow }
