// Package availability decides whether a proposed window on a resource is
// free of active bookings and blackout windows.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facilityhub/internal/domain"
)

// ErrLookupFailed wraps any failure to read bookings or blackouts. It is
// retryable and never means "no conflicts".
var ErrLookupFailed = errors.New("availability lookup failed")

type CheckRequest struct {
	ResourceID       int64
	Start            time.Time
	End              time.Time
	ExcludeBookingID *int64
}

func (r CheckRequest) Window() domain.Interval {
	return domain.Interval{Start: r.Start, End: r.End}
}

type Result struct {
	Available            bool                    `json:"available"`
	ConflictingBookings  []domain.BookingRequest `json:"conflicting_bookings"`
	ConflictingBlackouts []domain.BlackoutWindow `json:"conflicting_blackouts"`
}

type Engine struct {
	bookings  BookingReader
	blackouts BlackoutReader
	loc       *time.Location
}

type Option func(*Engine)

// WithLocation sets the facility time zone in which blackout dates start
// and end.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(bookings BookingReader, blackouts BlackoutReader, opts ...Option) *Engine {
	e := &Engine{bookings: bookings, blackouts: blackouts, loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Overlaps reports whether two half-open intervals share any instant.
func Overlaps(a, b domain.Interval) bool {
	return a.Overlaps(b)
}

// Check reads fresh state and returns every booking and blackout that
// overlaps the requested window. The request is assumed well formed.
func (e *Engine) Check(ctx context.Context, req CheckRequest) (*Result, error) {
	window := req.Window()

	bookings, err := e.bookings.ListActiveByResource(ctx, req.ResourceID, req.ExcludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: bookings: %w", ErrLookupFailed, err)
	}
	blackouts, err := e.blackouts.ListByResource(ctx, req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: blackouts: %w", ErrLookupFailed, err)
	}

	res := &Result{
		ConflictingBookings:  []domain.BookingRequest{},
		ConflictingBlackouts: []domain.BlackoutWindow{},
	}
	for _, b := range bookings {
		if b.ResourceID != req.ResourceID || !b.Status.IsActive() {
			continue
		}
		if req.ExcludeBookingID != nil && b.ID == *req.ExcludeBookingID {
			continue
		}
		if Overlaps(b.Window(), window) {
			res.ConflictingBookings = append(res.ConflictingBookings, b)
		}
	}
	for _, w := range blackouts {
		if w.ResourceID != req.ResourceID {
			continue
		}
		if Overlaps(w.Interval(e.loc), window) {
			res.ConflictingBlackouts = append(res.ConflictingBlackouts, w)
		}
	}

	res.Available = len(res.ConflictingBookings) == 0 && len(res.ConflictingBlackouts) == 0
	return res, nil
}
