package availability

import (
	"context"

	"facilityhub/internal/domain"
)

// BookingReader returns the bookings of a resource that hold their slot.
// excludeBookingID, when set, is left out of the result.
type BookingReader interface {
	ListActiveByResource(ctx context.Context, resourceID int64, excludeBookingID *int64) ([]domain.BookingRequest, error)
}

type BlackoutReader interface {
	ListByResource(ctx context.Context, resourceID int64) ([]domain.BlackoutWindow, error)
}
