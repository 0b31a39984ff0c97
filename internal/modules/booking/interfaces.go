package booking

import (
	"context"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/events"
	"facilityhub/internal/modules/availability"
	"facilityhub/internal/repository"
)

// BookingRepository is the transactional booking store.
type BookingRepository interface {
	CreateAdmitted(ctx context.Context, b *domain.BookingRequest, entry domain.StatusHistoryEntry) error
	GetByID(ctx context.Context, id int64) (*domain.BookingRequest, error)
	GetByReference(ctx context.Context, ref string) (*domain.BookingRequest, error)
	ChangeStatus(ctx context.Context, ch repository.StatusChange) (*domain.BookingRequest, error)
	Reschedule(ctx context.Context, ch repository.ScheduleChange) (*domain.BookingRequest, error)
	Withdraw(ctx context.Context, bookingID int64, from domain.BookingStatus, entry domain.StatusHistoryEntry) error
	UpdatePaymentStatus(ctx context.Context, bookingID int64, status domain.PaymentStatus) (*domain.BookingRequest, error)
	ListByApplicant(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingRequest, error)
	ListByResource(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.BookingRequest, error)
}

type HistoryRepository interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.StatusHistoryEntry, error)
}

type ResourceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
}

type AvailabilityChecker interface {
	Check(ctx context.Context, req availability.CheckRequest) (*availability.Result, error)
}

// SlotLocker serializes submissions per resource ahead of the database.
type SlotLocker interface {
	Lock(ctx context.Context, resourceID int64) (func(), error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.BookingEvent) error
}
