// Package events carries booking lifecycle notifications to brokers and the
// live staff feed. Delivery is best effort; booking operations never fail on a
// publish error.
package events

import (
	"context"
	"time"

	"facilityhub/internal/domain"

	"github.com/google/uuid"
)

const (
	TypeSubmitted      = "booking.submitted"
	TypeStatusChanged  = "booking.status_changed"
	TypeOverridden     = "booking.overridden"
	TypeCancelled      = "booking.cancelled"
	TypeWithdrawn      = "booking.withdrawn"
	TypeRescheduled    = "booking.rescheduled"
	TypePaymentUpdated = "booking.payment_updated"
)

type BookingEvent struct {
	ID            uuid.UUID            `json:"id"`
	Type          string               `json:"type"`
	BookingID     int64                `json:"booking_id"`
	ReferenceNo   string               `json:"reference_no"`
	ResourceID    int64                `json:"resource_id"`
	FromStatus    domain.BookingStatus `json:"from_status,omitempty"`
	ToStatus      domain.BookingStatus `json:"to_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status,omitempty"`
	ScheduleStart time.Time            `json:"schedule_start"`
	ScheduleEnd   time.Time            `json:"schedule_end"`
	ActorID       int64                `json:"actor_id"`
	ActorRole     string               `json:"actor_role"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewBookingEvent(typ string, b *domain.BookingRequest, from domain.BookingStatus, actor domain.Actor, at time.Time) BookingEvent {
	return BookingEvent{
		ID:            uuid.New(),
		Type:          typ,
		BookingID:     b.ID,
		ReferenceNo:   b.ReferenceNo,
		ResourceID:    b.ResourceID,
		FromStatus:    from,
		ToStatus:      b.Status,
		PaymentStatus: b.PaymentStatus,
		ScheduleStart: b.ScheduleStart,
		ScheduleEnd:   b.ScheduleEnd,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		OccurredAt:    at,
	}
}

// RoutingKey is the AMQP routing key. Consumers bind with patterns such as
// "booking.*".
func (e BookingEvent) RoutingKey() string {
	return e.Type
}

type Publisher interface {
	Publish(ctx context.Context, e BookingEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, BookingEvent) error { return nil }
