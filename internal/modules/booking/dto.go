package booking

import (
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/modules/availability"
)

type SubmitRequest struct {
	ResourceID        int64                `json:"resource_id" binding:"required"`
	ApplicantName     string               `json:"applicant_name" binding:"required,max=200"`
	ApplicantEmail    string               `json:"applicant_email" binding:"required,email"`
	ApplicantPhone    string               `json:"applicant_phone" binding:"max=40"`
	Purpose           string               `json:"purpose" binding:"required"`
	EventCategory     domain.EventCategory `json:"event_category" binding:"required"`
	ExpectedAttendees int                  `json:"expected_attendees" binding:"gte=0"`
	ScheduleStart     time.Time            `json:"schedule_start" binding:"required"`
	ScheduleEnd       time.Time            `json:"schedule_end" binding:"required"`
	Remarks           string               `json:"remarks"`
}

type TransitionRequest struct {
	Status  domain.BookingStatus `json:"status" binding:"required"`
	Remarks string               `json:"remarks"`
}

// OverrideRequest forces a status regardless of the normal gating.
type OverrideRequest struct {
	Status        domain.BookingStatus `json:"status" binding:"required"`
	Justification string               `json:"justification" binding:"required"`
}

type CancelRequest struct {
	Remarks string `json:"remarks"`
}

type RescheduleRequest struct {
	ScheduleStart time.Time `json:"schedule_start" binding:"required"`
	ScheduleEnd   time.Time `json:"schedule_end" binding:"required"`
	Remarks       string    `json:"remarks"`
}

type PaymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status" binding:"required"`
}

type AvailabilityQuery struct {
	ResourceID       int64
	Start            time.Time
	End              time.Time
	ExcludeBookingID *int64
	EventCategory    domain.EventCategory
}

// AvailabilityResponse is the verdict plus the quote for the same window.
type AvailabilityResponse struct {
	*availability.Result
	BillableHours int64   `json:"billable_hours"`
	Amount        float64 `json:"amount"`
}
