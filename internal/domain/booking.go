package domain

import "time"

type BookingStatus string

const (
	BookingPendingReview        BookingStatus = "PENDING_REVIEW"
	BookingAwaitingRequirements BookingStatus = "AWAITING_REQUIREMENTS"
	BookingAwaitingPayment      BookingStatus = "AWAITING_PAYMENT"
	BookingApproved             BookingStatus = "APPROVED"
	BookingCompleted            BookingStatus = "COMPLETED"
	BookingNoShow               BookingStatus = "NO_SHOW"
	BookingRejected             BookingStatus = "REJECTED"
	BookingCancelled            BookingStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that still hold their time slot.
// Every conflict query, the database exclusion constraint and utilization
// reporting read this one list.
var ActiveStatuses = []BookingStatus{
	BookingPendingReview,
	BookingAwaitingRequirements,
	BookingAwaitingPayment,
	BookingApproved,
}

// AllStatuses lists every lifecycle status in workflow order.
var AllStatuses = []BookingStatus{
	BookingPendingReview,
	BookingAwaitingRequirements,
	BookingAwaitingPayment,
	BookingApproved,
	BookingCompleted,
	BookingNoShow,
	BookingRejected,
	BookingCancelled,
}

func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingNoShow, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Valid() bool {
	for _, a := range AllStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// ActiveStatusStrings returns ActiveStatuses as plain strings for SQL IN clauses.
func ActiveStatusStrings() []string {
	out := make([]string, 0, len(ActiveStatuses))
	for _, s := range ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentExempt   PaymentStatus = "EXEMPT"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentExempt, PaymentRefunded:
		return true
	}
	return false
}

type EventCategory string

const (
	EventGovernment EventCategory = "GOVERNMENT"
	EventPrivate    EventCategory = "PRIVATE"
	EventCommercial EventCategory = "COMMERCIAL"
	EventNonProfit  EventCategory = "NON_PROFIT"
)

func (c EventCategory) Valid() bool {
	switch c {
	case EventGovernment, EventPrivate, EventCommercial, EventNonProfit:
		return true
	}
	return false
}

// BookingRequest is a reservation of one resource over [ScheduleStart, ScheduleEnd).
type BookingRequest struct {
	ID                int64         `json:"id"`
	ReferenceNo       string        `json:"reference_no"`
	ResourceID        int64         `json:"resource_id"`
	ApplicantUserID   int64         `json:"applicant_user_id"`
	ApplicantName     string        `json:"applicant_name"`
	ApplicantEmail    string        `json:"applicant_email"`
	ApplicantPhone    string        `json:"applicant_phone,omitempty"`
	Purpose           string        `json:"purpose"`
	EventCategory     EventCategory `json:"event_category"`
	ExpectedAttendees int           `json:"expected_attendees"`
	ScheduleStart     time.Time     `json:"schedule_start"`
	ScheduleEnd       time.Time     `json:"schedule_end"`
	Status            BookingStatus `json:"status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	Amount            float64       `json:"amount"`
	Remarks           string        `json:"remarks,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty"`
	RejectedAt        *time.Time    `json:"rejected_at,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

func (b BookingRequest) Window() Interval {
	return Interval{Start: b.ScheduleStart, End: b.ScheduleEnd}
}
