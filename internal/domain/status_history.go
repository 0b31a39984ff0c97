package domain

import "time"

type HistoryKind string

const (
	HistorySubmission HistoryKind = "SUBMISSION"
	HistoryTransition HistoryKind = "TRANSITION"
	HistoryOverride   HistoryKind = "OVERRIDE"
	HistorySelfCancel HistoryKind = "SELF_CANCEL"
	HistoryWithdrawal HistoryKind = "WITHDRAWAL"
	HistoryReschedule HistoryKind = "RESCHEDULE"
)

// StatusHistoryEntry is an append-only audit record of one booking change.
// FromStatus is empty for the submission entry.
type StatusHistoryEntry struct {
	ID         int64         `json:"id"`
	BookingID  int64         `json:"booking_id"`
	FromStatus BookingStatus `json:"from_status,omitempty"`
	ToStatus   BookingStatus `json:"to_status"`
	Kind       HistoryKind   `json:"kind"`
	ActorID    int64         `json:"actor_id"`
	ActorRole  string        `json:"actor_role"`
	Remarks    string        `json:"remarks,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Actor identifies who performed a change.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

const (
	RoleCitizen = "citizen"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}
