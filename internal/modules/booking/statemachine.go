package booking

import "facilityhub/internal/domain"

// transitions lists the normal staff moves. Forward skips are allowed so an
// exempt booking can go straight to APPROVED.
var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPendingReview: {
		domain.BookingAwaitingRequirements,
		domain.BookingAwaitingPayment,
		domain.BookingApproved,
		domain.BookingRejected,
		domain.BookingCancelled,
	},
	domain.BookingAwaitingRequirements: {
		domain.BookingAwaitingPayment,
		domain.BookingApproved,
		domain.BookingRejected,
		domain.BookingCancelled,
	},
	domain.BookingAwaitingPayment: {
		domain.BookingApproved,
		domain.BookingRejected,
		domain.BookingCancelled,
	},
	domain.BookingApproved: {
		domain.BookingCompleted,
		domain.BookingNoShow,
		domain.BookingRejected,
		domain.BookingCancelled,
	},
}

// selfCancellable are the states an applicant may cancel from.
var selfCancellable = map[domain.BookingStatus]bool{
	domain.BookingPendingReview:   true,
	domain.BookingAwaitingPayment: true,
}

func CanTransition(from, to domain.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func AllowedTransitions(from domain.BookingStatus) []domain.BookingStatus {
	out := make([]domain.BookingStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// needsRecheck reports whether moving from -> to makes the booking occupy a
// slot it did not hold. Moves between active states keep the slot, and
// COMPLETED/NO_SHOW are historical.
func needsRecheck(from, to domain.BookingStatus) bool {
	return to.IsActive() && !from.IsActive()
}
