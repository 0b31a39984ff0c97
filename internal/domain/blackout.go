package domain

import "time"

type BlackoutCategory string

const (
	BlackoutMaintenance BlackoutCategory = "MAINTENANCE"
	BlackoutReserved    BlackoutCategory = "RESERVED"
	BlackoutOther       BlackoutCategory = "OTHER"
)

const DateLayout = "2006-01-02"

// BlackoutWindow blocks a resource for whole calendar days.
// StartDate and EndDate are both inclusive.
type BlackoutWindow struct {
	ID         int64            `json:"id"`
	ResourceID int64            `json:"resource_id" validate:"required,gt=0"`
	StartDate  time.Time        `json:"start_date" validate:"required"`
	EndDate    time.Time        `json:"end_date" validate:"required"`
	Reason     string           `json:"reason" validate:"required,max=500"`
	Category   BlackoutCategory `json:"category" validate:"required,oneof=MAINTENANCE RESERVED OTHER"`
	CreatedBy  int64            `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ValidRange reports whether StartDate <= EndDate when compared as calendar dates.
func (w BlackoutWindow) ValidRange() bool {
	s := truncateDate(w.StartDate, time.UTC)
	e := truncateDate(w.EndDate, time.UTC)
	return !e.Before(s)
}

// Interval converts the inclusive date range into the half-open instant range
// [StartDate 00:00, EndDate+1 00:00) in loc.
func (w BlackoutWindow) Interval(loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	start := truncateDate(w.StartDate, loc)
	end := truncateDate(w.EndDate, loc).AddDate(0, 0, 1)
	return Interval{Start: start, End: end}
}

// truncateDate keeps the calendar date as written and pins it to midnight in loc.
func truncateDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
