package availability

import (
	"math"
	"time"

	"facilityhub/internal/domain"
)

// BillableHours rounds the window up to whole hours. A 61 minute window
// bills as two hours.
func BillableHours(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}

// ComputePaymentAmount bills the same window the engine admitted.
// Government events are exempt.
func ComputePaymentAmount(resource domain.Resource, start, end time.Time, category domain.EventCategory) float64 {
	if category == domain.EventGovernment {
		return 0
	}
	total := float64(BillableHours(start, end)) * resource.HourlyRate
	return math.Round(total*100) / 100
}
