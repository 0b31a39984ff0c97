package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(minutes int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func iv(a, b int) Interval {
	return Interval{Start: at(a), End: at(b)}
}

func TestInterval_OverlapsIsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"touching", iv(0, 60), iv(60, 120), false},
		{"disjoint", iv(0, 30), iv(90, 120), false},
		{"containment", iv(0, 120), iv(30, 60), true},
		{"left edge", iv(0, 60), iv(30, 90), true},
		{"right edge", iv(30, 90), iv(0, 60), true},
		{"identical", iv(10, 20), iv(10, 20), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.a.Overlaps(tc.b), tc.b.Overlaps(tc.a))
		})
	}
}

func TestInterval_Clip(t *testing.T) {
	got, ok := iv(0, 120).Clip(iv(60, 90))
	assert.True(t, ok)
	assert.Equal(t, iv(60, 90), got)

	_, ok = iv(0, 60).Clip(iv(60, 90))
	assert.False(t, ok)
}

func TestBlackoutWindow_IntervalCoversWholeDays(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	w := BlackoutWindow{
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	got := w.Interval(manila)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, manila), got.Start)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, manila), got.End)
	assert.True(t, w.ValidRange())

	single := BlackoutWindow{StartDate: w.StartDate, EndDate: w.StartDate}
	assert.True(t, single.ValidRange())
	assert.Equal(t, 24*time.Hour, single.Interval(time.UTC).Duration())

	reversed := BlackoutWindow{StartDate: w.EndDate, EndDate: w.StartDate}
	assert.False(t, reversed.ValidRange())
}

func TestBookingStatus_ActiveSet(t *testing.T) {
	for _, s := range []BookingStatus{BookingPendingReview, BookingAwaitingRequirements, BookingAwaitingPayment, BookingApproved} {
		assert.True(t, s.IsActive(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []BookingStatus{BookingRejected, BookingCancelled, BookingCompleted, BookingNoShow} {
		assert.False(t, s.IsActive(), s)
		assert.True(t, s.IsTerminal(), s)
	}
	assert.Len(t, ActiveStatusStrings(), 4)
}
