package utilization

import (
	"context"
	"errors"
	"testing"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResources struct {
	list []domain.Resource
}

func (f *fakeResources) GetByID(_ context.Context, id int64) (*domain.Resource, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			res := f.list[i]
			return &res, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResources) List(_ context.Context, _ bool) ([]domain.Resource, error) {
	return append([]domain.Resource(nil), f.list...), nil
}

// fakeBookings ignores the window so the reporter's own clipping is tested.
type fakeBookings struct {
	rows []domain.BookingRequest
	err  error
}

func (f *fakeBookings) ListByResource(_ context.Context, resourceID int64, _, _ time.Time) ([]domain.BookingRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.BookingRequest
	for _, b := range f.rows {
		if b.ResourceID == resourceID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeBlackouts struct {
	rows []domain.BlackoutWindow
}

func (f *fakeBlackouts) ListByResource(_ context.Context, resourceID int64) ([]domain.BlackoutWindow, error) {
	var out []domain.BlackoutWindow
	for _, w := range f.rows {
		if w.ResourceID == resourceID {
			out = append(out, w)
		}
	}
	return out, nil
}

func ts(day, hour int) time.Time {
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func date(day int) time.Time {
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

func booking(id int64, start, end time.Time, status domain.BookingStatus, pay domain.PaymentStatus, amount float64) domain.BookingRequest {
	return domain.BookingRequest{
		ID:            id,
		ResourceID:    1,
		ScheduleStart: start,
		ScheduleEnd:   end,
		Status:        status,
		PaymentStatus: pay,
		Amount:        amount,
	}
}

func newTestReporter(bookings *fakeBookings) *Reporter {
	resources := &fakeResources{list: []domain.Resource{
		{ID: 1, Name: "Covered Court", IsActive: true},
		{ID: 2, Name: "Audio Visual Room", IsActive: false},
	}}
	blackouts := &fakeBlackouts{rows: []domain.BlackoutWindow{
		{ID: 1, ResourceID: 1, StartDate: date(2), EndDate: date(2), Category: domain.BlackoutMaintenance},
		{ID: 2, ResourceID: 1, StartDate: date(2), EndDate: date(3), Category: domain.BlackoutReserved},
	}}
	return NewReporter(resources, bookings, blackouts, time.UTC)
}

func TestReport(t *testing.T) {
	bookings := &fakeBookings{rows: []domain.BookingRequest{
		booking(1, ts(1, 9), ts(1, 12), domain.BookingApproved, domain.PaymentPaid, 1500),
		booking(2, ts(1, 13), ts(1, 15), domain.BookingPendingReview, domain.PaymentUnpaid, 1000),
		booking(3, ts(1, 15), ts(1, 17), domain.BookingRejected, domain.PaymentRefunded, 1000),
		// Starts before the window; only one hour falls inside.
		booking(4, time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC), ts(1, 1), domain.BookingApproved, domain.PaymentPaid, 1000),
		booking(5, ts(5, 9), ts(5, 10), domain.BookingApproved, domain.PaymentPaid, 500),
	}}
	r := newTestReporter(bookings)
	window := r.DateWindow(date(1), date(2))

	rep, err := r.Report(context.Background(), 1, window.Start, window.End)
	require.NoError(t, err)

	assert.Equal(t, "Covered Court", rep.ResourceName)
	assert.Equal(t, 3, rep.ActiveBookings)
	assert.Equal(t, 6.0, rep.BookedHours)
	// Two blackouts both cover the 2nd; the 3rd is outside the window.
	assert.Equal(t, 24.0, rep.BlackoutHours)
	assert.Equal(t, 24.0, rep.AvailableHours)
	assert.Equal(t, 25.0, rep.UtilizationPercent)
	assert.Equal(t, 2500.0, rep.CollectedAmount)
	assert.Equal(t, map[domain.BookingStatus]int{
		domain.BookingApproved:      2,
		domain.BookingPendingReview: 1,
		domain.BookingRejected:      1,
	}, rep.StatusCounts)
}

func TestReportFullyBlackedOut(t *testing.T) {
	r := newTestReporter(&fakeBookings{})
	window := r.DateWindow(date(2), date(3))

	rep, err := r.Report(context.Background(), 1, window.Start, window.End)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.AvailableHours)
	assert.Equal(t, 0.0, rep.UtilizationPercent)
}

func TestReportErrors(t *testing.T) {
	ctx := context.Background()
	r := newTestReporter(&fakeBookings{})

	_, err := r.Report(ctx, 1, ts(2, 0), ts(1, 0))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = r.Report(ctx, 99, ts(1, 0), ts(2, 0))
	assert.ErrorIs(t, err, ErrResourceNotFound)

	failing := newTestReporter(&fakeBookings{err: errors.New("connection reset")})
	_, err = failing.Report(ctx, 1, ts(1, 0), ts(2, 0))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrResourceNotFound)
}

func TestReportAllSortsByName(t *testing.T) {
	r := newTestReporter(&fakeBookings{rows: []domain.BookingRequest{
		booking(1, ts(1, 8), ts(1, 20), domain.BookingApproved, domain.PaymentExempt, 0),
	}})
	window := r.DateWindow(date(1), date(1))

	list, err := r.ReportAll(context.Background(), window.Start, window.End)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Audio Visual Room", list[0].ResourceName)
	assert.Equal(t, 0.0, list[0].UtilizationPercent)
	assert.Equal(t, 50.0, list[1].UtilizationPercent)
	assert.Zero(t, list[1].CollectedAmount)
}

func TestDateWindowUsesFacilityZone(t *testing.T) {
	pht := time.FixedZone("PHT", 8*3600)
	r := NewReporter(&fakeResources{}, &fakeBookings{}, &fakeBlackouts{}, pht)

	w := r.DateWindow(date(1), date(1))
	assert.Equal(t, time.Date(2025, 2, 28, 16, 0, 0, 0, time.UTC), w.Start.UTC())
	assert.Equal(t, 24*time.Hour, w.Duration())
}

func TestMergedDuration(t *testing.T) {
	spans := []domain.Interval{
		{Start: ts(1, 10), End: ts(1, 12)},
		{Start: ts(1, 0), End: ts(1, 2)},
		{Start: ts(1, 11), End: ts(1, 14)},
		{Start: ts(1, 14), End: ts(1, 15)},
	}
	assert.Equal(t, 7*time.Hour, mergedDuration(spans))
	assert.Zero(t, mergedDuration(nil))
}
