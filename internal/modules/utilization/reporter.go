// Package utilization rolls booking activity up into per-resource usage figures.
package utilization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/repository"
)

var (
	ErrInvalidWindow    = errors.New("invalid report window")
	ErrResourceNotFound = errors.New("resource not found")
)

type ResourceReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Resource, error)
}

// BookingReader returns bookings of any status overlapping [from, to).
type BookingReader interface {
	ListByResource(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.BookingRequest, error)
}

type BlackoutReader interface {
	ListByResource(ctx context.Context, resourceID int64) ([]domain.BlackoutWindow, error)
}

// Report is the usage of one resource over [From, To).
//
// UtilizationPercent is BookedHours / AvailableHours * 100, where
// AvailableHours is the window minus blacked-out time. Only bookings in the
// active status set count towards BookedHours and ActiveBookings.
type Report struct {
	ResourceID         int64                        `json:"resource_id"`
	ResourceName       string                       `json:"resource_name"`
	From               time.Time                    `json:"from"`
	To                 time.Time                    `json:"to"`
	ActiveBookings     int                          `json:"active_bookings"`
	BookedHours        float64                      `json:"booked_hours"`
	BlackoutHours      float64                      `json:"blackout_hours"`
	AvailableHours     float64                      `json:"available_hours"`
	UtilizationPercent float64                      `json:"utilization_percent"`
	StatusCounts       map[domain.BookingStatus]int `json:"status_counts"`
	CollectedAmount    float64                      `json:"collected_amount"`
}

type Reporter struct {
	resources ResourceReader
	bookings  BookingReader
	blackouts BlackoutReader
	loc       *time.Location
}

// NewReporter builds a reporter. loc is the facility time zone used to turn
// blackout dates into instants; nil means UTC.
func NewReporter(resources ResourceReader, bookings BookingReader, blackouts BlackoutReader, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Reporter{resources: resources, bookings: bookings, blackouts: blackouts, loc: loc}
}

func (r *Reporter) Location() *time.Location { return r.loc }

// DateWindow turns inclusive calendar dates into [from 00:00, to+1 00:00) in
// the facility time zone, the same convention blackout windows use.
func (r *Reporter) DateWindow(from, to time.Time) domain.Interval {
	w := domain.BlackoutWindow{StartDate: from, EndDate: to}
	return w.Interval(r.loc)
}

func (r *Reporter) Report(ctx context.Context, resourceID int64, from, to time.Time) (*Report, error) {
	window := domain.Interval{Start: from, End: to}
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}
	res, err := r.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return r.build(ctx, res, window)
}

// ReportAll reports every resource, inactive ones included, ordered by name.
func (r *Reporter) ReportAll(ctx context.Context, from, to time.Time) ([]Report, error) {
	window := domain.Interval{Start: from, End: to}
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}
	list, err := r.resources.List(ctx, false)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	out := make([]Report, 0, len(list))
	for i := range list {
		rep, err := r.build(ctx, &list[i], window)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, nil
}

func (r *Reporter) build(ctx context.Context, res *domain.Resource, window domain.Interval) (*Report, error) {
	bookings, err := r.bookings.ListByResource(ctx, res.ID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("bookings: %w", err)
	}
	blackouts, err := r.blackouts.ListByResource(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("blackouts: %w", err)
	}

	rep := &Report{
		ResourceID:   res.ID,
		ResourceName: res.Name,
		From:         window.Start,
		To:           window.End,
		StatusCounts: make(map[domain.BookingStatus]int),
	}

	var booked time.Duration
	for _, b := range bookings {
		if b.ResourceID != res.ID {
			continue
		}
		clipped, ok := b.Window().Clip(window)
		if !ok {
			continue
		}
		rep.StatusCounts[b.Status]++
		if b.PaymentStatus == domain.PaymentPaid {
			rep.CollectedAmount += b.Amount
		}
		if b.Status.IsActive() {
			rep.ActiveBookings++
			booked += clipped.Duration()
		}
	}

	spans := make([]domain.Interval, 0, len(blackouts))
	for _, w := range blackouts {
		if clipped, ok := w.Interval(r.loc).Clip(window); ok {
			spans = append(spans, clipped)
		}
	}
	blocked := mergedDuration(spans)
	available := window.Duration() - blocked

	rep.BookedHours = round2(booked.Hours())
	rep.BlackoutHours = round2(blocked.Hours())
	rep.AvailableHours = round2(available.Hours())
	rep.CollectedAmount = round2(rep.CollectedAmount)
	if available > 0 {
		rep.UtilizationPercent = round2(float64(booked) / float64(available) * 100)
	}
	return rep, nil
}

// mergedDuration sums the union of spans so overlapping blackouts count once.
func mergedDuration(spans []domain.Interval) time.Duration {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

	var total time.Duration
	cur := spans[0]
	for _, s := range spans[1:] {
		if !s.Start.After(cur.End) {
			if s.End.After(cur.End) {
				cur.End = s.End
			}
			continue
		}
		total += cur.Duration()
		cur = s
	}
	return total + cur.Duration()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
