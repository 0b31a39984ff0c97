// Package booking runs the reservation lifecycle: admission through the
// availability engine, staff transitions and overrides, applicant
// cancellation, rescheduling and payment tracking.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/events"
	"facilityhub/internal/modules/availability"
	"facilityhub/internal/repository"

	"github.com/google/uuid"
)

const maxReferenceAttempts = 3

// publishTimeout bounds how long a request waits on the event broker.
const publishTimeout = 3 * time.Second

type Service struct {
	bookings  BookingRepository
	history   HistoryRepository
	resources ResourceRepository
	engine    AvailabilityChecker
	locker    SlotLocker
	events    EventPublisher
	now       func() time.Time
}

type Option func(*Service)

func WithSlotLocker(l SlotLocker) Option {
	return func(s *Service) { s.locker = l }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	bookings BookingRepository,
	history HistoryRepository,
	resources ResourceRepository,
	engine AvailabilityChecker,
	opts ...Option,
) *Service {
	s := &Service{
		bookings:  bookings,
		history:   history,
		resources: resources,
		engine:    engine,
		events:    events.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit admits a new request in PENDING_REVIEW or returns a *ConflictError
// listing every overlapping booking and blackout.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, req SubmitRequest) (*domain.BookingRequest, error) {
	if err := s.validateWindow(req.ScheduleStart, req.ScheduleEnd); err != nil {
		return nil, err
	}
	if !req.EventCategory.Valid() {
		return nil, validationf("unknown event category %q", req.EventCategory)
	}
	if req.ExpectedAttendees < 0 {
		return nil, validationf("expected attendees must not be negative")
	}

	res, err := s.bookableResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedAttendees > res.Capacity {
		return nil, validationf("expected attendees exceed capacity of %d", res.Capacity)
	}

	unlock, err := s.lock(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	check := availability.CheckRequest{ResourceID: res.ID, Start: req.ScheduleStart, End: req.ScheduleEnd}
	result, err := s.engine.Check(ctx, check)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, &ConflictError{Result: result}
	}

	payment := domain.PaymentUnpaid
	if req.EventCategory == domain.EventGovernment {
		payment = domain.PaymentExempt
	}

	b := &domain.BookingRequest{
		ResourceID:        res.ID,
		ApplicantUserID:   actor.UserID,
		ApplicantName:     strings.TrimSpace(req.ApplicantName),
		ApplicantEmail:    strings.TrimSpace(req.ApplicantEmail),
		ApplicantPhone:    strings.TrimSpace(req.ApplicantPhone),
		Purpose:           strings.TrimSpace(req.Purpose),
		EventCategory:     req.EventCategory,
		ExpectedAttendees: req.ExpectedAttendees,
		ScheduleStart:     req.ScheduleStart,
		ScheduleEnd:       req.ScheduleEnd,
		Status:            domain.BookingPendingReview,
		PaymentStatus:     payment,
		Amount:            availability.ComputePaymentAmount(*res, req.ScheduleStart, req.ScheduleEnd, req.EventCategory),
		Remarks:           req.Remarks,
	}
	entry := domain.StatusHistoryEntry{
		ToStatus:  domain.BookingPendingReview,
		Kind:      domain.HistorySubmission,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		CreatedAt: s.now().UTC(),
	}

	for attempt := 1; ; attempt++ {
		b.ReferenceNo = newReferenceNo()
		err = s.bookings.CreateAdmitted(ctx, b, entry)
		if errors.Is(err, repository.ErrDuplicate) && attempt < maxReferenceAttempts {
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, s.lateConflict(ctx, check)
		}
		return nil, err
	}

	s.publish(ctx, events.TypeSubmitted, b, "", actor)
	return b, nil
}

// Transition applies a normal staff move along the state machine.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, bookingID int64, req TransitionRequest) (*domain.BookingRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, b.Status, req.Status)
	}

	updated, err := s.bookings.ChangeStatus(ctx, repository.StatusChange{
		BookingID: b.ID,
		From:      b.Status,
		To:        req.Status,
		Entry: domain.StatusHistoryEntry{
			FromStatus: b.Status,
			ToStatus:   req.Status,
			Kind:       domain.HistoryTransition,
			ActorID:    actor.UserID,
			ActorRole:  actor.Role,
			Remarks:    req.Remarks,
		},
		At: s.now().UTC(),
	})
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	s.publish(ctx, events.TypeStatusChanged, updated, b.Status, actor)
	return updated, nil
}

// Override forces any status other than the current one. A justification is
// mandatory and recorded. Re-activating a booking runs the conflict check
// against everything but itself.
func (s *Service) Override(ctx context.Context, actor domain.Actor, bookingID int64, req OverrideRequest) (*domain.BookingRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	justification := strings.TrimSpace(req.Justification)
	if justification == "" {
		return nil, ErrJustificationRequired
	}
	if !req.Status.Valid() {
		return nil, validationf("unknown status %q", req.Status)
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == req.Status {
		return nil, fmt.Errorf("%w: booking is already %s", ErrInvalidStatusTransition, b.Status)
	}

	recheck := needsRecheck(b.Status, req.Status)
	check := availability.CheckRequest{
		ResourceID:       b.ResourceID,
		Start:            b.ScheduleStart,
		End:              b.ScheduleEnd,
		ExcludeBookingID: &b.ID,
	}
	if recheck {
		unlock, err := s.lock(ctx, b.ResourceID)
		if err != nil {
			return nil, err
		}
		defer unlock()

		result, err := s.engine.Check(ctx, check)
		if err != nil {
			return nil, err
		}
		if !result.Available {
			return nil, &ConflictError{Result: result}
		}
	}

	updated, err := s.bookings.ChangeStatus(ctx, repository.StatusChange{
		BookingID: b.ID,
		From:      b.Status,
		To:        req.Status,
		Recheck:   recheck,
		Entry: domain.StatusHistoryEntry{
			FromStatus: b.Status,
			ToStatus:   req.Status,
			Kind:       domain.HistoryOverride,
			ActorID:    actor.UserID,
			ActorRole:  actor.Role,
			Remarks:    justification,
		},
		At: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, s.lateConflict(ctx, check)
		}
		return nil, s.mapStoreError(err)
	}

	log.Printf("booking_override booking_id=%d from=%s to=%s actor_id=%d", b.ID, b.Status, req.Status, actor.UserID)
	s.publish(ctx, events.TypeOverridden, updated, b.Status, actor)
	return updated, nil
}

// CancelByApplicant lets the applicant cancel while the request is still
// under review or awaiting payment.
func (s *Service) CancelByApplicant(ctx context.Context, actor domain.Actor, bookingID int64, req CancelRequest) (*domain.BookingRequest, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ApplicantUserID != actor.UserID {
		return nil, ErrForbidden
	}
	if !selfCancellable[b.Status] {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidStatusTransition, b.Status)
	}

	updated, err := s.bookings.ChangeStatus(ctx, repository.StatusChange{
		BookingID: b.ID,
		From:      b.Status,
		To:        domain.BookingCancelled,
		Entry: domain.StatusHistoryEntry{
			FromStatus: b.Status,
			ToStatus:   domain.BookingCancelled,
			Kind:       domain.HistorySelfCancel,
			ActorID:    actor.UserID,
			ActorRole:  actor.Role,
			Remarks:    req.Remarks,
		},
		At: s.now().UTC(),
	})
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	s.publish(ctx, events.TypeCancelled, updated, b.Status, actor)
	return updated, nil
}

// Withdraw physically removes a request the applicant no longer wants while
// it is still PENDING_REVIEW. The audit entry is kept.
func (s *Service) Withdraw(ctx context.Context, actor domain.Actor, bookingID int64) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ApplicantUserID != actor.UserID {
		return ErrForbidden
	}
	if b.Status != domain.BookingPendingReview {
		return fmt.Errorf("%w: only pending requests can be withdrawn", ErrInvalidStatusTransition)
	}

	err = s.bookings.Withdraw(ctx, b.ID, b.Status, domain.StatusHistoryEntry{
		FromStatus: b.Status,
		ToStatus:   domain.BookingCancelled,
		Kind:       domain.HistoryWithdrawal,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return s.mapStoreError(err)
	}

	withdrawn := *b
	withdrawn.Status = domain.BookingCancelled
	s.publish(ctx, events.TypeWithdrawn, &withdrawn, b.Status, actor)
	return nil
}

// Reschedule moves an active booking to a new window and re-bills it.
func (s *Service) Reschedule(ctx context.Context, actor domain.Actor, bookingID int64, req RescheduleRequest) (*domain.BookingRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if err := s.validateWindow(req.ScheduleStart, req.ScheduleEnd); err != nil {
		return nil, err
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidStatusTransition, b.Status)
	}
	res, err := s.bookableResource(ctx, b.ResourceID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, b.ResourceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	check := availability.CheckRequest{
		ResourceID:       b.ResourceID,
		Start:            req.ScheduleStart,
		End:              req.ScheduleEnd,
		ExcludeBookingID: &b.ID,
	}
	result, err := s.engine.Check(ctx, check)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, &ConflictError{Result: result}
	}

	updated, err := s.bookings.Reschedule(ctx, repository.ScheduleChange{
		BookingID: b.ID,
		From:      b.Status,
		Window:    check.Window(),
		Amount:    availability.ComputePaymentAmount(*res, req.ScheduleStart, req.ScheduleEnd, b.EventCategory),
		Entry: domain.StatusHistoryEntry{
			FromStatus: b.Status,
			ToStatus:   b.Status,
			Kind:       domain.HistoryReschedule,
			ActorID:    actor.UserID,
			ActorRole:  actor.Role,
			Remarks:    rescheduleRemarks(b, req),
		},
		At: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, s.lateConflict(ctx, check)
		}
		return nil, s.mapStoreError(err)
	}

	s.publish(ctx, events.TypeRescheduled, updated, b.Status, actor)
	return updated, nil
}

func rescheduleRemarks(b *domain.BookingRequest, req RescheduleRequest) string {
	moved := fmt.Sprintf("moved from %s/%s to %s/%s",
		b.ScheduleStart.UTC().Format(time.RFC3339), b.ScheduleEnd.UTC().Format(time.RFC3339),
		req.ScheduleStart.UTC().Format(time.RFC3339), req.ScheduleEnd.UTC().Format(time.RFC3339))
	if r := strings.TrimSpace(req.Remarks); r != "" {
		return moved + ": " + r
	}
	return moved
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, actor domain.Actor, bookingID int64, req PaymentStatusRequest) (*domain.BookingRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if !req.PaymentStatus.Valid() {
		return nil, validationf("unknown payment status %q", req.PaymentStatus)
	}

	updated, err := s.bookings.UpdatePaymentStatus(ctx, bookingID, req.PaymentStatus)
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	s.publish(ctx, events.TypePaymentUpdated, updated, updated.Status, actor)
	return updated, nil
}

// CheckAvailability answers the citizen pre-check and quotes the amount for
// the same window.
func (s *Service) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityResponse, error) {
	if !q.Start.Before(q.End) {
		return nil, validationf("schedule end must be after start")
	}
	res, err := s.bookableResource(ctx, q.ResourceID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Check(ctx, availability.CheckRequest{
		ResourceID:       q.ResourceID,
		Start:            q.Start,
		End:              q.End,
		ExcludeBookingID: q.ExcludeBookingID,
	})
	if err != nil {
		return nil, err
	}

	category := q.EventCategory
	if category == "" {
		category = domain.EventPrivate
	}
	return &AvailabilityResponse{
		Result:        result,
		BillableHours: availability.BillableHours(q.Start, q.End),
		Amount:        availability.ComputePaymentAmount(*res, q.Start, q.End, category),
	}, nil
}

// Get returns the booking to its applicant or to staff.
func (s *Service) Get(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.BookingRequest, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && b.ApplicantUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

// GetByReference looks a booking up by the reference number handed to the
// applicant, with the same access rule as Get.
func (s *Service) GetByReference(ctx context.Context, actor domain.Actor, ref string) (*domain.BookingRequest, error) {
	b, err := s.bookings.GetByReference(ctx, ref)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	if !actor.IsStaff() && b.ApplicantUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

// History returns the audit trail. Staff can read it for withdrawn
// bookings whose row no longer exists.
func (s *Service) History(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, actor, bookingID); err != nil {
		if !(errors.Is(err, ErrNotFound) && actor.IsStaff()) {
			return nil, err
		}
	}
	entries, err := s.history.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

func (s *Service) ListByResource(ctx context.Context, actor domain.Actor, resourceID int64, from, to time.Time) ([]domain.BookingRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, validationf("from must be before to")
	}
	return s.bookings.ListByResource(ctx, resourceID, from, to)
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.BookingRequest, error) {
	return s.bookings.ListByApplicant(ctx, actor.UserID, limit, offset)
}

func (s *Service) validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationf("schedule start and end are required")
	}
	if !start.Before(end) {
		return validationf("schedule end must be after start")
	}
	if !start.After(s.now()) {
		return validationf("schedule start must be in the future")
	}
	return nil
}

func (s *Service) bookableResource(ctx context.Context, id int64) (*domain.Resource, error) {
	if id <= 0 {
		return nil, ErrResourceNotFound
	}
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if !res.IsActive {
		return nil, ErrResourceInactive
	}
	return res, nil
}

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return b, nil
}

func (s *Service) lock(ctx context.Context, resourceID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, resourceID)
}

// lateConflict re-reads the conflict set after the store rejected a write
// the pre-check had admitted, so the caller sees the same shape either way.
func (s *Service) lateConflict(ctx context.Context, check availability.CheckRequest) error {
	result, err := s.engine.Check(ctx, check)
	if err != nil {
		log.Printf("late_conflict_recheck_failed resource_id=%d error=%v", check.ResourceID, err)
		result = &availability.Result{
			ConflictingBookings:  []domain.BookingRequest{},
			ConflictingBlackouts: []domain.BlackoutWindow{},
		}
	}
	result.Available = false
	return &ConflictError{Result: result, Late: true}
}

func (s *Service) mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleStatus):
		return ErrConcurrentUpdate
	case errors.Is(err, repository.ErrSlotTaken):
		return &ConflictError{Late: true}
	}
	return err
}

func (s *Service) publish(ctx context.Context, typ string, b *domain.BookingRequest, from domain.BookingStatus, actor domain.Actor) {
	e := events.NewBookingEvent(typ, b, from, actor, s.now().UTC())
	// The change is committed; a client disconnect must not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, e); err != nil {
		log.Printf("booking_event_publish_failed type=%s booking_id=%d error=%v", typ, b.ID, err)
	}
}

// newReferenceNo returns an applicant-facing id such as FR-1A2B3C4D.
func newReferenceNo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "FR-" + strings.ToUpper(id[:8])
}
