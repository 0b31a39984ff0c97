package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"facilityhub/internal/domain"
	"facilityhub/internal/events"
	"facilityhub/internal/modules/availability"
	"facilityhub/internal/repository"
	"facilityhub/internal/slotlock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repositories
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateAdmitted(ctx context.Context, b *domain.BookingRequest, entry domain.StatusHistoryEntry) error {
	args := m.Called(ctx, b, entry)
	if args.Error(0) == nil {
		b.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, ref string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) ChangeStatus(ctx context.Context, ch repository.StatusChange) (*domain.BookingRequest, error) {
	args := m.Called(ctx, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) Reschedule(ctx context.Context, ch repository.ScheduleChange) (*domain.BookingRequest, error) {
	args := m.Called(ctx, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) Withdraw(ctx context.Context, id int64, from domain.BookingStatus, entry domain.StatusHistoryEntry) error {
	return m.Called(ctx, id, from, entry).Error(0)
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.BookingRequest, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) ListByApplicant(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) ListByResource(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, resourceID, from, to)
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) ListByBooking(ctx context.Context, id int64) ([]domain.StatusHistoryEntry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.StatusHistoryEntry), args.Error(1)
}

type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Check(ctx context.Context, req availability.CheckRequest) (*availability.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availability.Result), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.BookingEvent) error {
	return m.Called(ctx, e).Error(0)
}

type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Lock(ctx context.Context, resourceID int64) (func(), error) {
	args := m.Called(ctx, resourceID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}

var (
	fixedNow = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	citizen  = domain.Actor{UserID: 7, Role: domain.RoleCitizen}
	staff    = domain.Actor{UserID: 1, Role: domain.RoleStaff}
)

type fixture struct {
	bookings  *MockBookingRepository
	history   *MockHistoryRepository
	resources *MockResourceRepository
	engine    *MockEngine
	events    *MockPublisher
	svc       *Service
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		bookings:  new(MockBookingRepository),
		history:   new(MockHistoryRepository),
		resources: new(MockResourceRepository),
		engine:    new(MockEngine),
		events:    new(MockPublisher),
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithPublisher(f.events)}, opts...)
	f.svc = NewService(f.bookings, f.history, f.resources, f.engine, opts...)
	return f
}

func at(day, hour int) time.Time {
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func court() *domain.Resource {
	return &domain.Resource{ID: 1, Name: "Covered Court", Capacity: 200, HourlyRate: 500, IsActive: true}
}

func available() *availability.Result {
	return &availability.Result{Available: true, ConflictingBookings: []domain.BookingRequest{}, ConflictingBlackouts: []domain.BlackoutWindow{}}
}

func conflictWith(b domain.BookingRequest) *availability.Result {
	return &availability.Result{ConflictingBookings: []domain.BookingRequest{b}, ConflictingBlackouts: []domain.BlackoutWindow{}}
}

func submitReq(start, end time.Time, category domain.EventCategory) SubmitRequest {
	return SubmitRequest{
		ResourceID:        1,
		ApplicantName:     "Juan Dela Cruz",
		ApplicantEmail:    "juan@example.ph",
		Purpose:           "Basketball league",
		EventCategory:     category,
		ExpectedAttendees: 50,
		ScheduleStart:     start,
		ScheduleEnd:       end,
	}
}

func pending(id int64) *domain.BookingRequest {
	return &domain.BookingRequest{
		ID:              id,
		ReferenceNo:     "FR-0000000A",
		ResourceID:      1,
		ApplicantUserID: citizen.UserID,
		EventCategory:   domain.EventPrivate,
		ScheduleStart:   at(1, 9),
		ScheduleEnd:     at(1, 12),
		Status:          domain.BookingPendingReview,
		PaymentStatus:   domain.PaymentUnpaid,
	}
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, availability.CheckRequest{ResourceID: 1, Start: at(1, 12), End: at(1, 14)}).Return(available(), nil)
	f.bookings.On("CreateAdmitted", ctx, mock.AnythingOfType("*domain.BookingRequest"), mock.MatchedBy(func(e domain.StatusHistoryEntry) bool {
		return e.Kind == domain.HistorySubmission && e.ToStatus == domain.BookingPendingReview && e.ActorID == citizen.UserID
	})).Return(nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e events.BookingEvent) bool {
		return e.Type == events.TypeSubmitted && e.BookingID == 999
	})).Return(nil)

	b, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	require.NoError(t, err)
	assert.Equal(t, int64(999), b.ID)
	assert.Equal(t, domain.BookingPendingReview, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, 1000.0, b.Amount)
	assert.True(t, strings.HasPrefix(b.ReferenceNo, "FR-"))
	assert.Len(t, b.ReferenceNo, 11)

	f.bookings.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestSubmit_PublishOutlivesRequest(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil)

	var published context.Context
	var errAtPublish error
	f.events.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(0).(context.Context)
			errAtPublish = published.Err()
		}).
		Return(nil)

	_, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	require.NoError(t, err)

	require.NotNil(t, published)
	_, hasDeadline := published.Deadline()
	assert.True(t, hasDeadline)
	assert.NoError(t, errAtPublish)
}

func TestSubmit_GovernmentIsExempt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	b, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 9), at(1, 10).Add(30*time.Minute), domain.EventGovernment))
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Amount)
	assert.Equal(t, domain.PaymentExempt, b.PaymentStatus)
}

func TestSubmit_ConflictReturnsFullSet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	approved := domain.BookingRequest{ID: 5, ResourceID: 1, Status: domain.BookingApproved, ScheduleStart: at(1, 9), ScheduleEnd: at(1, 12)}
	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(conflictWith(approved), nil)

	_, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 11), at(1, 13), domain.EventPrivate))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAvailable)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.False(t, conflict.Late)
	require.Len(t, conflict.Result.ConflictingBookings, 1)
	assert.Equal(t, int64(5), conflict.Result.ConflictingBookings[0].ID)

	f.bookings.AssertNotCalled(t, "CreateAdmitted", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_RaceLostIsConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	winner := domain.BookingRequest{ID: 6, ResourceID: 1, Status: domain.BookingPendingReview, ScheduleStart: at(1, 12), ScheduleEnd: at(1, 14)}
	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil).Once()
	f.engine.On("Check", ctx, mock.Anything).Return(conflictWith(winner), nil).Once()
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(repository.ErrSlotTaken)

	_, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Late)
	assert.False(t, conflict.Result.Available)
	assert.Len(t, conflict.Result.ConflictingBookings, 1)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSubmit_RetriesDuplicateReference(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(repository.ErrDuplicate).Once()
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	b, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	require.NoError(t, err, "publish failures must not fail the booking")
	assert.Equal(t, int64(999), b.ID)
	f.bookings.AssertNumberOfCalls(t, "CreateAdmitted", 2)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		req   SubmitRequest
		setup func(f *fixture)
		want  error
	}{
		{"end before start", submitReq(at(1, 12), at(1, 10), domain.EventPrivate), nil, ErrValidation},
		{"zero length", submitReq(at(1, 12), at(1, 12), domain.EventPrivate), nil, ErrValidation},
		{"in the past", submitReq(fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour), domain.EventPrivate), nil, ErrValidation},
		{"bad category", submitReq(at(1, 9), at(1, 10), "PARTY"), nil, ErrValidation},
		{"unknown resource", submitReq(at(1, 9), at(1, 10), domain.EventPrivate), func(f *fixture) {
			f.resources.On("GetByID", ctx, int64(1)).Return(nil, repository.ErrNotFound)
		}, ErrResourceNotFound},
		{"inactive resource", submitReq(at(1, 9), at(1, 10), domain.EventPrivate), func(f *fixture) {
			r := court()
			r.IsActive = false
			f.resources.On("GetByID", ctx, int64(1)).Return(r, nil)
		}, ErrResourceInactive},
		{"over capacity", func() SubmitRequest {
			r := submitReq(at(1, 9), at(1, 10), domain.EventPrivate)
			r.ExpectedAttendees = 201
			return r
		}(), func(f *fixture) {
			f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
		}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.Submit(ctx, citizen, tc.req)
			assert.ErrorIs(t, err, tc.want)
			f.engine.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_LookupFailureIsNotAvailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(nil, availability.ErrLookupFailed)

	_, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	assert.ErrorIs(t, err, availability.ErrLookupFailed)
	assert.NotErrorIs(t, err, ErrNotAvailable)
	f.bookings.AssertNotCalled(t, "CreateAdmitted", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_SlotLocker(t *testing.T) {
	locker := new(MockLocker)
	f := newFixture(WithSlotLocker(locker))
	ctx := context.Background()

	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	locker.On("Lock", ctx, int64(1)).Return(slotlock.ErrResourceBusy).Once()
	_, err := f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	assert.ErrorIs(t, err, slotlock.ErrResourceBusy)

	locker.On("Lock", ctx, int64(1)).Return(nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)
	f.bookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	_, err = f.svc.Submit(ctx, citizen, submitReq(at(1, 12), at(1, 14), domain.EventPrivate))
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("citizen forbidden", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Transition(ctx, citizen, 10, TransitionRequest{Status: domain.BookingApproved})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("skip to completed rejected", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		_, err := f.svc.Transition(ctx, staff, 10, TransitionRequest{Status: domain.BookingCompleted})
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("approve", func(t *testing.T) {
		f := newFixture()
		approved := pending(10)
		approved.Status = domain.BookingApproved

		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		f.bookings.On("ChangeStatus", ctx, mock.MatchedBy(func(ch repository.StatusChange) bool {
			return ch.From == domain.BookingPendingReview && ch.To == domain.BookingApproved &&
				!ch.Recheck && ch.Entry.Kind == domain.HistoryTransition && ch.Entry.ActorID == staff.UserID
		})).Return(approved, nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		b, err := f.svc.Transition(ctx, staff, 10, TransitionRequest{Status: domain.BookingApproved})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingApproved, b.Status)
		f.engine.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("stale status", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		f.bookings.On("ChangeStatus", ctx, mock.Anything).Return(nil, repository.ErrStaleStatus)
		_, err := f.svc.Transition(ctx, staff, 10, TransitionRequest{Status: domain.BookingRejected})
		assert.ErrorIs(t, err, ErrConcurrentUpdate)
	})
}

func TestOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("justification required", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Override(ctx, staff, 10, OverrideRequest{Status: domain.BookingApproved, Justification: "   "})
		assert.ErrorIs(t, err, ErrJustificationRequired)
	})

	t.Run("same status", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		_, err := f.svc.Override(ctx, staff, 10, OverrideRequest{Status: domain.BookingPendingReview, Justification: "x"})
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("force complete skips check", func(t *testing.T) {
		f := newFixture()
		done := pending(10)
		done.Status = domain.BookingCompleted
		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		f.bookings.On("ChangeStatus", ctx, mock.MatchedBy(func(ch repository.StatusChange) bool {
			return !ch.Recheck && ch.Entry.Kind == domain.HistoryOverride && ch.Entry.Remarks == "event held early"
		})).Return(done, nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Override(ctx, staff, 10, OverrideRequest{Status: domain.BookingCompleted, Justification: "event held early"})
		require.NoError(t, err)
		f.engine.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("reactivation checks excluding self", func(t *testing.T) {
		f := newFixture()
		rejected := pending(10)
		rejected.Status = domain.BookingRejected
		other := domain.BookingRequest{ID: 11, ResourceID: 1, Status: domain.BookingApproved, ScheduleStart: at(1, 10), ScheduleEnd: at(1, 11)}

		f.bookings.On("GetByID", ctx, int64(10)).Return(rejected, nil)
		f.engine.On("Check", ctx, mock.MatchedBy(func(r availability.CheckRequest) bool {
			return r.ExcludeBookingID != nil && *r.ExcludeBookingID == 10
		})).Return(conflictWith(other), nil)

		_, err := f.svc.Override(ctx, staff, 10, OverrideRequest{Status: domain.BookingApproved, Justification: "appeal granted"})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, int64(11), conflict.Result.ConflictingBookings[0].ID)
		f.bookings.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything)
	})

	t.Run("reactivation recheck in store", func(t *testing.T) {
		f := newFixture()
		rejected := pending(10)
		rejected.Status = domain.BookingRejected
		approved := pending(10)
		approved.Status = domain.BookingApproved

		f.bookings.On("GetByID", ctx, int64(10)).Return(rejected, nil)
		f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)
		f.bookings.On("ChangeStatus", ctx, mock.MatchedBy(func(ch repository.StatusChange) bool {
			return ch.Recheck && ch.From == domain.BookingRejected
		})).Return(approved, nil)
		f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e events.BookingEvent) bool {
			return e.Type == events.TypeOverridden && e.FromStatus == domain.BookingRejected
		})).Return(nil)

		b, err := f.svc.Override(ctx, staff, 10, OverrideRequest{Status: domain.BookingApproved, Justification: "appeal granted"})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingApproved, b.Status)
		f.events.AssertExpectations(t)
	})
}

func TestCancelByApplicant(t *testing.T) {
	ctx := context.Background()

	t.Run("other user", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
		_, err := f.svc.CancelByApplicant(ctx, domain.Actor{UserID: 8, Role: domain.RoleCitizen}, 10, CancelRequest{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("approved cannot self cancel", func(t *testing.T) {
		f := newFixture()
		b := pending(10)
		b.Status = domain.BookingApproved
		f.bookings.On("GetByID", ctx, int64(10)).Return(b, nil)
		_, err := f.svc.CancelByApplicant(ctx, citizen, 10, CancelRequest{})
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("awaiting payment", func(t *testing.T) {
		f := newFixture()
		b := pending(10)
		b.Status = domain.BookingAwaitingPayment
		cancelled := pending(10)
		cancelled.Status = domain.BookingCancelled

		f.bookings.On("GetByID", ctx, int64(10)).Return(b, nil)
		f.bookings.On("ChangeStatus", ctx, mock.MatchedBy(func(ch repository.StatusChange) bool {
			return ch.To == domain.BookingCancelled && ch.Entry.Kind == domain.HistorySelfCancel
		})).Return(cancelled, nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.CancelByApplicant(ctx, citizen, 10, CancelRequest{Remarks: "change of plans"})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, got.Status)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	b := pending(10)
	b.Status = domain.BookingAwaitingRequirements
	f.bookings.On("GetByID", ctx, int64(10)).Return(b, nil).Once()
	assert.ErrorIs(t, f.svc.Withdraw(ctx, citizen, 10), ErrInvalidStatusTransition)

	f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
	f.bookings.On("Withdraw", ctx, int64(10), domain.BookingPendingReview, mock.MatchedBy(func(e domain.StatusHistoryEntry) bool {
		return e.Kind == domain.HistoryWithdrawal
	})).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.Withdraw(ctx, citizen, 10))
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	b := pending(10)
	b.Status = domain.BookingApproved

	f.bookings.On("GetByID", ctx, int64(10)).Return(b, nil)
	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.MatchedBy(func(r availability.CheckRequest) bool {
		return r.ExcludeBookingID != nil && *r.ExcludeBookingID == 10 && r.Start.Equal(at(1, 10))
	})).Return(available(), nil)
	f.bookings.On("Reschedule", ctx, mock.MatchedBy(func(ch repository.ScheduleChange) bool {
		return ch.Amount == 2000 && ch.Entry.Kind == domain.HistoryReschedule && ch.From == domain.BookingApproved
	})).Return(b, nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Reschedule(ctx, staff, 10, RescheduleRequest{ScheduleStart: at(1, 10), ScheduleEnd: at(1, 13).Add(30 * time.Minute)})
	require.NoError(t, err)
	f.bookings.AssertExpectations(t)

	cancelled := pending(11)
	cancelled.Status = domain.BookingCancelled
	f.bookings.On("GetByID", ctx, int64(11)).Return(cancelled, nil)
	_, err = f.svc.Reschedule(ctx, staff, 11, RescheduleRequest{ScheduleStart: at(1, 10), ScheduleEnd: at(1, 11)})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.UpdatePaymentStatus(ctx, citizen, 10, PaymentStatusRequest{PaymentStatus: domain.PaymentPaid})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdatePaymentStatus(ctx, staff, 10, PaymentStatusRequest{PaymentStatus: "WAIVED"})
	assert.ErrorIs(t, err, ErrValidation)

	paid := pending(10)
	paid.PaymentStatus = domain.PaymentPaid
	f.bookings.On("UpdatePaymentStatus", ctx, int64(10), domain.PaymentPaid).Return(paid, nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e events.BookingEvent) bool {
		return e.Type == events.TypePaymentUpdated && e.BookingID == 10
	})).Return(nil)

	got, err := f.svc.UpdatePaymentStatus(ctx, staff, 10, PaymentStatusRequest{PaymentStatus: domain.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	f.events.AssertExpectations(t)

	f.bookings.On("UpdatePaymentStatus", ctx, int64(404), domain.PaymentPaid).Return(nil, repository.ErrNotFound)
	_, err = f.svc.UpdatePaymentStatus(ctx, staff, 404, PaymentStatusRequest{PaymentStatus: domain.PaymentPaid})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckAvailabilityQuotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.resources.On("GetByID", ctx, int64(1)).Return(court(), nil)
	f.engine.On("Check", ctx, mock.Anything).Return(available(), nil)

	out, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ResourceID: 1, Start: at(1, 12), End: at(1, 13).Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, out.Available)
	assert.Equal(t, int64(2), out.BillableHours)
	assert.Equal(t, 1000.0, out.Amount)
}

func TestGetAndHistoryAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.bookings.On("GetByID", ctx, int64(10)).Return(pending(10), nil)
	f.bookings.On("GetByID", ctx, int64(12)).Return(nil, repository.ErrNotFound)
	f.history.On("ListByBooking", ctx, int64(12)).Return([]domain.StatusHistoryEntry{{BookingID: 12, Kind: domain.HistoryWithdrawal}}, nil)

	_, err := f.svc.Get(ctx, domain.Actor{UserID: 99, Role: domain.RoleCitizen}, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.History(ctx, citizen, 12)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := f.svc.History(ctx, staff, 12)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGetByReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.bookings.On("GetByReference", ctx, "FR-0000000A").Return(pending(10), nil)
	f.bookings.On("GetByReference", ctx, "FR-MISSING").Return(nil, repository.ErrNotFound)

	b, err := f.svc.GetByReference(ctx, citizen, "FR-0000000A")
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.ID)

	_, err = f.svc.GetByReference(ctx, domain.Actor{UserID: 99, Role: domain.RoleCitizen}, "FR-0000000A")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetByReference(ctx, staff, "FR-0000000A")
	assert.NoError(t, err)

	_, err = f.svc.GetByReference(ctx, staff, "FR-MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateMachine(t *testing.T) {
	assert.True(t, CanTransition(domain.BookingPendingReview, domain.BookingAwaitingRequirements))
	assert.True(t, CanTransition(domain.BookingAwaitingPayment, domain.BookingApproved))
	assert.True(t, CanTransition(domain.BookingApproved, domain.BookingNoShow))
	assert.False(t, CanTransition(domain.BookingApproved, domain.BookingPendingReview))
	assert.False(t, CanTransition(domain.BookingCompleted, domain.BookingCancelled))

	for _, s := range domain.ActiveStatuses {
		assert.True(t, CanTransition(s, domain.BookingRejected), s)
		assert.True(t, CanTransition(s, domain.BookingCancelled), s)
	}
	for _, s := range []domain.BookingStatus{domain.BookingCompleted, domain.BookingNoShow, domain.BookingRejected, domain.BookingCancelled} {
		assert.Empty(t, AllowedTransitions(s), s)
	}

	assert.True(t, needsRecheck(domain.BookingRejected, domain.BookingApproved))
	assert.False(t, needsRecheck(domain.BookingPendingReview, domain.BookingApproved))
	assert.False(t, needsRecheck(domain.BookingApproved, domain.BookingCompleted))
}
