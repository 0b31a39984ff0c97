package repository

import (
	"context"
	"time"

	"facilityhub/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewBookingRepository returns the booking store. loc is the facility time
// zone used to turn blackout dates into instants during admission checks.
func NewBookingRepository(db *gorm.DB, loc *time.Location) *BookingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingRepository{db: db, loc: loc}
}

type bookingModel struct {
	ID                int64      `gorm:"column:id;primaryKey"`
	ReferenceNo       string     `gorm:"column:reference_no;size:32;uniqueIndex"`
	ResourceID        int64      `gorm:"column:resource_id;not null;index:idx_booking_resource_window,priority:1"`
	ApplicantUserID   int64      `gorm:"column:applicant_user_id;index"`
	ApplicantName     string     `gorm:"column:applicant_name;size:200"`
	ApplicantEmail    string     `gorm:"column:applicant_email;size:200"`
	ApplicantPhone    *string    `gorm:"column:applicant_phone;size:40"`
	Purpose           string     `gorm:"column:purpose;type:text"`
	EventCategory     string     `gorm:"column:event_category;size:20"`
	ExpectedAttendees int        `gorm:"column:expected_attendees"`
	ScheduleStart     time.Time  `gorm:"column:schedule_start;not null;index:idx_booking_resource_window,priority:2"`
	ScheduleEnd       time.Time  `gorm:"column:schedule_end;not null"`
	Status            string     `gorm:"column:status;size:30;not null;index"`
	PaymentStatus     string     `gorm:"column:payment_status;size:20;not null"`
	Amount            float64    `gorm:"column:amount"`
	Remarks           *string    `gorm:"column:remarks;type:text"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
	ApprovedAt        *time.Time `gorm:"column:approved_at"`
	RejectedAt        *time.Time `gorm:"column:rejected_at"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
}

func (bookingModel) TableName() string { return "booking_requests" }

func toDomainBooking(m bookingModel) *domain.BookingRequest {
	var phone, remarks string
	if m.ApplicantPhone != nil {
		phone = *m.ApplicantPhone
	}
	if m.Remarks != nil {
		remarks = *m.Remarks
	}

	return &domain.BookingRequest{
		ID:                m.ID,
		ReferenceNo:       m.ReferenceNo,
		ResourceID:        m.ResourceID,
		ApplicantUserID:   m.ApplicantUserID,
		ApplicantName:     m.ApplicantName,
		ApplicantEmail:    m.ApplicantEmail,
		ApplicantPhone:    phone,
		Purpose:           m.Purpose,
		EventCategory:     domain.EventCategory(m.EventCategory),
		ExpectedAttendees: m.ExpectedAttendees,
		ScheduleStart:     m.ScheduleStart,
		ScheduleEnd:       m.ScheduleEnd,
		Status:            domain.BookingStatus(m.Status),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		Amount:            m.Amount,
		Remarks:           remarks,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		ApprovedAt:        m.ApprovedAt,
		RejectedAt:        m.RejectedAt,
		CancelledAt:       m.CancelledAt,
		CompletedAt:       m.CompletedAt,
	}
}

func toBookingModel(b *domain.BookingRequest) bookingModel {
	var phone, remarks *string
	if b.ApplicantPhone != "" {
		v := b.ApplicantPhone
		phone = &v
	}
	if b.Remarks != "" {
		v := b.Remarks
		remarks = &v
	}

	return bookingModel{
		ID:                b.ID,
		ReferenceNo:       b.ReferenceNo,
		ResourceID:        b.ResourceID,
		ApplicantUserID:   b.ApplicantUserID,
		ApplicantName:     b.ApplicantName,
		ApplicantEmail:    b.ApplicantEmail,
		ApplicantPhone:    phone,
		Purpose:           b.Purpose,
		EventCategory:     string(b.EventCategory),
		ExpectedAttendees: b.ExpectedAttendees,
		ScheduleStart:     b.ScheduleStart.UTC(),
		ScheduleEnd:       b.ScheduleEnd.UTC(),
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		Amount:            b.Amount,
		Remarks:           remarks,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		ApprovedAt:        b.ApprovedAt,
		RejectedAt:        b.RejectedAt,
		CancelledAt:       b.CancelledAt,
		CompletedAt:       b.CompletedAt,
	}
}

func toDomainBookings(rows []bookingModel) []domain.BookingRequest {
	out := make([]domain.BookingRequest, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

// ListActiveByResource returns every booking of the resource that still
// occupies its slot, oldest window first.
func (r *BookingRepository) ListActiveByResource(ctx context.Context, resourceID int64, excludeBookingID *int64) ([]domain.BookingRequest, error) {
	var rows []bookingModel
	q := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", domain.ActiveStatusStrings())
	if excludeBookingID != nil {
		q = q.Where("id <> ?", *excludeBookingID)
	}
	if err := q.Order("schedule_start").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// CreateAdmitted inserts b and its submission history entry in one
// transaction, re-checking the slot under a resource lock first. A lost race
// surfaces as ErrSlotTaken.
func (r *BookingRepository) CreateAdmitted(ctx context.Context, b *domain.BookingRequest, entry domain.StatusHistoryEntry) error {
	m := toBookingModel(b)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockResource(tx, b.ResourceID); err != nil {
			return err
		}
		taken, err := slotTaken(tx, b.ResourceID, b.Window(), 0, r.loc)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}

		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		entry.BookingID = m.ID
		return appendHistory(tx, entry)
	})
	if err != nil {
		return translate(err)
	}

	*b = *toDomainBooking(m)
	return nil
}

// StatusChange describes a conditional status update: it applies only while
// the booking is still in From.
type StatusChange struct {
	BookingID int64
	From      domain.BookingStatus
	To        domain.BookingStatus
	// Recheck runs the admission check for the booking's own window, used
	// when a booking moves back into an active status.
	Recheck bool
	Entry   domain.StatusHistoryEntry
	At      time.Time
}

func (r *BookingRepository) ChangeStatus(ctx context.Context, ch StatusChange) (*domain.BookingRequest, error) {
	var out *domain.BookingRequest
	at := ch.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.First(&m, ch.BookingID).Error; err != nil {
			return err
		}
		if m.Status != string(ch.From) {
			return ErrStaleStatus
		}

		if ch.Recheck {
			if err := lockResource(tx, m.ResourceID); err != nil {
				return err
			}
			w := domain.Interval{Start: m.ScheduleStart, End: m.ScheduleEnd}
			taken, err := slotTaken(tx, m.ResourceID, w, m.ID, r.loc)
			if err != nil {
				return err
			}
			if taken {
				return ErrSlotTaken
			}
		}

		updates := map[string]any{
			"status":     string(ch.To),
			"updated_at": at,
		}
		if col := statusTimestampColumn(ch.To); col != "" {
			updates[col] = at
		}
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", ch.BookingID, string(ch.From)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		entry := ch.Entry
		entry.BookingID = ch.BookingID
		entry.CreatedAt = at
		if err := appendHistory(tx, entry); err != nil {
			return err
		}

		if err := tx.First(&m, ch.BookingID).Error; err != nil {
			return err
		}
		out = toDomainBooking(m)
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func statusTimestampColumn(s domain.BookingStatus) string {
	switch s {
	case domain.BookingApproved:
		return "approved_at"
	case domain.BookingRejected:
		return "rejected_at"
	case domain.BookingCancelled:
		return "cancelled_at"
	case domain.BookingCompleted, domain.BookingNoShow:
		return "completed_at"
	}
	return ""
}

// ScheduleChange moves an active booking to a new window.
type ScheduleChange struct {
	BookingID int64
	From      domain.BookingStatus
	Window    domain.Interval
	Amount    float64
	Entry     domain.StatusHistoryEntry
	At        time.Time
}

func (r *BookingRepository) Reschedule(ctx context.Context, ch ScheduleChange) (*domain.BookingRequest, error) {
	var out *domain.BookingRequest
	at := ch.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.First(&m, ch.BookingID).Error; err != nil {
			return err
		}
		if m.Status != string(ch.From) {
			return ErrStaleStatus
		}
		if err := lockResource(tx, m.ResourceID); err != nil {
			return err
		}
		taken, err := slotTaken(tx, m.ResourceID, ch.Window, m.ID, r.loc)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}

		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", ch.BookingID, string(ch.From)).
			Updates(map[string]any{
				"schedule_start": ch.Window.Start.UTC(),
				"schedule_end":   ch.Window.End.UTC(),
				"amount":         ch.Amount,
				"updated_at":     at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		entry := ch.Entry
		entry.BookingID = ch.BookingID
		entry.CreatedAt = at
		if err := appendHistory(tx, entry); err != nil {
			return err
		}

		if err := tx.First(&m, ch.BookingID).Error; err != nil {
			return err
		}
		out = toDomainBooking(m)
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Withdraw physically deletes a booking that is still in from. The history
// entry outlives the row.
func (r *BookingRepository) Withdraw(ctx context.Context, bookingID int64, from domain.BookingStatus, entry domain.StatusHistoryEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", bookingID, string(from)).Delete(&bookingModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&bookingModel{}).Where("id = ?", bookingID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return ErrNotFound
			}
			return ErrStaleStatus
		}
		entry.BookingID = bookingID
		return appendHistory(tx, entry)
	})
	return translate(err)
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, bookingID int64, status domain.PaymentStatus) (*domain.BookingRequest, error) {
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", bookingID).
		Updates(map[string]any{
			"payment_status": string(status),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, bookingID)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.BookingRequest, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("reference_no = ?", ref).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByApplicant(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []bookingModel
	if err := r.db.WithContext(ctx).
		Where("applicant_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// ListByResource returns bookings of every status whose window overlaps
// [from, to). A zero bound leaves that side open.
func (r *BookingRepository) ListByResource(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.BookingRequest, error) {
	var rows []bookingModel
	q := r.db.WithContext(ctx).Where("resource_id = ?", resourceID)
	if !to.IsZero() {
		q = q.Where("schedule_start < ?", to.UTC())
	}
	if !from.IsZero() {
		q = q.Where("schedule_end > ?", from.UTC())
	}
	if err := q.Order("schedule_start").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}
