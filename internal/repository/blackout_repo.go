package repository

import (
	"context"
	"time"

	"facilityhub/internal/domain"

	"gorm.io/gorm"
)

type BlackoutRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewBlackoutRepository returns a store whose blackout dates are interpreted
// in loc when checked against bookings.
func NewBlackoutRepository(db *gorm.DB, loc *time.Location) *BlackoutRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BlackoutRepository{db: db, loc: loc}
}

type blackoutModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	ResourceID int64     `gorm:"column:resource_id;not null;index"`
	StartDate  time.Time `gorm:"column:start_date;not null"`
	EndDate    time.Time `gorm:"column:end_date;not null"`
	Reason     string    `gorm:"column:reason;type:text"`
	Category   string    `gorm:"column:category;size:20;not null"`
	CreatedBy  int64     `gorm:"column:created_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (blackoutModel) TableName() string { return "blackout_windows" }

func toDomainBlackout(m blackoutModel) *domain.BlackoutWindow {
	return &domain.BlackoutWindow{
		ID:         m.ID,
		ResourceID: m.ResourceID,
		StartDate:  dateOnly(m.StartDate.UTC()),
		EndDate:    dateOnly(m.EndDate.UTC()),
		Reason:     m.Reason,
		Category:   domain.BlackoutCategory(m.Category),
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// dateOnly stores calendar dates at UTC midnight so they survive the round
// trip through either driver unchanged.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toBlackoutModel(w *domain.BlackoutWindow) blackoutModel {
	return blackoutModel{
		ID:         w.ID,
		ResourceID: w.ResourceID,
		StartDate:  dateOnly(w.StartDate),
		EndDate:    dateOnly(w.EndDate),
		Reason:     w.Reason,
		Category:   string(w.Category),
		CreatedBy:  w.CreatedBy,
		CreatedAt:  w.CreatedAt,
	}
}

// CreateGuarded inserts w unless an active booking of the same resource falls
// inside it. In that case the overlapping bookings are returned together with
// ErrBookingsInWindow.
func (r *BlackoutRepository) CreateGuarded(ctx context.Context, w *domain.BlackoutWindow) ([]domain.BookingRequest, error) {
	var conflicts []domain.BookingRequest
	m := toBlackoutModel(w)
	window := toDomainBlackout(m).Interval(r.loc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockResource(tx, w.ResourceID); err != nil {
			return err
		}

		var rows []bookingModel
		if err := tx.
			Where("resource_id = ?", w.ResourceID).
			Where("status IN ?", domain.ActiveStatusStrings()).
			Where("schedule_start < ? AND schedule_end > ?", window.End.UTC(), window.Start.UTC()).
			Order("schedule_start").
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			for _, b := range rows {
				conflicts = append(conflicts, *toDomainBooking(b))
			}
			return ErrBookingsInWindow
		}

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return conflicts, translate(err)
	}
	*w = *toDomainBlackout(m)
	return nil, nil
}

func (r *BlackoutRepository) GetByID(ctx context.Context, id int64) (*domain.BlackoutWindow, error) {
	var m blackoutModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBlackout(m), nil
}

func (r *BlackoutRepository) ListByResource(ctx context.Context, resourceID int64) ([]domain.BlackoutWindow, error) {
	var rows []blackoutModel
	if err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("start_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BlackoutWindow, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBlackout(m))
	}
	return out, nil
}

func (r *BlackoutRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&blackoutModel{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
