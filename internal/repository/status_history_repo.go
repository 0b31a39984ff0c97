package repository

import (
	"context"
	"time"

	"facilityhub/internal/domain"

	"gorm.io/gorm"
)

// StatusHistoryRepository reads the append-only audit log. Entries are
// written only inside the booking transactions.
type StatusHistoryRepository struct {
	db *gorm.DB
}

func NewStatusHistoryRepository(db *gorm.DB) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

type historyModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	BookingID  int64     `gorm:"column:booking_id;not null;index"`
	FromStatus string    `gorm:"column:from_status;size:30"`
	ToStatus   string    `gorm:"column:to_status;size:30;not null"`
	Kind       string    `gorm:"column:kind;size:20;not null"`
	ActorID    int64     `gorm:"column:actor_id"`
	ActorRole  string    `gorm:"column:actor_role;size:20"`
	Remarks    string    `gorm:"column:remarks;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (historyModel) TableName() string { return "booking_status_history" }

func toDomainHistory(m historyModel) domain.StatusHistoryEntry {
	return domain.StatusHistoryEntry{
		ID:         m.ID,
		BookingID:  m.BookingID,
		FromStatus: domain.BookingStatus(m.FromStatus),
		ToStatus:   domain.BookingStatus(m.ToStatus),
		Kind:       domain.HistoryKind(m.Kind),
		ActorID:    m.ActorID,
		ActorRole:  m.ActorRole,
		Remarks:    m.Remarks,
		CreatedAt:  m.CreatedAt,
	}
}

func toHistoryModel(e domain.StatusHistoryEntry) historyModel {
	return historyModel{
		ID:         e.ID,
		BookingID:  e.BookingID,
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		Kind:       string(e.Kind),
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Remarks:    e.Remarks,
		CreatedAt:  e.CreatedAt,
	}
}

func (r *StatusHistoryRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.StatusHistoryEntry, error) {
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StatusHistoryEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainHistory(m))
	}
	return out, nil
}
