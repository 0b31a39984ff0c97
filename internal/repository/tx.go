package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"facilityhub/internal/domain"
)

// Models lists every table this package owns, in migration order.
func Models() []any {
	return []any{
		&resourceModel{},
		&blackoutModel{},
		&bookingModel{},
		&historyModel{},
	}
}

// lockResource serializes writers for one resource inside tx. SQLite has no
// row locks; database.Connect opens it with _txlock=immediate so every
// transaction takes the write lock at BEGIN and waits up to busy_timeout.
func lockResource(tx *gorm.DB, resourceID int64) error {
	q := tx.Model(&resourceModel{}).Select("id").Where("id = ?", resourceID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m resourceModel
	return q.Take(&m).Error
}

// slotTaken re-checks the admission invariant inside tx: no active booking of
// the resource other than excludeID overlaps w, and no blackout covers w.
func slotTaken(tx *gorm.DB, resourceID int64, w domain.Interval, excludeID int64, loc *time.Location) (bool, error) {
	var cnt int64
	q := tx.Model(&bookingModel{}).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", domain.ActiveStatusStrings()).
		Where("schedule_start < ? AND schedule_end > ?", w.End.UTC(), w.Start.UTC())
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	if cnt > 0 {
		return true, nil
	}

	var rows []blackoutModel
	if err := tx.Where("resource_id = ?", resourceID).Find(&rows).Error; err != nil {
		return false, err
	}
	for _, m := range rows {
		if toDomainBlackout(m).Interval(loc).Overlaps(w) {
			return true, nil
		}
	}
	return false, nil
}

func appendHistory(tx *gorm.DB, e domain.StatusHistoryEntry) error {
	m := toHistoryModel(e)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&m).Error
}
