package repository

import (
	"context"
	"time"

	"facilityhub/internal/domain"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

type resourceModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;size:200;not null"`
	Category    string    `gorm:"column:category;size:40;not null"`
	Description string    `gorm:"column:description;type:text"`
	Location    string    `gorm:"column:location;size:255"`
	Capacity    int       `gorm:"column:capacity;not null"`
	HourlyRate  float64   `gorm:"column:hourly_rate;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (resourceModel) TableName() string { return "resources" }

func toDomainResource(m resourceModel) *domain.Resource {
	return &domain.Resource{
		ID:          m.ID,
		Name:        m.Name,
		Category:    domain.ResourceCategory(m.Category),
		Description: m.Description,
		Location:    m.Location,
		Capacity:    m.Capacity,
		HourlyRate:  m.HourlyRate,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toResourceModel(r *domain.Resource) resourceModel {
	return resourceModel{
		ID:          r.ID,
		Name:        r.Name,
		Category:    string(r.Category),
		Description: r.Description,
		Location:    r.Location,
		Capacity:    r.Capacity,
		HourlyRate:  r.HourlyRate,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	m := toResourceModel(res)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*res = *toDomainResource(m)
	return nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	var m resourceModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainResource(m), nil
}

func (r *ResourceRepository) List(ctx context.Context, activeOnly bool) ([]domain.Resource, error) {
	var rows []resourceModel
	q := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Resource, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainResource(m))
	}
	return out, nil
}

func (r *ResourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	tx := r.db.WithContext(ctx).
		Model(&resourceModel{}).
		Where("id = ?", res.ID).
		Updates(map[string]any{
			"name":        res.Name,
			"category":    string(res.Category),
			"description": res.Description,
			"location":    res.Location,
			"capacity":    res.Capacity,
			"hourly_rate": res.HourlyRate,
			"updated_at":  time.Now().UTC(),
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResourceRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tx := r.db.WithContext(ctx).
		Model(&resourceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
