package domain

import "time"

type ResourceCategory string

const (
	ResourceHall    ResourceCategory = "hall"
	ResourceCourt   ResourceCategory = "court"
	ResourceRoom    ResourceCategory = "room"
	ResourceField   ResourceCategory = "field"
	ResourceVehicle ResourceCategory = "vehicle"
	ResourceOther   ResourceCategory = "other"
)

// Resource is a bookable municipal facility.
type Resource struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name" validate:"required,max=200"`
	Category    ResourceCategory `json:"category" validate:"required,oneof=hall court room field vehicle other"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Capacity    int              `json:"capacity" validate:"gt=0"`
	HourlyRate  float64          `json:"hourly_rate" validate:"gte=0"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
