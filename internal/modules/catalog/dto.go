package catalog

type CreateResourceRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	HourlyRate  float64 `json:"hourly_rate"`
}

// UpdateResourceRequest applies only the fields that are set.
type UpdateResourceRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Capacity    *int     `json:"capacity"`
	HourlyRate  *float64 `json:"hourly_rate"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateBlackoutRequest takes calendar dates as YYYY-MM-DD, both inclusive.
type CreateBlackoutRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	Category  string `json:"category" binding:"required"`
}
