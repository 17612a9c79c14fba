package catalog

import "tolio/internal/domain"

type CreateItemRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day" binding:"required,gt=0"`
	Location    string  `json:"location"`
}

type CreateServiceRequest struct {
	Title               string           `json:"title" binding:"required"`
	Description         string           `json:"description"`
	PricePerHour        float64          `json:"price_per_hour" binding:"required,gt=0"`
	PriceType           domain.PriceType `json:"price_type"`
	MayIncludeMaterials bool             `json:"may_include_materials"`
	Location            string           `json:"location"`
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
