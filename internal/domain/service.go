package domain

import "time"

type PriceType string

const (
	PriceTypeHour  PriceType = "hour"
	PriceTypeFixed PriceType = "fixed"
)

type Service struct {
	ID                  int64     `json:"id"`
	ProviderID          int64     `json:"provider_id" gorm:"index;not null"`
	Title               string    `json:"title" validate:"required"`
	Description         string    `json:"description,omitempty" gorm:"type:text"`
	PricePerHour        float64   `json:"price_per_hour" validate:"gte=0"`
	PriceType           PriceType `json:"price_type" gorm:"type:varchar(10);default:'hour'"`
	MayIncludeMaterials bool      `json:"may_include_materials"`
	Location            string    `json:"location,omitempty"`
	IsAvailable         bool      `json:"is_available" gorm:"default:true"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Provider *User `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

func (Service) TableName() string { return "services" }
