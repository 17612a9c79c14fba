package domain

import "time"

type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id" gorm:"index;not null"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	PricePerDay float64   `json:"price_per_day" validate:"required,gte=0"`
	Location    string    `json:"location,omitempty"`
	IsAvailable bool      `json:"is_available" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (Item) TableName() string { return "items" }
