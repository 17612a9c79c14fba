package booking

import "time"

type CreateItemBookingRequest struct {
	ItemID    int64     `json:"item_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

type CreateServiceBookingRequest struct {
	ServiceID   int64     `json:"service_id" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	Hours       float64   `json:"hours"`
	CustomPrice *float64  `json:"custom_price"`
}
