package domain

import "time"

// Review is attached to exactly one completed reservation. Uniqueness
// per booking is enforced by the DB indexes, not just the pre-check in
// the service layer.
type Review struct {
	ID               int64           `json:"id"`
	Kind             ReservationKind `json:"kind" gorm:"type:varchar(10);not null"`
	BookingID        *int64          `json:"booking_id,omitempty" gorm:"uniqueIndex"`
	ServiceBookingID *int64          `json:"service_booking_id,omitempty" gorm:"uniqueIndex"`
	ReviewerID       int64           `json:"reviewer_id" gorm:"index;not null"`
	RevieweeID       int64           `json:"reviewee_id" gorm:"index;not null"`
	Rating           int             `json:"rating" validate:"required,gte=1,lte=5"`
	Comment          string          `json:"comment,omitempty" gorm:"type:text"`
	Response         *string         `json:"response,omitempty" gorm:"type:text"`
	ResponseDate     *time.Time      `json:"response_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }
