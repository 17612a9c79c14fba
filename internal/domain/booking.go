package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is an item rental reservation between a borrower and the
// item's owner.
type Booking struct {
	ID         int64         `json:"id"`
	ItemID     int64         `json:"item_id" gorm:"index;not null"`
	BorrowerID int64         `json:"borrower_id" gorm:"index;not null"`
	OwnerID    int64         `json:"owner_id" gorm:"index;not null"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Item     *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Borrower *User `json:"borrower,omitempty" gorm:"foreignKey:BorrowerID"`
	Owner    *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) Reservation() Reservation {
	return Reservation{
		Kind:         ReservationItem,
		ID:           b.ID,
		OwnerSideID:  b.OwnerID,
		ClientSideID: b.BorrowerID,
		Status:       b.Status,
		Amount:       b.TotalPrice,
	}
}
