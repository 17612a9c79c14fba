package domain

import "time"

// ServiceBooking is a reservation of a provider's time. Unlike item
// bookings it carries two independent payment flags: the service fee
// itself and an optional up-front materials payment.
type ServiceBooking struct {
	ID          int64         `json:"id"`
	ServiceID   int64         `json:"service_id" gorm:"index;not null"`
	ClientID    int64         `json:"client_id" gorm:"index;not null"`
	ProviderID  int64         `json:"provider_id" gorm:"index;not null"`
	StartDate   time.Time     `json:"start_date"`
	Hours       float64       `json:"hours"`
	CustomPrice *float64      `json:"custom_price,omitempty"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`

	MaterialsPaid bool `json:"materials_paid" gorm:"default:false"`
	ServicePaid   bool `json:"service_paid" gorm:"default:false"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Service  *Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Client   *User    `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Provider *User    `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

func (ServiceBooking) TableName() string { return "service_bookings" }

func (sb *ServiceBooking) Reservation() Reservation {
	return Reservation{
		Kind:         ReservationService,
		ID:           sb.ID,
		OwnerSideID:  sb.ProviderID,
		ClientSideID: sb.ClientID,
		Status:       sb.Status,
	}
}

// DueAmount resolves the price of a service booking: an agreed custom
// price wins, otherwise hourly services bill pricePerHour*hours and
// fixed-price services bill the flat rate.
func (sb *ServiceBooking) DueAmount(svc *Service) float64 {
	if sb.CustomPrice != nil {
		return *sb.CustomPrice
	}
	if svc == nil {
		return 0
	}
	if svc.PriceType == PriceTypeHour {
		hours := sb.Hours
		if hours <= 0 {
			hours = 1
		}
		return svc.PricePerHour * hours
	}
	return svc.PricePerHour
}
