package domain

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment tracks a single settlement against an external rail. The
// fee split is computed once at creation and never recomputed; a
// payment moves PENDING -> COMPLETED exactly once.
type Payment struct {
	ID               int64           `json:"id"`
	BookingID        *int64          `json:"booking_id,omitempty" gorm:"uniqueIndex"`
	ServiceBookingID *int64          `json:"service_booking_id,omitempty" gorm:"uniqueIndex"`
	Kind             ReservationKind `json:"kind" gorm:"type:varchar(10);not null"`
	Rail             string          `json:"rail" gorm:"type:varchar(20);not null"`

	Amount         float64 `json:"amount"`
	PlatformFee    float64 `json:"platform_fee"`
	ProviderAmount float64 `json:"provider_amount"`

	Status PaymentStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`

	// ExternalReference is the idempotency key handed to the rail;
	// webhooks resolve back to the payment row through it.
	ExternalReference string `json:"external_reference" gorm:"uniqueIndex;not null"`
	ProviderPaymentID string `json:"provider_payment_id,omitempty" gorm:"index"`
	ProviderStatus    string `json:"provider_status,omitempty"`
	CheckoutURL       string `json:"checkout_url,omitempty" gorm:"type:text"`

	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// MaterialPayment is the sub-ledger for up-front materials costs on a
// service booking. At most one per booking.
type MaterialPayment struct {
	ID               int64         `json:"id"`
	ServiceBookingID int64         `json:"service_booking_id" gorm:"uniqueIndex;not null"`
	Materials        string        `json:"materials" gorm:"type:text"`
	TotalAmount      float64       `json:"total_amount"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (MaterialPayment) TableName() string { return "material_payments" }

// Reference builders. The external reference doubles as the
// idempotency key, so it must be stable for a given booking.
func BookingReference(kind ReservationKind, id int64) string {
	if kind == ReservationService {
		return fmt.Sprintf("sb_%d", id)
	}
	return fmt.Sprintf("bk_%d", id)
}

func MaterialReference(serviceBookingID int64) string {
	return fmt.Sprintf("mat_%d", serviceBookingID)
}
