package payment

import "tolio/internal/domain"

type CreateIntentRequest struct {
	Kind      domain.ReservationKind `json:"kind" binding:"required"`
	BookingID int64                  `json:"booking_id" binding:"required"`
	Rail      string                 `json:"rail" binding:"required"`
}

type CreateIntentResponse struct {
	PaymentID      int64   `json:"payment_id"`
	Rail           string  `json:"rail"`
	Amount         float64 `json:"amount"`
	PlatformFee    float64 `json:"platform_fee"`
	ProviderAmount float64 `json:"provider_amount"`
	ClientSecret   string  `json:"client_secret,omitempty"`
	CheckoutURL    string  `json:"checkout_url,omitempty"`
}

type MaterialItemRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required,gt=0"`
}

type ConnectStripeAccountRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

type RequestMaterialsRequest struct {
	ServiceBookingID int64                 `json:"service_booking_id" binding:"required"`
	Materials        []MaterialItemRequest `json:"materials" binding:"required,min=1,dive"`
}
