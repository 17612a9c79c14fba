package payment

import (
	"context"
	"time"

	"tolio/internal/domain"
	"tolio/internal/modules/chat"
)

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	MarkCompletedIdempotent(ctx context.Context, reference, providerPaymentID, providerStatus string, paidAt time.Time) (bool, error)
	MarkFailedIfNotCompleted(ctx context.Context, reference, providerPaymentID, providerStatus string) error
	UpdateProviderStatus(ctx context.Context, reference, providerPaymentID, providerStatus string) error
	SetCapturedAt(ctx context.Context, reference string, at time.Time) error
}

type materialPaymentRepo interface {
	Create(ctx context.Context, mp *domain.MaterialPayment) error
	GetByServiceBooking(ctx context.Context, serviceBookingID int64) (*domain.MaterialPayment, error)
	MarkCompletedIdempotent(ctx context.Context, serviceBookingID int64, paidAt time.Time) (bool, error)
}

type bookingRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
}

type serviceBookingRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error)
	UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
	SetServicePaid(ctx context.Context, id int64) error
	SetMaterialsPaid(ctx context.Context, id int64) error
}

type serviceReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	SetStripeAccount(ctx context.Context, userID int64, accountID string) error
}

type notifier interface {
	NotifyPaymentReceived(ctx context.Context, providerUserID, bookingID int64, kind domain.ReservationKind, amount float64) error
	NotifyPaymentPending(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind, amount float64) error
	NotifyBookingConfirmed(ctx context.Context, clientUserID, bookingID int64, kind domain.ReservationKind) error
	NotifyBookingCompleted(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error
}

type materialMessenger interface {
	SendMaterialRequest(ctx context.Context, senderID, receiverID, bookingID, materialPaymentID int64, materials []chat.MaterialItem, totalAmount float64) error
}
