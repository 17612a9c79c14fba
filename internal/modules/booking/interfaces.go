package booking

import (
	"context"

	"tolio/internal/domain"
)

// BookingRepository defines the interface for item booking operations
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
}

// ServiceBookingRepository defines the interface for service booking operations
type ServiceBookingRepository interface {
	Create(ctx context.Context, sb *domain.ServiceBooking) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error)
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.ServiceBooking, error)
	UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
}

type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
}

type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// NotificationSender delivers lifecycle notifications. Every call is
// best-effort: errors are logged, never propagated.
type NotificationSender interface {
	NotifyBookingRequested(ctx context.Context, ownerUserID, bookingID int64, kind domain.ReservationKind, title string) error
	NotifyBookingConfirmed(ctx context.Context, clientUserID, bookingID int64, kind domain.ReservationKind) error
	NotifyBookingCancelled(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error
	NotifyBookingCompleted(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error
}

// PaymentRequestMessenger emits an in-chat payment request when a
// service booking completes with an unpaid balance.
type PaymentRequestMessenger interface {
	SendPaymentRequest(ctx context.Context, senderID, receiverID, bookingID int64, amount float64) error
}
