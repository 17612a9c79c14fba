package review

import (
	"context"

	"tolio/internal/domain"
)

type reviewRepo interface {
	Create(ctx context.Context, rv *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	ExistsForBooking(ctx context.Context, kind domain.ReservationKind, bookingID int64) (bool, error)
	GetForUser(ctx context.Context, revieweeID int64, limit, offset int) ([]domain.Review, error)
	SetResponse(ctx context.Context, reviewID int64, response string) (bool, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type serviceBookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error)
}

type notifier interface {
	NotifyNewReview(ctx context.Context, revieweeID, reviewID int64, rating int) error
}
