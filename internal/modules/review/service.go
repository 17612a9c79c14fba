package review

import (
	"context"
	"errors"
	"log"
	"strings"

	"tolio/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const maxResponseLength = 500

type Service struct {
	reviews         reviewRepo
	bookings        bookingReader
	serviceBookings serviceBookingReader
	notifs          notifier
}

func NewService(reviews reviewRepo, bookings bookingReader, serviceBookings serviceBookingReader, notifs notifier) *Service {
	return &Service{
		reviews:         reviews,
		bookings:        bookings,
		serviceBookings: serviceBookings,
		notifs:          notifs,
	}
}

// Create attaches one review to a completed reservation. The reviewer
// must be a party and the reviewee is always the other side. The
// pre-check keeps the common double-submit out; the unique index on
// the booking column catches the race the pre-check cannot.
func (s *Service) Create(ctx context.Context, reviewerID int64, req CreateReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrValidation
	}

	res, err := s.loadReservation(ctx, req.Kind, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !res.IsParty(reviewerID) {
		return nil, ErrForbidden
	}
	if res.Status != domain.BookingCompleted {
		return nil, ErrNotCompleted
	}

	exists, err := s.reviews.ExistsForBooking(ctx, req.Kind, req.BookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	rv := &domain.Review{
		Kind:       req.Kind,
		ReviewerID: reviewerID,
		RevieweeID: res.Counterparty(reviewerID),
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if req.Kind == domain.ReservationService {
		rv.ServiceBookingID = &req.BookingID
	} else {
		rv.BookingID = &req.BookingID
	}

	if err := s.reviews.Create(ctx, rv); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyNewReview(ctx, rv.RevieweeID, rv.ID, rv.Rating); err != nil {
			log.Printf("level=warn msg=review notification failed review_id=%d err=%v", rv.ID, err)
		}
	}

	return rv, nil
}

// AddResponse lets the reviewee answer once. The conditional update
// guards against double responses under concurrency.
func (s *Service) AddResponse(ctx context.Context, userID, reviewID int64, req AddResponseRequest) (*domain.Review, error) {
	text := strings.TrimSpace(req.Response)
	if text == "" || len(text) > maxResponseLength {
		return nil, ErrValidation
	}

	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rv.RevieweeID != userID {
		return nil, ErrForbidden
	}

	ok, err := s.reviews.SetResponse(ctx, reviewID, text)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	return s.reviews.GetByID(ctx, reviewID)
}

func (s *Service) ListForUser(ctx context.Context, revieweeID int64, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reviews.GetForUser(ctx, revieweeID, limit, offset)
}

func (s *Service) loadReservation(ctx context.Context, kind domain.ReservationKind, id int64) (domain.Reservation, error) {
	switch kind {
	case domain.ReservationItem:
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Reservation{}, ErrNotFound
			}
			return domain.Reservation{}, err
		}
		return b.Reservation(), nil
	case domain.ReservationService:
		sb, err := s.serviceBookings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Reservation{}, ErrNotFound
			}
			return domain.Reservation{}, err
		}
		return sb.Reservation(), nil
	default:
		return domain.Reservation{}, ErrValidation
	}
}
