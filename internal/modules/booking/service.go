package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	bookings        BookingRepository
	serviceBookings ServiceBookingRepository
	items           ItemRepository
	services        ServiceRepository
	notifs          NotificationSender
	paymentRequests PaymentRequestMessenger
}

func NewService(
	bookings BookingRepository,
	serviceBookings ServiceBookingRepository,
	items ItemRepository,
	services ServiceRepository,
	notifs NotificationSender,
	paymentRequests PaymentRequestMessenger,
) *Service {
	return &Service{
		bookings:        bookings,
		serviceBookings: serviceBookings,
		items:           items,
		services:        services,
		notifs:          notifs,
		paymentRequests: paymentRequests,
	}
}

// rentalDays bills whole days: any partial day rounds up, and the
// minimum charge is one day.
func rentalDays(start, end time.Time) float64 {
	days := math.Ceil(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) CreateItemBooking(ctx context.Context, borrowerID int64, req CreateItemBookingRequest) (*domain.Booking, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrValidation
	}
	if req.StartDate.Before(time.Now().Add(-24 * time.Hour)) {
		return nil, ErrValidation
	}

	item, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if item.OwnerID == borrowerID {
		return nil, ErrValidation
	}
	if !item.IsAvailable {
		return nil, ErrNotAvailable
	}

	total := round2(item.PricePerDay * rentalDays(req.StartDate, req.EndDate))

	b := &domain.Booking{
		ItemID:     item.ID,
		BorrowerID: borrowerID,
		OwnerID:    item.OwnerID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TotalPrice: total,
		Status:     domain.BookingPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingRequested(ctx, item.OwnerID, b.ID, domain.ReservationItem, item.Title); err != nil {
			log.Printf("level=warn msg=booking request notification failed booking_id=%d err=%v", b.ID, err)
		}
	}

	return b, nil
}

func (s *Service) CreateServiceBooking(ctx context.Context, clientID int64, req CreateServiceBookingRequest) (*domain.ServiceBooking, error) {
	if req.StartDate.Before(time.Now().Add(-24 * time.Hour)) {
		return nil, ErrValidation
	}
	if req.Hours < 0 {
		return nil, ErrValidation
	}
	if req.CustomPrice != nil && *req.CustomPrice < 0 {
		return nil, ErrValidation
	}

	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if svc.ProviderID == clientID {
		return nil, ErrValidation
	}
	if !svc.IsAvailable {
		return nil, ErrNotAvailable
	}

	sb := &domain.ServiceBooking{
		ServiceID:   svc.ID,
		ClientID:    clientID,
		ProviderID:  svc.ProviderID,
		StartDate:   req.StartDate,
		Hours:       req.Hours,
		CustomPrice: req.CustomPrice,
		Status:      domain.BookingPending,
	}
	if err := s.serviceBookings.Create(ctx, sb); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingRequested(ctx, svc.ProviderID, sb.ID, domain.ReservationService, svc.Title); err != nil {
			log.Printf("level=warn msg=booking request notification failed service_booking_id=%d err=%v", sb.ID, err)
		}
	}

	return sb, nil
}

// Confirm moves a pending reservation to CONFIRMED. Only the owner
// side (lender or provider) may confirm; the conditional write
// guarantees a reservation is confirmed at most once even under
// concurrent requests.
func (s *Service) Confirm(ctx context.Context, userID int64, kind domain.ReservationKind, id int64) error {
	res, err := s.loadReservation(ctx, kind, id)
	if err != nil {
		return err
	}
	if !res.IsOwnerSide(userID) {
		return ErrForbidden
	}

	ok, err := s.transition(ctx, kind, id, []domain.BookingStatus{domain.BookingPending}, domain.BookingConfirmed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingConfirmed(ctx, res.ClientSideID, id, kind); err != nil {
			log.Printf("level=warn msg=booking confirmed notification failed kind=%s booking_id=%d err=%v", kind, id, err)
		}
	}
	return nil
}

// Complete moves a confirmed reservation to COMPLETED. Owner side
// only. For service bookings with an unpaid balance it also drops a
// payment request into the chat so the client can settle.
func (s *Service) Complete(ctx context.Context, userID int64, kind domain.ReservationKind, id int64) error {
	res, err := s.loadReservation(ctx, kind, id)
	if err != nil {
		return err
	}
	if !res.IsOwnerSide(userID) {
		return ErrForbidden
	}

	ok, err := s.transition(ctx, kind, id, []domain.BookingStatus{domain.BookingConfirmed}, domain.BookingCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingCompleted(ctx, res.ClientSideID, id, kind); err != nil {
			log.Printf("level=warn msg=booking completed notification failed kind=%s booking_id=%d err=%v", kind, id, err)
		}
	}

	if kind == domain.ReservationService {
		s.requestServicePayment(ctx, id)
	}

	return nil
}

func (s *Service) requestServicePayment(ctx context.Context, serviceBookingID int64) {
	if s.paymentRequests == nil {
		return
	}
	sb, err := s.serviceBookings.GetByID(ctx, serviceBookingID)
	if err != nil {
		log.Printf("level=warn msg=payment request skipped service_booking_id=%d err=%v", serviceBookingID, err)
		return
	}
	if sb.ServicePaid {
		return
	}
	svc, err := s.services.GetByID(ctx, sb.ServiceID)
	if err != nil {
		log.Printf("level=warn msg=payment request skipped service_booking_id=%d err=%v", serviceBookingID, err)
		return
	}
	due := sb.DueAmount(svc)
	if due <= 0 {
		return
	}
	if err := s.paymentRequests.SendPaymentRequest(ctx, sb.ProviderID, sb.ClientID, sb.ID, round2(due)); err != nil {
		log.Printf("level=warn msg=payment request message failed service_booking_id=%d err=%v", serviceBookingID, err)
	}
}

// Cancel may be issued by either party while the reservation is
// PENDING or CONFIRMED. Completed reservations stay completed.
func (s *Service) Cancel(ctx context.Context, userID int64, kind domain.ReservationKind, id int64) error {
	res, err := s.loadReservation(ctx, kind, id)
	if err != nil {
		return err
	}
	if !res.IsParty(userID) {
		return ErrForbidden
	}

	ok, err := s.transition(ctx, kind, id,
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed},
		domain.BookingCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingCancelled(ctx, res.Counterparty(userID), id, kind); err != nil {
			log.Printf("level=warn msg=booking cancelled notification failed kind=%s booking_id=%d err=%v", kind, id, err)
		}
	}
	return nil
}

func (s *Service) GetItemBooking(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !b.Reservation().IsParty(userID) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) GetServiceBooking(ctx context.Context, userID, id int64) (*domain.ServiceBooking, error) {
	sb, err := s.serviceBookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !sb.Reservation().IsParty(userID) {
		return nil, ErrForbidden
	}
	return sb, nil
}

func (s *Service) ListItemBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.GetByUser(ctx, userID, limit, offset)
}

func (s *Service) ListServiceBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.ServiceBooking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.serviceBookings.GetByUser(ctx, userID, limit, offset)
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

func (s *Service) transition(ctx context.Context, kind domain.ReservationKind, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	if kind == domain.ReservationService {
		return s.serviceBookings.UpdateStatusIf(ctx, id, from, to)
	}
	return s.bookings.UpdateStatusIf(ctx, id, from, to)
}
