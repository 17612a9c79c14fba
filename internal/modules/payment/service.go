package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"tolio/internal/domain"
	"tolio/internal/modules/chat"

	"gorm.io/gorm"
)

const defaultFeePercentage = 5.0

type Service struct {
	payments        paymentRepo
	materials       materialPaymentRepo
	bookings        bookingRepo
	serviceBookings serviceBookingRepo
	services        serviceReader
	users           userRepo
	notifs          notifier
	messenger       materialMessenger
	rails           map[string]Rail
	feePercentage   float64
	loggerf         func(format string, args ...interface{})
}

func NewService(
	payments paymentRepo,
	materials materialPaymentRepo,
	bookings bookingRepo,
	serviceBookings serviceBookingRepo,
	services serviceReader,
	users userRepo,
	notifs notifier,
	messenger materialMessenger,
	rails []Rail,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	byName := make(map[string]Rail, len(rails))
	for _, r := range rails {
		byName[r.Name()] = r
	}
	return &Service{
		payments:        payments,
		materials:       materials,
		bookings:        bookings,
		serviceBookings: serviceBookings,
		services:        services,
		users:           users,
		notifs:          notifs,
		messenger:       messenger,
		rails:           byName,
		feePercentage:   feePercentageFromEnv(),
		loggerf:         loggerf,
	}
}

func feePercentageFromEnv() float64 {
	raw := os.Getenv("MARKETPLACE_FEE_PERCENTAGE")
	if raw == "" {
		return defaultFeePercentage
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil || pct < 0 || pct > 100 {
		return defaultFeePercentage
	}
	return pct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SplitFee computes the marketplace cut once, at intent time. The
// split is persisted on the payment row and never recomputed.
func (s *Service) SplitFee(amount float64) (platformFee, providerAmount float64) {
	platformFee = round2(amount * s.feePercentage / 100)
	providerAmount = round2(amount - platformFee)
	return platformFee, providerAmount
}

// CreateIntent opens a checkout on the requested rail for a booking.
// Only the paying side may create one, and a booking carries at most
// one payment row: the external reference is derived from the booking
// id, so retries hit the duplicate check instead of double-charging.
func (s *Service) CreateIntent(ctx context.Context, actorID int64, req CreateIntentRequest) (*CreateIntentResponse, error) {
	rail, ok := s.rails[req.Rail]
	if !ok {
		return nil, ErrUnknownRail
	}

	res, amount, err := s.loadPayable(ctx, req.Kind, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !res.IsClientSide(actorID) {
		return nil, ErrForbidden
	}
	if res.Status == domain.BookingCancelled {
		return nil, ErrInvalidState
	}
	// Item rentals settle before hand-over; only service fees are
	// payable after completion.
	if req.Kind == domain.ReservationItem && res.Status == domain.BookingCompleted {
		return nil, ErrInvalidState
	}
	if amount <= 0 {
		return nil, ErrValidation
	}

	reference := domain.BookingReference(req.Kind, req.BookingID)
	if _, err := s.payments.GetByReference(ctx, reference); err == nil {
		return nil, ErrDuplicatePayment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	platformFee, providerAmount := s.SplitFee(amount)

	intentReq := IntentRequest{
		Reference:   reference,
		Amount:      amount,
		PlatformFee: platformFee,
		Description: fmt.Sprintf("Booking %s", reference),
	}
	if payer, err := s.users.GetByID(ctx, res.ClientSideID); err == nil {
		intentReq.PayerEmail = payer.Email
	}
	if owner, err := s.users.GetByID(ctx, res.OwnerSideID); err == nil && owner.StripeAccountID != nil {
		intentReq.DestinationAccount = *owner.StripeAccountID
	}

	intent, err := rail.CreateIntent(ctx, intentReq)
	if err != nil {
		return nil, fmt.Errorf("create intent on %s: %w", rail.Name(), err)
	}

	kind := req.Kind
	p := &domain.Payment{
		Kind:              kind,
		Rail:              rail.Name(),
		Amount:            amount,
		PlatformFee:       platformFee,
		ProviderAmount:    providerAmount,
		Status:            domain.PaymentPending,
		ExternalReference: reference,
		ProviderPaymentID: intent.ProviderPaymentID,
		ProviderStatus:    intent.ProviderStatus,
		CheckoutURL:       intent.CheckoutURL,
	}
	if kind == domain.ReservationService {
		p.ServiceBookingID = &req.BookingID
	} else {
		p.BookingID = &req.BookingID
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	if err := s.notifs.NotifyPaymentPending(ctx, res.OwnerSideID, res.ID, kind, amount); err != nil {
		s.loggerf("level=warn msg=payment pending notification failed reference=%s err=%v", reference, err)
	}

	return &CreateIntentResponse{
		PaymentID:      p.ID,
		Rail:           p.Rail,
		Amount:         p.Amount,
		PlatformFee:    p.PlatformFee,
		ProviderAmount: p.ProviderAmount,
		ClientSecret:   intent.ClientSecret,
		CheckoutURL:    intent.CheckoutURL,
	}, nil
}

// ReconcileWebhook applies one rail delivery. Deliveries are
// at-least-once and unordered: completion is idempotent, a payment
// that settled never regresses, and an unknown reference is logged
// and acknowledged so the rail stops retrying.
func (s *Service) ReconcileWebhook(ctx context.Context, railName string, payload []byte, sigHeader string) error {
	rail, ok := s.rails[railName]
	if !ok {
		return ErrUnknownRail
	}

	evt, err := rail.ParseWebhook(ctx, payload, sigHeader)
	if err != nil {
		return err
	}
	if evt == nil || evt.Reference == "" {
		return nil
	}

	if id, ok := materialReferenceID(evt.Reference); ok {
		return s.reconcileMaterial(ctx, id, evt)
	}

	p, err := s.payments.GetByReference(ctx, evt.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=webhook for unknown reference rail=%s reference=%s", railName, evt.Reference)
			return nil
		}
		return err
	}

	switch evt.Outcome {
	case domain.PaymentCompleted:
		changed, err := s.payments.MarkCompletedIdempotent(ctx, evt.Reference, evt.ProviderPaymentID, evt.ProviderStatus, time.Now().UTC())
		if err != nil {
			return err
		}
		if !changed {
			s.loggerf("level=info msg=duplicate completion delivery rail=%s reference=%s", railName, evt.Reference)
			return nil
		}
		s.settle(ctx, p)
		return nil

	case domain.PaymentFailed:
		return s.payments.MarkFailedIfNotCompleted(ctx, evt.Reference, evt.ProviderPaymentID, evt.ProviderStatus)

	default:
		return s.payments.UpdateProviderStatus(ctx, evt.Reference, evt.ProviderPaymentID, evt.ProviderStatus)
	}
}

// settle runs the post-completion side effects: flip the paid flag on
// service bookings, confirm a still-pending booking, and tell both
// sides. Side effects are best-effort; the payment row is already
// COMPLETED and a retry of any of these must not double-settle.
func (s *Service) settle(ctx context.Context, p *domain.Payment) {
	res, _, err := s.loadPayable(ctx, p.Kind, bookingIDOf(p))
	if err != nil {
		s.loggerf("level=error msg=settlement booking load failed reference=%s err=%v", p.ExternalReference, err)
		return
	}

	if p.Kind == domain.ReservationService {
		if err := s.serviceBookings.SetServicePaid(ctx, res.ID); err != nil {
			s.loggerf("level=error msg=service paid flag update failed reference=%s err=%v", p.ExternalReference, err)
		}
	}

	confirmed, err := s.transition(ctx, p.Kind, res.ID,
		[]domain.BookingStatus{domain.BookingPending}, domain.BookingConfirmed)
	if err != nil {
		s.loggerf("level=error msg=settlement confirm failed reference=%s err=%v", p.ExternalReference, err)
	}

	if err := s.notifs.NotifyPaymentReceived(ctx, res.OwnerSideID, res.ID, p.Kind, p.ProviderAmount); err != nil {
		s.loggerf("level=warn msg=payment received notification failed reference=%s err=%v", p.ExternalReference, err)
	}
	if confirmed {
		if err := s.notifs.NotifyBookingConfirmed(ctx, res.ClientSideID, res.ID, p.Kind); err != nil {
			s.loggerf("level=warn msg=booking confirmed notification failed reference=%s err=%v", p.ExternalReference, err)
		}
	}
}

func (s *Service) reconcileMaterial(ctx context.Context, serviceBookingID int64, evt *Event) error {
	if evt.Outcome != domain.PaymentCompleted {
		return nil
	}

	changed, err := s.materials.MarkCompletedIdempotent(ctx, serviceBookingID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=webhook for unknown material reference reference=%s", evt.Reference)
			return nil
		}
		return err
	}
	if !changed {
		return nil
	}

	if err := s.serviceBookings.SetMaterialsPaid(ctx, serviceBookingID); err != nil {
		s.loggerf("level=error msg=materials paid flag update failed service_booking_id=%d err=%v", serviceBookingID, err)
	}

	mp, err := s.materials.GetByServiceBooking(ctx, serviceBookingID)
	if err != nil {
		return nil
	}
	sb, err := s.serviceBookings.GetByID(ctx, serviceBookingID)
	if err != nil {
		return nil
	}
	if err := s.notifs.NotifyPaymentReceived(ctx, sb.ProviderID, sb.ID, domain.ReservationService, mp.TotalAmount); err != nil {
		s.loggerf("level=warn msg=material payment notification failed service_booking_id=%d err=%v", serviceBookingID, err)
	}
	return nil
}

// Capture releases a held intent (Stripe manual capture, escrow
// release) and completes the booking. Owner side only. The
// conditional completion write makes capture and a racing webhook
// mutually exclusive: exactly one of them settles.
func (s *Service) Capture(ctx context.Context, actorID int64, kind domain.ReservationKind, bookingID int64) error {
	res, _, err := s.loadPayable(ctx, kind, bookingID)
	if err != nil {
		return err
	}
	if !res.IsOwnerSide(actorID) {
		return ErrForbidden
	}

	reference := domain.BookingReference(kind, bookingID)
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.Status == domain.PaymentCompleted {
		return ErrAlreadyCompleted
	}
	if p.Status == domain.PaymentFailed {
		return ErrInvalidState
	}

	rail, ok := s.rails[p.Rail]
	if !ok {
		return ErrUnknownRail
	}
	if err := rail.Capture(ctx, p.ProviderPaymentID); err != nil {
		return err
	}

	now := time.Now().UTC()
	changed, err := s.payments.MarkCompletedIdempotent(ctx, reference, p.ProviderPaymentID, "captured", now)
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyCompleted
	}
	if err := s.payments.SetCapturedAt(ctx, reference, now); err != nil {
		s.loggerf("level=warn msg=captured_at update failed reference=%s err=%v", reference, err)
	}

	if kind == domain.ReservationService {
		if err := s.serviceBookings.SetServicePaid(ctx, bookingID); err != nil {
			s.loggerf("level=error msg=service paid flag update failed reference=%s err=%v", reference, err)
		}
	}

	completed, err := s.transition(ctx, kind, bookingID,
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}, domain.BookingCompleted)
	if err != nil {
		s.loggerf("level=error msg=capture booking completion failed reference=%s err=%v", reference, err)
	}
	if completed {
		if err := s.notifs.NotifyBookingCompleted(ctx, res.ClientSideID, bookingID, kind); err != nil {
			s.loggerf("level=warn msg=booking completed notification failed reference=%s err=%v", reference, err)
		}
	}
	if err := s.notifs.NotifyPaymentReceived(ctx, res.OwnerSideID, bookingID, kind, p.ProviderAmount); err != nil {
		s.loggerf("level=warn msg=payment received notification failed reference=%s err=%v", reference, err)
	}

	return nil
}

// RequestMaterials opens the materials sub-ledger on a confirmed
// service booking. Provider only, once per booking, and only for
// services flagged as possibly including materials.
func (s *Service) RequestMaterials(ctx context.Context, providerID int64, req RequestMaterialsRequest) (*domain.MaterialPayment, error) {
	sb, err := s.serviceBookings.GetByID(ctx, req.ServiceBookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sb.ProviderID != providerID {
		return nil, ErrForbidden
	}
	if sb.Status != domain.BookingConfirmed {
		return nil, ErrInvalidState
	}

	svc, err := s.services.GetByID(ctx, sb.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.MayIncludeMaterials {
		return nil, ErrValidation
	}

	if _, err := s.materials.GetByServiceBooking(ctx, sb.ID); err == nil {
		return nil, ErrDuplicatePayment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var total float64
	items := make([]chat.MaterialItem, 0, len(req.Materials))
	names := make([]string, 0, len(req.Materials))
	for _, m := range req.Materials {
		if m.Name == "" || m.Price <= 0 {
			return nil, ErrValidation
		}
		total += m.Price
		items = append(items, chat.MaterialItem{Name: m.Name, Price: m.Price})
		names = append(names, m.Name)
	}
	total = round2(total)

	mp := &domain.MaterialPayment{
		ServiceBookingID: sb.ID,
		Materials:        strings.Join(names, ", "),
		TotalAmount:      total,
		Status:           domain.PaymentPending,
	}
	if err := s.materials.Create(ctx, mp); err != nil {
		return nil, fmt.Errorf("save material payment: %w", err)
	}

	if err := s.notifs.NotifyPaymentPending(ctx, sb.ClientID, sb.ID, domain.ReservationService, total); err != nil {
		s.loggerf("level=warn msg=material request notification failed service_booking_id=%d err=%v", sb.ID, err)
	}
	if s.messenger != nil {
		if err := s.messenger.SendMaterialRequest(ctx, sb.ProviderID, sb.ClientID, sb.ID, mp.ID, items, total); err != nil {
			s.loggerf("level=warn msg=material request message failed service_booking_id=%d err=%v", sb.ID, err)
		}
	}

	return mp, nil
}

// ConnectStripeAccount stores the caller's Stripe Connect account id.
// Destination charges on their future bookings route funds to it.
func (s *Service) ConnectStripeAccount(ctx context.Context, userID int64, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if !strings.HasPrefix(accountID, "acct_") {
		return ErrValidation
	}
	return s.users.SetStripeAccount(ctx, userID, accountID)
}

// GetForBooking returns the payment row of a booking to either party.
func (s *Service) GetForBooking(ctx context.Context, actorID int64, kind domain.ReservationKind, bookingID int64) (*domain.Payment, error) {
	res, _, err := s.loadPayable(ctx, kind, bookingID)
	if err != nil {
		return nil, err
	}
	if !res.IsParty(actorID) {
		return nil, ErrForbidden
	}

	p, err := s.payments.GetByReference(ctx, domain.BookingReference(kind, bookingID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// loadPayable resolves a reservation and the amount owed on it.
func (s *Service) loadPayable(ctx context.Context, kind domain.ReservationKind, id int64) (domain.Reservation, float64, error) {
	switch kind {
	case domain.ReservationItem:
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Reservation{}, 0, ErrNotFound
			}
			return domain.Reservation{}, 0, err
		}
		return b.Reservation(), b.TotalPrice, nil
	case domain.ReservationService:
		sb, err := s.serviceBookings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Reservation{}, 0, ErrNotFound
			}
			return domain.Reservation{}, 0, err
		}
		svc, err := s.services.GetByID(ctx, sb.ServiceID)
		if err != nil {
			return domain.Reservation{}, 0, err
		}
		return sb.Reservation(), round2(sb.DueAmount(svc)), nil
	default:
		return domain.Reservation{}, 0, ErrValidation
	}
}

func (s *Service) transition(ctx context.Context, kind domain.ReservationKind, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	if kind == domain.ReservationService {
		return s.serviceBookings.UpdateStatusIf(ctx, id, from, to)
	}
	return s.bookings.UpdateStatusIf(ctx, id, from, to)
}

func bookingIDOf(p *domain.Payment) int64 {
	if p.ServiceBookingID != nil {
		return *p.ServiceBookingID
	}
	if p.BookingID != nil {
		return *p.BookingID
	}
	return 0
}

func materialReferenceID(reference string) (int64, bool) {
	rest, found := strings.CutPrefix(reference, "mat_")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
