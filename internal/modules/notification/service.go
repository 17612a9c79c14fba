package notification

import (
	"context"
	"fmt"

	"tolio/internal/domain"
	"tolio/internal/repository"
)

type Service struct {
	repo *repository.NotificationRepository
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// Create appends one notification row. Callers treat failures as
// best-effort: a lost notification must never roll back the state
// transition that produced it.
func (s *Service) Create(ctx context.Context, userID int64, t domain.NotificationType, title, content, actionURL string, data map[string]any) error {
	n := &domain.Notification{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Content:   content,
		ActionURL: actionURL,
		IsRead:    false,
		Data:      data,
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}

	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *Service) NotifyBookingRequested(ctx context.Context, ownerUserID, bookingID int64, kind domain.ReservationKind, title string) error {
	return s.Create(
		ctx,
		ownerUserID,
		domain.NotifBookingRequest,
		"New booking request",
		fmt.Sprintf("You have a new booking request for %q", title),
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind},
	)
}

func (s *Service) NotifyBookingConfirmed(ctx context.Context, clientUserID, bookingID int64, kind domain.ReservationKind) error {
	return s.Create(
		ctx,
		clientUserID,
		domain.NotifBookingConfirmed,
		"Booking confirmed",
		"Your booking has been confirmed",
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind},
	)
}

func (s *Service) NotifyBookingCancelled(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error {
	return s.Create(
		ctx,
		userID,
		domain.NotifBookingCancelled,
		"Booking cancelled",
		"The booking has been cancelled by the other party",
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind},
	)
}

func (s *Service) NotifyBookingCompleted(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error {
	return s.Create(
		ctx,
		userID,
		domain.NotifBookingCompleted,
		"Booking completed",
		"The booking has been completed. Leave a review!",
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind},
	)
}

func (s *Service) NotifyPaymentReceived(ctx context.Context, providerUserID, bookingID int64, kind domain.ReservationKind, amount float64) error {
	return s.Create(
		ctx,
		providerUserID,
		domain.NotifPaymentReceived,
		"Payment received",
		fmt.Sprintf("You have received $%.2f", amount),
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind, "amount": amount},
	)
}

func (s *Service) NotifyPaymentPending(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind, amount float64) error {
	return s.Create(
		ctx,
		userID,
		domain.NotifPaymentPending,
		"Payment pending",
		fmt.Sprintf("A payment of $%.2f is awaiting completion", amount),
		bookingURL(kind, bookingID),
		map[string]any{"booking_id": bookingID, "kind": kind, "amount": amount},
	)
}

func (s *Service) NotifyNewReview(ctx context.Context, revieweeID, reviewID int64, rating int) error {
	return s.Create(
		ctx,
		revieweeID,
		domain.NotifNewReview,
		"New review",
		fmt.Sprintf("You received a %d-star review", rating),
		fmt.Sprintf("/dashboard/reviews/%d", reviewID),
		map[string]any{"review_id": reviewID, "rating": rating},
	)
}

func (s *Service) NotifyMessageReceived(ctx context.Context, receiverID, senderID int64) error {
	return s.Create(
		ctx,
		receiverID,
		domain.NotifMessageReceived,
		"New message",
		"You have a new message",
		fmt.Sprintf("/messages/%d", senderID),
		map[string]any{"sender_id": senderID},
	)
}

func bookingURL(kind domain.ReservationKind, bookingID int64) string {
	if kind == domain.ReservationService {
		return fmt.Sprintf("/dashboard/service-bookings/%d", bookingID)
	}
	return fmt.Sprintf("/dashboard/bookings/%d", bookingID)
}
