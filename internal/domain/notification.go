package domain

import "time"

type NotificationType string

const (
	NotifBookingRequest   NotificationType = "BOOKING_REQUEST"
	NotifBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotifBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotifBookingCompleted NotificationType = "BOOKING_COMPLETED"
	NotifPaymentReceived  NotificationType = "PAYMENT_RECEIVED"
	NotifPaymentPending   NotificationType = "PAYMENT_PENDING"
	NotifNewReview        NotificationType = "NEW_REVIEW"
	NotifMessageReceived  NotificationType = "MESSAGE_RECEIVED"
)

// Notification is append-only; the only mutation ever applied is the
// is_read flip.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id" gorm:"index;not null"`
	Type      NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Title     string           `json:"title"`
	Content   string           `json:"content,omitempty" gorm:"type:text"`
	ActionURL string           `json:"action_url,omitempty"`
	IsRead    bool             `json:"is_read" gorm:"default:false"`
	Data      any              `json:"data,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
