package domain

import "time"

type MessageType string

const (
	MessageTypeText MessageType = "text"
	// MessageTypePaymentRequest carries a serialized payment request
	// (amount + booking reference) rendered as an interactive card.
	MessageTypePaymentRequest MessageType = "payment_request"
	// MessageTypeMaterialRequest carries a materials cost breakdown.
	MessageTypeMaterialRequest MessageType = "material_payment_request"
)

// Message is append-only chat between two users, optionally pinned to
// a booking.
type Message struct {
	ID          int64       `json:"id"`
	SenderID    int64       `json:"sender_id" gorm:"index;not null"`
	ReceiverID  int64       `json:"receiver_id" gorm:"index;not null"`
	Content     string      `json:"content" gorm:"type:text;not null"`
	MessageType MessageType `json:"message_type" gorm:"type:varchar(30);default:'text'"`
	BookingID   *int64      `json:"booking_id,omitempty" gorm:"index"`
	IsRead      bool        `json:"is_read" gorm:"default:false"`
	ReadAt      *time.Time  `json:"read_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	Sender *User `json:"sender,omitempty" gorm:"-"`
}

func (Message) TableName() string { return "messages" }
