package chat

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
	BookingID  *int64 `json:"booking_id,omitempty"`
}

// PaymentRequestPayload is the structured body of a payment_request
// message. The client renders it as a pay card in the conversation.
type PaymentRequestPayload struct {
	Type      string  `json:"type"`
	BookingID int64   `json:"bookingId"`
	Amount    float64 `json:"amount"`
	IsPaid    bool    `json:"isPaid"`
}

// MaterialRequestPayload is the body of a material_payment_request
// message.
type MaterialRequestPayload struct {
	Type              string         `json:"type"`
	MaterialPaymentID int64          `json:"materialPaymentId"`
	Materials         []MaterialItem `json:"materials"`
	TotalAmount       float64        `json:"totalAmount"`
}

type MaterialItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
