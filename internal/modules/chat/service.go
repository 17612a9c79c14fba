package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"tolio/internal/domain"
	"tolio/internal/repository"
)

var ErrValidation = errors.New("validation error")

type NotificationSender interface {
	NotifyMessageReceived(ctx context.Context, receiverID, senderID int64) error
}

type Service struct {
	messages *repository.MessageRepository
	notifs   NotificationSender
	hub      *Hub
}

func NewService(messages *repository.MessageRepository, notifs NotificationSender, hub *Hub) *Service {
	return &Service{messages: messages, notifs: notifs, hub: hub}
}

func (s *Service) Send(ctx context.Context, senderID int64, req SendMessageRequest) (*domain.Message, error) {
	if senderID <= 0 || req.ReceiverID <= 0 || req.Content == "" || senderID == req.ReceiverID {
		return nil, ErrValidation
	}

	m := &domain.Message{
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: domain.MessageTypeText,
		BookingID:   req.BookingID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}

	s.deliver(ctx, m)
	return m, nil
}

// SendPaymentRequest pushes a structured payment request into the
// conversation when a service booking completes with an outstanding
// balance.
func (s *Service) SendPaymentRequest(ctx context.Context, senderID, receiverID, bookingID int64, amount float64) error {
	payload, err := json.Marshal(PaymentRequestPayload{
		Type:      string(domain.MessageTypePaymentRequest),
		BookingID: bookingID,
		Amount:    amount,
		IsPaid:    false,
	})
	if err != nil {
		return err
	}

	m := &domain.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     string(payload),
		MessageType: domain.MessageTypePaymentRequest,
		BookingID:   &bookingID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return fmt.Errorf("save payment request message: %w", err)
	}

	s.deliver(ctx, m)
	return nil
}

// SendMaterialRequest mirrors SendPaymentRequest for the materials
// sub-ledger.
func (s *Service) SendMaterialRequest(ctx context.Context, senderID, receiverID, bookingID, materialPaymentID int64, materials []MaterialItem, totalAmount float64) error {
	payload, err := json.Marshal(MaterialRequestPayload{
		Type:              string(domain.MessageTypeMaterialRequest),
		MaterialPaymentID: materialPaymentID,
		Materials:         materials,
		TotalAmount:       totalAmount,
	})
	if err != nil {
		return err
	}

	m := &domain.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     string(payload),
		MessageType: domain.MessageTypeMaterialRequest,
		BookingID:   &bookingID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return fmt.Errorf("save material request message: %w", err)
	}

	s.deliver(ctx, m)
	return nil
}

func (s *Service) GetConversation(ctx context.Context, userID, otherUserID int64, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.GetConversation(ctx, userID, otherUserID, limit, offset)
}

func (s *Service) MarkConversationRead(ctx context.Context, readerID, senderID int64) error {
	return s.messages.MarkConversationRead(ctx, readerID, senderID)
}

func (s *Service) deliver(ctx context.Context, m *domain.Message) {
	if s.notifs != nil {
		if err := s.notifs.NotifyMessageReceived(ctx, m.ReceiverID, m.SenderID); err != nil {
			log.Printf("level=error msg=message notification failed receiver_id=%d err=%v", m.ReceiverID, err)
		}
	}
	if s.hub != nil {
		s.hub.SendToUser(m.ReceiverID, m)
	}
}
