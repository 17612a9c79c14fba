package payment

import (
	"context"

	"tolio/internal/domain"
)

// IntentRequest carries everything a rail needs to open a checkout for
// one booking. The reference doubles as the idempotency key on the
// provider side.
type IntentRequest struct {
	Reference   string
	Amount      float64
	PlatformFee float64
	Description string
	PayerEmail  string

	// DestinationAccount is the owner side's connected account, when
	// the rail supports a split at intent time. Empty means the whole
	// amount lands on the platform account.
	DestinationAccount string
}

// Intent is what a rail hands back after opening a checkout.
type Intent struct {
	ProviderPaymentID string
	ClientSecret      string
	CheckoutURL       string
	ProviderStatus    string
}

// Event is a normalized webhook delivery. A nil Event from
// ParseWebhook means the delivery is not about a payment and must be
// acknowledged without side effects.
type Event struct {
	Reference         string
	ProviderPaymentID string
	ProviderStatus    string
	Outcome           domain.PaymentStatus
}

// Rail abstracts one settlement provider. Implementations must be
// safe for concurrent use.
type Rail interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ParseWebhook(ctx context.Context, payload []byte, sigHeader string) (*Event, error)
	Capture(ctx context.Context, providerPaymentID string) error
}
