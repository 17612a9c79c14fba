package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"tolio/internal/domain"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const RailStripe = "stripe"

// StripeRail settles through Stripe Connect: intents are created with
// manual capture and a destination transfer, so funds are held until
// the owner confirms hand-over.
type StripeRail struct {
	client        *stripe.Client
	webhookSecret string
}

func NewStripeRail(secretKey, webhookSecret string) *StripeRail {
	return &StripeRail{
		client:        stripe.NewClient(secretKey),
		webhookSecret: webhookSecret,
	}
}

func (r *StripeRail) Name() string { return RailStripe }

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (r *StripeRail) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(toCents(req.Amount)),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(req.Description),
	}
	params.AddMetadata("reference", req.Reference)
	if req.PayerEmail != "" {
		params.ReceiptEmail = stripe.String(req.PayerEmail)
	}
	if req.DestinationAccount != "" {
		params.TransferData = &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(req.DestinationAccount),
		}
		params.ApplicationFeeAmount = stripe.Int64(toCents(req.PlatformFee))
	}

	pi, err := r.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}

	return &Intent{
		ProviderPaymentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		ProviderStatus:    string(pi.Status),
	}, nil
}

func (r *StripeRail) ParseWebhook(ctx context.Context, payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, r.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	switch event.Type {
	case "payment_intent.succeeded",
		"payment_intent.amount_capturable_updated",
		"payment_intent.payment_failed",
		"payment_intent.processing":
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe parse payment intent: %w", err)
	}

	outcome := domain.PaymentPending
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = domain.PaymentCompleted
	case "payment_intent.payment_failed":
		outcome = domain.PaymentFailed
	}

	return &Event{
		Reference:         pi.Metadata["reference"],
		ProviderPaymentID: pi.ID,
		ProviderStatus:    string(pi.Status),
		Outcome:           outcome,
	}, nil
}

func (r *StripeRail) Capture(ctx context.Context, providerPaymentID string) error {
	_, err := r.client.V1PaymentIntents.Capture(ctx, providerPaymentID, &stripe.PaymentIntentCaptureParams{})
	if err != nil {
		return fmt.Errorf("stripe capture: %w", err)
	}
	return nil
}
