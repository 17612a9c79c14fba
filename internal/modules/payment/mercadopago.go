package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tolio/internal/domain"
)

const RailMercadoPago = "mercadopago"

// MercadoPagoRail settles through Checkout Pro preferences. There is
// no capture step: MercadoPago charges immediately and reports the
// outcome over webhooks, which we confirm by fetching the payment
// back from the API.
type MercadoPagoRail struct {
	accessToken     string
	baseURL         string
	notificationURL string
	backURL         string
	httpClient      *http.Client
}

func NewMercadoPagoRail(accessToken, notificationURL, backURL string) *MercadoPagoRail {
	return &MercadoPagoRail{
		accessToken:     accessToken,
		baseURL:         "https://api.mercadopago.com",
		notificationURL: notificationURL,
		backURL:         backURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *MercadoPagoRail) Name() string { return RailMercadoPago }

type mpPreferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem `json:"items"`
	ExternalReference string             `json:"external_reference"`
	MarketplaceFee    float64            `json:"marketplace_fee,omitempty"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	BackURLs          *mpBackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	Payer             *mpPayer           `json:"payer,omitempty"`
}

type mpBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (r *MercadoPagoRail) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	body := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			Title:     req.Description,
			Quantity:  1,
			UnitPrice: req.Amount,
		}},
		ExternalReference: req.Reference,
		MarketplaceFee:    req.PlatformFee,
		NotificationURL:   r.notificationURL,
	}
	if req.PayerEmail != "" {
		body.Payer = &mpPayer{Email: req.PayerEmail}
	}
	if r.backURL != "" {
		body.BackURLs = &mpBackURLs{Success: r.backURL, Failure: r.backURL, Pending: r.backURL}
		body.AutoReturn = "approved"
	}

	var pref mpPreferenceResponse
	if err := r.do(ctx, http.MethodPost, "/checkout/preferences", body, &pref); err != nil {
		return nil, fmt.Errorf("mercadopago create preference: %w", err)
	}

	return &Intent{
		ProviderPaymentID: pref.ID,
		CheckoutURL:       pref.InitPoint,
		ProviderStatus:    "created",
	}, nil
}

type mpWebhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

type mpPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

// ParseWebhook confirms a notification by fetching the payment back
// from the API instead of trusting the delivery body. Non-payment
// topics are acknowledged and dropped.
func (r *MercadoPagoRail) ParseWebhook(ctx context.Context, payload []byte, sigHeader string) (*Event, error) {
	var notif mpWebhookNotification
	if err := json.Unmarshal(payload, &notif); err != nil {
		return nil, fmt.Errorf("mercadopago parse notification: %w", err)
	}
	if notif.Type != "payment" || notif.Data.ID == "" {
		return nil, nil
	}

	var p mpPayment
	if err := r.do(ctx, http.MethodGet, "/v1/payments/"+notif.Data.ID.String(), nil, &p); err != nil {
		return nil, fmt.Errorf("mercadopago fetch payment %s: %w", notif.Data.ID, err)
	}

	return &Event{
		Reference:         p.ExternalReference,
		ProviderPaymentID: p.ID.String(),
		ProviderStatus:    p.Status,
		Outcome:           mapMercadoPagoStatus(p.Status),
	}, nil
}

func mapMercadoPagoStatus(status string) domain.PaymentStatus {
	switch status {
	case "approved":
		return domain.PaymentCompleted
	case "pending", "in_process", "authorized":
		return domain.PaymentPending
	default:
		// rejected, cancelled, refunded, charged_back
		return domain.PaymentFailed
	}
}

// Capture is not supported: MercadoPago settles on approval.
func (r *MercadoPagoRail) Capture(ctx context.Context, providerPaymentID string) error {
	return fmt.Errorf("mercadopago does not support manual capture")
}

func (r *MercadoPagoRail) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mercadopago api status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
