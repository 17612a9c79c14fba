package e2e

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tolio/internal/database"
	"tolio/internal/middleware"
	"tolio/internal/modules/auth"
	"tolio/internal/modules/booking"
	"tolio/internal/modules/catalog"
	"tolio/internal/modules/chat"
	"tolio/internal/modules/notification"
	"tolio/internal/modules/payment"
	"tolio/internal/modules/review"
	jwtsvc "tolio/internal/pkg/jwt"
	"tolio/internal/repository"
)

const escrowTestSecret = "e2e-escrow-secret"

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	hub    *chat.Hub
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *ErrorDetail           `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	serviceBookingRepo := repository.NewServiceBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	materialRepo := repository.NewMaterialPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	j := jwtsvc.New("e2e-test-secret", time.Hour)

	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	hub := chat.NewHub()
	t.Cleanup(hub.Close)
	chatService := chat.NewService(messageRepo, notificationService, hub)
	chatHandler := chat.NewHandler(chatService, hub, j)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(itemRepo, serviceRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(
		bookingRepo, serviceBookingRepo,
		itemRepo, serviceRepo,
		notificationService, chatService,
	)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(
		paymentRepo, materialRepo,
		bookingRepo, serviceBookingRepo,
		serviceRepo, userRepo,
		notificationService, chatService,
		[]payment.Rail{payment.NewEscrowRail(escrowTestSecret)},
		t.Logf,
	)
	paymentHandler := payment.NewHandler(paymentService)

	reviewService := review.NewService(reviewRepo, bookingRepo, serviceBookingRepo, notificationService)
	reviewHandler := review.NewHandler(reviewService)

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterPublicRoutes(v1)
		reviewHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterWebhooks(v1)

		protected := v1.Group("/")
		protected.Use(middleware.AuthRequired(j))
		{
			catalogHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			reviewHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
		}
	}

	return &E2ETestSuite{router: router, db: db, hub: hub}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

// registerAndLogin creates a user through the public API and returns
// its id plus a bearer token.
func (s *E2ETestSuite) registerAndLogin(t *testing.T, email, firstName string) (int64, string) {
	t.Helper()

	w := s.makeRequest(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":      email,
		"password":   "password123",
		"first_name": firstName,
		"last_name":  "Tester",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	resp := parseResponse(t, s.makeRequest(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    email,
		"password": "password123",
	}, ""))
	require.True(t, resp.Success)

	user := resp.Data["user"].(map[string]interface{})
	return int64(user["id"].(float64)), resp.Data["token"].(string)
}

func signEscrowPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(escrowTestSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// deliverEscrowWebhook posts a signed escrow agent callback for the
// given reference.
func (s *E2ETestSuite) deliverEscrowWebhook(t *testing.T, reference, status string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(gin.H{
		"reference": reference,
		"escrow_id": "esc_e2e",
		"status":    status,
		"tx_hash":   "0xdeadbeef",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/escrow", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Escrow-Signature", signEscrowPayload(payload))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	s := setupTestSuite(t)

	t.Run("register and login", func(t *testing.T) {
		id, token := s.registerAndLogin(t, "alice@example.com", "Alice")
		assert.NotZero(t, id)
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/auth/register", gin.H{
			"email":      "alice@example.com",
			"password":   "password123",
			"first_name": "Alice",
			"last_name":  "Again",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "EMAIL_TAKEN", parseResponse(t, w).Error.Code)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/auth/login", gin.H{
			"email":    "alice@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", parseResponse(t, w).Error.Code)
	})

	t.Run("protected route requires token", func(t *testing.T) {
		w := s.makeRequest(http.MethodGet, "/api/v1/bookings", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestItemRentalFlow(t *testing.T) {
	s := setupTestSuite(t)

	ownerID, ownerToken := s.registerAndLogin(t, "owner@example.com", "Owen")
	_, borrowerToken := s.registerAndLogin(t, "borrower@example.com", "Bella")

	var itemID, bookingID int64

	t.Run("owner lists an item", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/items", gin.H{
			"title":         "Cordless drill",
			"description":   "18V with two batteries",
			"price_per_day": 25.0,
			"location":      "Almaty",
		}, ownerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		item := parseResponse(t, w).Data["item"].(map[string]interface{})
		itemID = int64(item["id"].(float64))
		assert.Equal(t, true, item["is_available"])
	})

	t.Run("item is publicly browsable", func(t *testing.T) {
		w := s.makeRequest(http.MethodGet, "/api/v1/items", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		items := parseResponse(t, w).Data["items"].([]interface{})
		assert.Len(t, items, 1)
	})

	t.Run("borrower books three days", func(t *testing.T) {
		start := time.Now().Add(24 * time.Hour)
		w := s.makeRequest(http.MethodPost, "/api/v1/bookings", gin.H{
			"item_id":    itemID,
			"start_date": start.Format(time.RFC3339),
			"end_date":   start.Add(72 * time.Hour).Format(time.RFC3339),
		}, borrowerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		b := parseResponse(t, w).Data["booking"].(map[string]interface{})
		bookingID = int64(b["id"].(float64))
		assert.Equal(t, "PENDING", b["status"])
		assert.Equal(t, 75.0, b["total_price"])
	})

	t.Run("owner cannot book own item", func(t *testing.T) {
		start := time.Now().Add(24 * time.Hour)
		w := s.makeRequest(http.MethodPost, "/api/v1/bookings", gin.H{
			"item_id":    itemID,
			"start_date": start.Format(time.RFC3339),
			"end_date":   start.Add(24 * time.Hour).Format(time.RFC3339),
		}, ownerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed intent body carries validation details", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind": "item",
		}, borrowerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", parseResponse(t, w).Error.Code)
	})

	t.Run("borrower opens an escrow payment", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rail":       "escrow",
		}, borrowerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		p := parseResponse(t, w).Data["payment"].(map[string]interface{})
		assert.Equal(t, 75.0, p["amount"])
		assert.Equal(t, 3.75, p["platform_fee"])
		assert.Equal(t, 71.25, p["provider_amount"])
	})

	t.Run("second intent for same booking conflicts", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rail":       "escrow",
		}, borrowerToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("owner cannot open the payment", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rail":       "escrow",
		}, ownerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	reference := fmt.Sprintf("bk_%d", bookingID)

	t.Run("escrow release settles payment and confirms booking", func(t *testing.T) {
		w := s.deliverEscrowWebhook(t, reference, "released")
		require.Equal(t, http.StatusOK, w.Code)

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/payments/bookings/item/%d", bookingID), nil, borrowerToken)
		require.Equal(t, http.StatusOK, w.Code)
		p := parseResponse(t, w).Data["payment"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", p["status"])

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, borrowerToken)
		require.Equal(t, http.StatusOK, w.Code)
		b := parseResponse(t, w).Data["booking"].(map[string]interface{})
		assert.Equal(t, "CONFIRMED", b["status"])
	})

	t.Run("webhook replay is acknowledged and changes nothing", func(t *testing.T) {
		w := s.deliverEscrowWebhook(t, reference, "released")
		require.Equal(t, http.StatusOK, w.Code)

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, borrowerToken)
		b := parseResponse(t, w).Data["booking"].(map[string]interface{})
		assert.Equal(t, "CONFIRMED", b["status"])
	})

	t.Run("late failure never regresses a completed payment", func(t *testing.T) {
		w := s.deliverEscrowWebhook(t, reference, "refunded")
		require.Equal(t, http.StatusOK, w.Code)

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/payments/bookings/item/%d", bookingID), nil, borrowerToken)
		p := parseResponse(t, w).Data["payment"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", p["status"])
	})

	t.Run("borrower cannot complete the rental", func(t *testing.T) {
		w := s.makeRequest(http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/complete", bookingID), nil, borrowerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner completes the rental", func(t *testing.T) {
		w := s.makeRequest(http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/complete", bookingID), nil, ownerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, ownerToken)
		b := parseResponse(t, w).Data["booking"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", b["status"])
	})

	t.Run("completed rental accepts no new payment", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rail":       "escrow",
		}, borrowerToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE", parseResponse(t, w).Error.Code)
	})

	t.Run("borrower reviews the owner", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/reviews", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rating":     5,
			"comment":    "Drill worked great",
		}, borrowerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("second review for same booking conflicts", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/reviews", gin.H{
			"kind":       "item",
			"booking_id": bookingID,
			"rating":     4,
			"comment":    "Changed my mind",
		}, borrowerToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "REVIEW_CONFLICT", parseResponse(t, w).Error.Code)
	})

	t.Run("review shows up on the owner profile", func(t *testing.T) {
		w := s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/reviews/user/%d", ownerID), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		reviews := parseResponse(t, w).Data["reviews"].([]interface{})
		assert.Len(t, reviews, 1)
	})

	t.Run("owner accumulated notifications", func(t *testing.T) {
		w := s.makeRequest(http.MethodGet, "/api/v1/notifications", nil, ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.NotEmpty(t, resp.Data["notifications"])
		assert.Greater(t, resp.Data["unread_count"].(float64), 0.0)
	})
}

func TestServiceBookingFlow(t *testing.T) {
	s := setupTestSuite(t)

	providerID, providerToken := s.registerAndLogin(t, "provider@example.com", "Pat")
	_, clientToken := s.registerAndLogin(t, "client@example.com", "Cleo")

	var serviceID, serviceBookingID int64

	t.Run("provider lists an hourly service", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/services", gin.H{
			"title":                 "Apartment painting",
			"price_per_hour":        40.0,
			"price_type":            "hour",
			"may_include_materials": true,
		}, providerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		svc := parseResponse(t, w).Data["service"].(map[string]interface{})
		serviceID = int64(svc["id"].(float64))
	})

	t.Run("client books two hours", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/service-bookings", gin.H{
			"service_id": serviceID,
			"start_date": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			"hours":      2,
		}, clientToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		sb := parseResponse(t, w).Data["booking"].(map[string]interface{})
		serviceBookingID = int64(sb["id"].(float64))
		assert.Equal(t, "PENDING", sb["status"])
	})

	t.Run("provider confirms", func(t *testing.T) {
		w := s.makeRequest(http.MethodPatch, fmt.Sprintf("/api/v1/service-bookings/%d/confirm", serviceBookingID), nil, providerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("provider requests materials", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/materials/request", gin.H{
			"service_booking_id": serviceBookingID,
			"materials": []gin.H{
				{"name": "Paint", "price": 12.50},
				{"name": "Brushes", "price": 7.99},
			},
		}, providerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		mp := parseResponse(t, w).Data["material_payment"].(map[string]interface{})
		assert.Equal(t, 20.49, mp["total_amount"])
	})

	t.Run("materials can only be requested once", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/materials/request", gin.H{
			"service_booking_id": serviceBookingID,
			"materials":          []gin.H{{"name": "Tape", "price": 3.0}},
		}, providerToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("escrow release settles the material payment", func(t *testing.T) {
		w := s.deliverEscrowWebhook(t, fmt.Sprintf("mat_%d", serviceBookingID), "released")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("provider completes and a payment request lands in chat", func(t *testing.T) {
		w := s.makeRequest(http.MethodPatch, fmt.Sprintf("/api/v1/service-bookings/%d/complete", serviceBookingID), nil, providerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", providerID), nil, clientToken)
		require.Equal(t, http.StatusOK, w.Code)
		messages := parseResponse(t, w).Data["messages"].([]interface{})
		require.NotEmpty(t, messages)
	})

	t.Run("provider shows offline without a websocket", func(t *testing.T) {
		w := s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/messages/%d/presence", providerID), nil, clientToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, parseResponse(t, w).Data["online"])
	})

	t.Run("client pays for the completed service", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/payments/intent", gin.H{
			"kind":       "service",
			"booking_id": serviceBookingID,
			"rail":       "escrow",
		}, clientToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		p := parseResponse(t, w).Data["payment"].(map[string]interface{})
		assert.Equal(t, 80.0, p["amount"])

		wh := s.deliverEscrowWebhook(t, fmt.Sprintf("sb_%d", serviceBookingID), "released")
		require.Equal(t, http.StatusOK, wh.Code)

		w = s.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/payments/bookings/service/%d", serviceBookingID), nil, clientToken)
		require.Equal(t, http.StatusOK, w.Code)
		p = parseResponse(t, w).Data["payment"].(map[string]interface{})
		assert.Equal(t, "COMPLETED", p["status"])
	})

	t.Run("client reviews the provider", func(t *testing.T) {
		w := s.makeRequest(http.MethodPost, "/api/v1/reviews", gin.H{
			"kind":       "service",
			"booking_id": serviceBookingID,
			"rating":     5,
			"comment":    "Spotless work",
		}, clientToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

func TestEscrowWebhookSignature(t *testing.T) {
	s := setupTestSuite(t)

	t.Run("bad signature rejected", func(t *testing.T) {
		payload := []byte(`{"reference":"bk_1","status":"released"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/escrow", bytes.NewReader(payload))
		req.Header.Set("X-Escrow-Signature", "not-a-valid-signature")

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown reference acknowledged", func(t *testing.T) {
		w := s.deliverEscrowWebhook(t, "bk_999999", "released")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
