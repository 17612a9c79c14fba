package payment

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"tolio/internal/domain"
	"tolio/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/payments")
	{
		g.POST("/intent", h.CreateIntent)
		g.GET("/bookings/:kind/:id", h.GetForBooking)
		g.POST("/bookings/:kind/:id/capture", h.Capture)
		g.POST("/materials/request", h.RequestMaterials)
		g.POST("/stripe-account", h.ConnectStripeAccount)
	}
}

// RegisterWebhooks mounts the unauthenticated rail callbacks. These
// live outside the auth middleware: rails sign their own deliveries.
func (h *Handler) RegisterWebhooks(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.webhook(RailStripe, "Stripe-Signature"))
	rg.POST("/webhooks/mercadopago", h.webhook(RailMercadoPago, ""))
	rg.POST("/webhooks/escrow", h.webhook(RailEscrow, "X-Escrow-Signature"))
}

func (h *Handler) CreateIntent(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	resp, err := h.service.CreateIntent(c.Request.Context(), userID, req)
	if err != nil {
		respondPaymentError(c, err, "Failed to create payment")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": resp})
}

func (h *Handler) GetForBooking(c *gin.Context) {
	userID := c.GetInt64("user_id")
	kind, id, ok := parseBookingRef(c)
	if !ok {
		return
	}

	p, err := h.service.GetForBooking(c.Request.Context(), userID, kind, id)
	if err != nil {
		respondPaymentError(c, err, "Failed to get payment")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) Capture(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}
	kind, id, ok := parseBookingRef(c)
	if !ok {
		return
	}

	if err := h.service.Capture(c.Request.Context(), userID, kind, id); err != nil {
		respondPaymentError(c, err, "Failed to capture payment")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"captured": true})
}

func (h *Handler) RequestMaterials(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req RequestMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	mp, err := h.service.RequestMaterials(c.Request.Context(), userID, req)
	if err != nil {
		respondPaymentError(c, err, "Failed to request materials payment")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"material_payment": mp,
		"reference":        domain.MaterialReference(mp.ServiceBookingID),
	})
}

func (h *Handler) ConnectStripeAccount(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req ConnectStripeAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ConnectStripeAccount(c.Request.Context(), userID, req.AccountID); err != nil {
		respondPaymentError(c, err, "Failed to connect Stripe account")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"connected": true})
}

// webhook builds the callback handler for one rail. Signature
// failures are the only 4xx: everything else is acknowledged with 200
// so the rail stops retrying deliveries we have already absorbed.
func (h *Handler) webhook(railName, sigHeaderName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Printf("level=error msg=webhook body read failed rail=%s err=%v", railName, err)
			c.Status(http.StatusServiceUnavailable)
			return
		}

		var sigHeader string
		if sigHeaderName != "" {
			sigHeader = c.GetHeader(sigHeaderName)
		}

		if err := h.service.ReconcileWebhook(c.Request.Context(), railName, payload, sigHeader); err != nil {
			if err == ErrInvalidSignature {
				c.Status(http.StatusBadRequest)
				return
			}
			log.Printf("level=error msg=webhook reconcile failed rail=%s err=%v", railName, err)
		}

		c.Status(http.StatusOK)
	}
}

func parseBookingRef(c *gin.Context) (domain.ReservationKind, int64, bool) {
	var kind domain.ReservationKind
	switch c.Param("kind") {
	case "item":
		kind = domain.ReservationItem
	case "service":
		kind = domain.ReservationService
	default:
		response.Error(c, http.StatusBadRequest, "INVALID_KIND", "Booking kind must be item or service")
		return "", 0, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return "", 0, false
	}
	return kind, id, true
}

func respondPaymentError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment request")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment or booking not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	case ErrDuplicatePayment:
		response.Error(c, http.StatusConflict, "DUPLICATE_PAYMENT", "A payment already exists for this booking")
	case ErrAlreadyCompleted:
		response.Error(c, http.StatusConflict, "ALREADY_COMPLETED", "Payment has already been completed")
	case ErrInvalidState:
		response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking is not in a state that allows this payment action")
	case ErrUnknownRail:
		response.Error(c, http.StatusBadRequest, "UNKNOWN_RAIL", "Unsupported payment rail")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
