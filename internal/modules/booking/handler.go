package booking

import (
	"context"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/bookings")
	{
		items.POST("", h.CreateItemBooking)
		items.GET("", h.ListItemBookings)
		items.GET("/:id", h.GetItemBooking)
		items.PATCH("/:id/confirm", h.transitionHandler(domain.ReservationItem, (*Service).Confirm))
		items.PATCH("/:id/complete", h.transitionHandler(domain.ReservationItem, (*Service).Complete))
		items.PATCH("/:id/cancel", h.transitionHandler(domain.ReservationItem, (*Service).Cancel))
	}

	svcs := rg.Group("/service-bookings")
	{
		svcs.POST("", h.CreateServiceBooking)
		svcs.GET("", h.ListServiceBookings)
		svcs.GET("/:id", h.GetServiceBooking)
		svcs.PATCH("/:id/confirm", h.transitionHandler(domain.ReservationService, (*Service).Confirm))
		svcs.PATCH("/:id/complete", h.transitionHandler(domain.ReservationService, (*Service).Complete))
		svcs.PATCH("/:id/cancel", h.transitionHandler(domain.ReservationService, (*Service).Cancel))
	}
}

func (h *Handler) CreateItemBooking(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateItemBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateItemBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondBookingError(c, err, "Failed to create booking")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) CreateServiceBooking(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateServiceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	sb, err := h.service.CreateServiceBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondBookingError(c, err, "Failed to create service booking")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": sb})
}

func (h *Handler) GetItemBooking(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	b, err := h.service.GetItemBooking(c.Request.Context(), userID, id)
	if err != nil {
		respondBookingError(c, err, "Failed to get booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetServiceBooking(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	sb, err := h.service.GetServiceBooking(c.Request.Context(), userID, id)
	if err != nil {
		respondBookingError(c, err, "Failed to get service booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": sb})
}

func (h *Handler) ListItemBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListItemBookings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) ListServiceBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListServiceBookings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list service bookings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

// transitionHandler builds one handler per (kind, transition) pair so
// confirm/complete/cancel share the same parsing and error mapping.
func (h *Handler) transitionHandler(kind domain.ReservationKind, op func(*Service, context.Context, int64, domain.ReservationKind, int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
			return
		}

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
			return
		}

		if err := op(h.service, c.Request.Context(), userID, kind, id); err != nil {
			respondBookingError(c, err, "Failed to update booking")
			return
		}

		response.Success(c, http.StatusOK, gin.H{"updated": true})
	}
}

func respondBookingError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case ErrNotAvailable:
		response.Error(c, http.StatusConflict, "NOT_AVAILABLE", "Not available for booking")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	case ErrInvalidTransition:
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Booking is not in a state that allows this action")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
