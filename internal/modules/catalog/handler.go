package catalog

import (
	"net/http"
	"strconv"

	"tolio/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the browse endpoints; listings are
// readable without a session.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/items", h.ListItems)
	rg.GET("/items/:id", h.GetItem)
	rg.GET("/services", h.ListServices)
	rg.GET("/services/:id", h.GetService)
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/items", h.CreateItem)
	protected.GET("/my/items", h.ListMyItems)
	protected.PATCH("/items/:id/availability", h.SetItemAvailability)

	protected.POST("/services", h.CreateService)
	protected.GET("/my/services", h.ListMyServices)
	protected.PATCH("/services/:id/availability", h.SetServiceAvailability)
}

func (h *Handler) CreateItem(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	it, err := h.service.CreateItem(c.Request.Context(), userID, req)
	if err != nil {
		respondCatalogError(c, err, "Failed to create item")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"item": it})
}

func (h *Handler) CreateService(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), userID, req)
	if err != nil {
		respondCatalogError(c, err, "Failed to create service")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"service": svc})
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	it, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, "Failed to get item")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"item": it})
}

func (h *Handler) GetService(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}

	svc, err := h.service.GetService(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, "Failed to get service")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"service": svc})
}

func (h *Handler) ListItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.service.ListItems(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list items")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) ListServices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	services, err := h.service.ListServices(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list services")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"services": services})
}

func (h *Handler) ListMyItems(c *gin.Context) {
	userID := c.GetInt64("user_id")
	items, err := h.service.ListMyItems(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list items")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) ListMyServices(c *gin.Context) {
	userID := c.GetInt64("user_id")
	services, err := h.service.ListMyServices(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list services")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"services": services})
}

func (h *Handler) SetItemAvailability(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.SetItemAvailability(c.Request.Context(), userID, id, *req.IsAvailable); err != nil {
		respondCatalogError(c, err, "Failed to update item")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) SetServiceAvailability(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.SetServiceAvailability(c.Request.Context(), userID, id, *req.IsAvailable); err != nil {
		respondCatalogError(c, err, "Failed to update service")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func respondCatalogError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid listing data")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Listing not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
