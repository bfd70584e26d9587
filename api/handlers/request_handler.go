package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/internal/infrastructure"
)

// RequestService exposes request history and control
type RequestService interface {
	GetRequest(id string) (*domain.Request, error)
	ListRequests(filters map[string]interface{}) ([]*domain.Request, error)
	GetStats() (*domain.RequestStats, error)
	Cancel(requestID string) error
}

// RequestHandler handles request-related HTTP requests
type RequestHandler struct {
	service RequestService
	logger  *zap.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(service RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger,
	}
}

// GetRequest handles GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")

	request, err := h.service.GetRequest(id)
	if err != nil {
		if infrastructure.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		h.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListRequests handles GET /api/v1/requests
func (h *RequestHandler) ListRequests(c *gin.Context) {
	// Parse query parameters for filtering
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		if !domain.ValidateStatus(domain.RequestStatus(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filters["status"] = status
	}
	if user := c.Query("user"); user != "" {
		userID, err := strconv.ParseInt(user, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		filters["user_id"] = userID
	}

	requests, err := h.service.ListRequests(filters)
	if err != nil {
		h.logger.Error("Failed to list requests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetStats handles GET /api/v1/requests/stats
func (h *RequestHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelRequest handles POST /api/v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Cancel(id); err != nil {
		if errors.Is(err, domain.ErrNotCancellable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to cancel request", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request cancelled"})
}
