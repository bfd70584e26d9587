package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueueStatus reports whether downloads are being processed
type QueueStatus interface {
	IsRunning() bool
	Pending() int
}

// Pinger checks a backing store
type Pinger interface {
	Ping() error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	queue   QueueStatus
	db      Pinger
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(queue QueueStatus, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		queue:   queue,
		db:      db,
		version: version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Queue   struct {
		Running bool `json:"running"`
		Pending int  `json:"pending"`
	} `json:"queue"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	response.Queue.Running = h.queue.IsRunning()
	response.Queue.Pending = h.queue.Pending()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.queue.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "queue manager not running",
		})
		return
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
