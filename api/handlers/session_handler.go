package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// SessionHandler reports live chat sessions
type SessionHandler struct {
	sessions domain.SessionStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions domain.SessionStore) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// sessionView omits probed metadata from the listing
type sessionView struct {
	UserID     int64               `json:"user_id"`
	URL        string              `json:"url"`
	Title      string              `json:"title"`
	State      domain.SessionState `json:"state"`
	Resolution string              `json:"resolution,omitempty"`
	RequestID  string              `json:"request_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			UserID:     s.UserID,
			URL:        s.URL,
			Title:      s.Info.DisplayTitle(),
			State:      s.State,
			Resolution: s.Resolution.Key,
			RequestID:  s.RequestID,
			CreatedAt:  s.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(views),
		"sessions": views,
	})
}
