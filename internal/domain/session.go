package domain

import "time"

// SessionState represents where a user is in the conversation
type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateAwaitingResolution SessionState = "awaiting_resolution"
	StateDownloading        SessionState = "downloading"
)

// Session holds the in-progress request of a single user
type Session struct {
	UserID        int64        `json:"user_id"`
	ChatID        int64        `json:"chat_id"`
	MenuMessageID int          `json:"menu_message_id"`
	URL           string       `json:"url"`
	Info          *MediaInfo   `json:"info"`
	Resolution    Resolution   `json:"resolution"`
	EstimatedMB   int          `json:"estimated_mb"`
	State         SessionState `json:"state"`
	Cancelled     bool         `json:"cancelled"`
	RequestID     string       `json:"request_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NewSession creates a session for a freshly probed link
func NewSession(userID, chatID int64, url string, info *MediaInfo) *Session {
	return &Session{
		UserID:    userID,
		ChatID:    chatID,
		URL:       url,
		Info:      info,
		State:     StateAwaitingResolution,
		CreatedAt: time.Now(),
	}
}

// ChooseResolution records the chosen tier and its size estimate
func (s *Session) ChooseResolution(res Resolution) {
	s.Resolution = res
	s.EstimatedMB = EstimateSizeMB(s.Info.DurationSeconds(), res.Height)
}

// MarkDownloading binds the session to a queued request
func (s *Session) MarkDownloading(requestID string) {
	s.State = StateDownloading
	s.RequestID = requestID
}

// SessionStore is a per-user keyed store of sessions.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get returns a copy of the user's session
	Get(userID int64) (*Session, bool)

	// Set stores the session, replacing any previous one for the user
	Set(session *Session)

	// Update applies fn to the stored session; returns ErrSessionNotFound if absent
	Update(userID int64, fn func(s *Session)) error

	// Delete removes the user's session
	Delete(userID int64)

	// Release removes the user's session only if it is bound to requestID
	Release(userID int64, requestID string) bool

	// DeleteIf removes the user's session if match reports true, checked
	// under the same lock as the delete
	DeleteIf(userID int64, match func(s *Session) bool) bool

	// List returns copies of every live session
	List() []*Session
	// Count returns the number of live sessions
	Count() int
}
