package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the current status of a download request
type RequestStatus string

const (
	StatusQueued     RequestStatus = "queued"
	StatusProcessing RequestStatus = "processing"
	StatusSent       RequestStatus = "sent"
	StatusOversize   RequestStatus = "oversize"
	StatusFailed     RequestStatus = "failed"
	StatusCancelled  RequestStatus = "cancelled"
)

// Request is the persisted record of one download attempt
type Request struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	UserID        int64         `json:"user_id" gorm:"not null;index"`
	ChatID        int64         `json:"chat_id" gorm:"not null"`
	URL           string        `json:"url" gorm:"not null"`
	Title         string        `json:"title"`
	Duration      float64       `json:"duration"`
	Resolution    string        `json:"resolution"`
	Height        string        `json:"height"`
	EstimatedMB   int           `json:"estimated_mb"`
	Status        RequestStatus `json:"status" gorm:"not null;index"`
	FileSizeBytes int64         `json:"file_size_bytes"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ProcessLog    string        `json:"process_log,omitempty" gorm:"type:text"` // tail of yt-dlp output
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// NewRequest creates a queued request from a session with a chosen resolution
func NewRequest(session *Session) *Request {
	now := time.Now()
	return &Request{
		ID:          uuid.New().String(),
		UserID:      session.UserID,
		ChatID:      session.ChatID,
		URL:         session.URL,
		Title:       session.Info.DisplayTitle(),
		Duration:    session.Info.DurationSeconds(),
		Resolution:  session.Resolution.Key,
		Height:      session.Resolution.Height,
		EstimatedMB: session.EstimatedMB,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkProcessing marks the request as processing
func (r *Request) MarkProcessing() {
	r.Status = StatusProcessing
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkSent marks the request as delivered
func (r *Request) MarkSent(sizeBytes int64) {
	r.finish(StatusSent)
	r.FileSizeBytes = sizeBytes
}

// MarkOversize marks the request as rejected for size
func (r *Request) MarkOversize(sizeBytes int64) {
	r.finish(StatusOversize)
	r.FileSizeBytes = sizeBytes
	r.ErrorMessage = ErrOversize.Error()
}

// MarkFailed marks the request as failed
func (r *Request) MarkFailed(err error) {
	r.finish(StatusFailed)
	r.ErrorMessage = err.Error()
}

// MarkCancelled marks the request as cancelled by the user
func (r *Request) MarkCancelled() {
	r.finish(StatusCancelled)
	r.ErrorMessage = ErrCancelled.Error()
}

func (r *Request) finish(status RequestStatus) {
	r.Status = status
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// IsTerminal checks if the request is in a terminal state
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusSent, StatusOversize, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ValidateStatus checks if a status is known
func ValidateStatus(status RequestStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusSent, StatusOversize, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
