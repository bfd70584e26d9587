package domain

// RequestRepository defines the interface for request history persistence
type RequestRepository interface {
	// Create creates a new request
	Create(request *Request) error

	// Update updates an existing request
	Update(request *Request) error

	// FindByID finds a request by ID
	FindByID(id string) (*Request, error)

	// FindByUser returns the most recent requests of a user
	FindByUser(userID int64, limit int) ([]*Request, error)

	// FindAll finds all requests with optional filters
	FindAll(filters map[string]interface{}) ([]*Request, error)

	// CountByStatus returns the number of requests by status
	CountByStatus(status RequestStatus) (int64, error)

	// ResetOrphaned marks queued and processing requests left by a previous run as failed
	ResetOrphaned() (int64, error)

	// GetStats returns request statistics
	GetStats() (*RequestStats, error)
}

// RequestStats represents request statistics
type RequestStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Oversize   int64 `json:"oversize"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
