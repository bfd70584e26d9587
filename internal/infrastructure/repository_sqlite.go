package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/ytmm-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// filterColumns lists the columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"status":     true,
	"user_id":    true,
	"chat_id":    true,
	"resolution": true,
}

// SQLiteRequestRepository implements RequestRepository using SQLite
type SQLiteRequestRepository struct {
	db *gorm.DB
}

// NewSQLiteRequestRepository creates a new SQLite repository
func NewSQLiteRequestRepository(dbPath string) (*SQLiteRequestRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Request{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRequestRepository{db: db}, nil
}

// Create creates a new request
func (r *SQLiteRequestRepository) Create(request *domain.Request) error {
	return r.db.Create(request).Error
}

// Update updates an existing request
func (r *SQLiteRequestRepository) Update(request *domain.Request) error {
	return r.db.Save(request).Error
}

// FindByID finds a request by ID
func (r *SQLiteRequestRepository) FindByID(id string) (*domain.Request, error) {
	var request domain.Request
	err := r.db.First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByUser returns the most recent requests of a user
func (r *SQLiteRequestRepository) FindByUser(userID int64, limit int) ([]*domain.Request, error) {
	var requests []*domain.Request
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&requests).Error
	return requests, err
}

// FindAll finds all requests with optional filters
func (r *SQLiteRequestRepository) FindAll(filters map[string]interface{}) ([]*domain.Request, error) {
	var requests []*domain.Request
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// CountByStatus returns the number of requests by status
func (r *SQLiteRequestRepository) CountByStatus(status domain.RequestStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Request{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ResetOrphaned marks requests that were queued or processing when the
// previous process stopped as failed
func (r *SQLiteRequestRepository) ResetOrphaned() (int64, error) {
	now := time.Now()
	result := r.db.Model(&domain.Request{}).
		Where("status IN ?", []domain.RequestStatus{domain.StatusQueued, domain.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        domain.StatusFailed,
			"error_message": "interrupted by restart",
			"completed_at":  now,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}

// GetStats returns request statistics
func (r *SQLiteRequestRepository) GetStats() (*domain.RequestStats, error) {
	stats := &domain.RequestStats{}

	// Get total count
	if err := r.db.Model(&domain.Request{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Get counts by status
	statusCounts := []struct {
		Status domain.RequestStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Request{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusSent:
			stats.Sent = sc.Count
		case domain.StatusOversize:
			stats.Oversize = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Ping checks the database connection
func (r *SQLiteRequestRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (r *SQLiteRequestRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
