package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// JobProcessor runs and terminates queued jobs
type JobProcessor interface {
	Process(ctx context.Context, job Job) error
	Reject(job Job, reason error)
	Cancel(requestID string) error
}

// QueueManager feeds jobs to a fixed pool of workers
type QueueManager struct {
	repo        domain.RequestRepository
	processor   JobProcessor
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	jobs        chan Job
	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.RequestRepository,
	processor JobProcessor,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	return &QueueManager{
		repo:        repo,
		processor:   processor,
		config:      config,
		multiLogger: multiLogger,
		jobs:        make(chan Job, config.Capacity),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the workers
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	qm.logEvent("queue_started", zap.Int("workers", qm.config.Workers))

	for i := 0; i < qm.config.Workers; i++ {
		qm.workerWg.Add(1)
		go qm.worker(ctx, i)
	}

	return nil
}

// Stop stops accepting jobs, waits for in-flight jobs and rejects the rest
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	close(qm.stopChan)
	qm.mu.Unlock()

	qm.workerWg.Wait()

	// Jobs left in the buffer will never run
	for {
		select {
		case job := <-qm.jobs:
			qm.processor.Reject(job, fmt.Errorf("%w: shutting down", domain.ErrDownloadFailed))
			qm.logEvent("request_rejected",
				zap.String("id", job.Request.ID),
				zap.String("reason", "shutdown"))
		default:
			qm.logEvent("queue_stopped")
			return nil
		}
	}
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// Pending returns the number of jobs waiting for a worker
func (qm *QueueManager) Pending() int {
	return len(qm.jobs)
}

// Submit persists the request and enqueues it without blocking
func (qm *QueueManager) Submit(job Job) error {
	if err := qm.repo.Create(job.Request); err != nil {
		err = fmt.Errorf("%w: failed to create request: %v", domain.ErrDownloadFailed, err)
		qm.processor.Reject(job, err)
		qm.logEvent("request_rejected",
			zap.String("id", job.Request.ID),
			zap.String("reason", "persist_failed"))
		return err
	}

	// Hold the read lock so Stop cannot drain between the check and the send
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	if !qm.running {
		qm.processor.Reject(job, fmt.Errorf("%w: queue not running", domain.ErrDownloadFailed))
		return fmt.Errorf("queue manager not running")
	}

	select {
	case qm.jobs <- job:
	default:
		qm.processor.Reject(job, domain.ErrQueueFull)
		qm.logEvent("request_rejected",
			zap.String("id", job.Request.ID),
			zap.String("reason", "queue_full"))
		return domain.ErrQueueFull
	}

	qm.logEvent("request_queued",
		zap.String("id", job.Request.ID),
		zap.Int64("user_id", job.Request.UserID),
		zap.String("url", job.Request.URL),
		zap.String("resolution", job.Request.Resolution),
		zap.Int("estimated_mb", job.Request.EstimatedMB))

	return nil
}

// Cancel aborts a queued or running request
func (qm *QueueManager) Cancel(requestID string) error {
	if err := qm.processor.Cancel(requestID); err != nil {
		return err
	}
	qm.logEvent("request_cancel_requested", zap.String("id", requestID))
	return nil
}

// GetRequest retrieves a request by ID
func (qm *QueueManager) GetRequest(id string) (*domain.Request, error) {
	return qm.repo.FindByID(id)
}

// ListRequests lists all requests with optional filters
func (qm *QueueManager) ListRequests(filters map[string]interface{}) ([]*domain.Request, error) {
	return qm.repo.FindAll(filters)
}

// GetStats returns request statistics
func (qm *QueueManager) GetStats() (*domain.RequestStats, error) {
	return qm.repo.GetStats()
}

// worker processes jobs until stopped
func (qm *QueueManager) worker(ctx context.Context, id int) {
	defer qm.workerWg.Done()

	for {
		// Stop wins over queued jobs; leftovers are rejected by Stop
		select {
		case <-qm.stopChan:
			qm.logEvent("worker_stopped", zap.Int("worker", id), zap.String("reason", "stop_signal"))
			return
		default:
		}

		select {
		case <-ctx.Done():
			qm.logEvent("worker_stopped", zap.Int("worker", id), zap.String("reason", "context_cancelled"))
			return
		case <-qm.stopChan:
			qm.logEvent("worker_stopped", zap.Int("worker", id), zap.String("reason", "stop_signal"))
			return
		case job := <-qm.jobs:
			qm.run(ctx, id, job)
		}
	}
}

// run processes one job, logging its lifecycle
func (qm *QueueManager) run(ctx context.Context, worker int, job Job) {
	qm.logEvent("request_started",
		zap.String("id", job.Request.ID),
		zap.Int("worker", worker))

	defer func() {
		if r := recover(); r != nil {
			if qm.multiLogger != nil {
				qm.multiLogger.LogAppError("Panic while processing request",
					zap.String("id", job.Request.ID),
					zap.Any("panic", r))
			}
		}
	}()

	if err := qm.processor.Process(ctx, job); err != nil {
		qm.logEvent("request_failed",
			zap.String("id", job.Request.ID),
			zap.Error(err))
		if qm.multiLogger != nil {
			qm.multiLogger.LogAppError("Failed to process request",
				zap.String("id", job.Request.ID),
				zap.Error(err))
		}
		return
	}

	qm.logEvent("request_completed",
		zap.String("id", job.Request.ID),
		zap.String("status", string(job.Request.Status)),
		zap.Int64("size_bytes", job.Request.FileSizeBytes))
}

func (qm *QueueManager) logEvent(event string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogQueueEvent(event, fields...)
	}
}
