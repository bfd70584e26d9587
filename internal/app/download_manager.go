package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/internal/infrastructure"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// Job is a queued fetch together with the chat message that tracks it
type Job struct {
	Request   *domain.Request
	MessageID int // progress message edited with the outcome
}

// activeJob is a cancel registry entry
type activeJob struct {
	cancel    context.CancelFunc
	cancelled bool
}

// DownloadManager runs fetches and reports their outcome to the chat
type DownloadManager struct {
	repo        domain.RequestRepository
	fetcher     domain.MediaFetcher
	messenger   domain.Messenger
	sessions    domain.SessionStore
	config      *domain.DownloadConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
	active      map[string]*activeJob
	mu          sync.Mutex
	now         func() time.Time
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	repo domain.RequestRepository,
	fetcher domain.MediaFetcher,
	messenger domain.Messenger,
	sessions domain.SessionStore,
	config *domain.DownloadConfig,
	logger *zap.Logger,
	multiLogger *logger.MultiLogger,
) *DownloadManager {
	return &DownloadManager{
		repo:        repo,
		fetcher:     fetcher,
		messenger:   messenger,
		sessions:    sessions,
		config:      config,
		logger:      logger,
		multiLogger: multiLogger,
		active:      make(map[string]*activeJob),
		now:         time.Now,
	}
}

// Process runs a single job to completion. The request directory is removed
// and the user's session released on every path.
func (dm *DownloadManager) Process(ctx context.Context, job Job) error {
	request := job.Request

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cancelledEarly := dm.register(request.ID, cancel)
	defer dm.unregister(request.ID)

	defer dm.sessions.Release(request.UserID, request.ID)

	if cancelledEarly {
		return dm.finish(job, nil, domain.ErrCancelled)
	}

	dm.purge()

	request.MarkProcessing()
	if err := dm.repo.Update(request); err != nil {
		dm.logger.Error("Failed to update request status", zap.String("id", request.ID), zap.Error(err))
	}

	dm.logger.Info("Processing request",
		zap.String("id", request.ID),
		zap.String("url", request.URL),
		zap.String("resolution", request.Resolution))

	reqDir := dm.config.RequestDir(request.ID)
	defer func() {
		if err := os.RemoveAll(reqDir); err != nil {
			dm.logger.Warn("Failed to remove request directory", zap.String("dir", reqDir), zap.Error(err))
		}
	}()

	result, err := dm.fetcher.Fetch(runCtx, domain.FetchRequest{
		ID:        request.ID,
		URL:       request.URL,
		Height:    request.Height,
		OutputDir: reqDir,
	})
	if result != nil {
		request.ProcessLog = result.Output
	}

	// A user cancel wins even after the subprocess exited. Any other
	// cancellation means the worker context ended at shutdown.
	switch {
	case dm.wasCancelled(request.ID):
		err = domain.ErrCancelled
	case errors.Is(err, domain.ErrCancelled) || (err != nil && ctx.Err() != nil):
		err = fmt.Errorf("%w: shutting down", domain.ErrDownloadFailed)
	}

	return dm.finish(job, result, err)
}

// finish delivers the outcome, records the terminal status and reports it
func (dm *DownloadManager) finish(job Job, result *domain.FetchResult, fetchErr error) error {
	request := job.Request
	var text string
	var outcome error

	switch {
	case errors.Is(fetchErr, domain.ErrCancelled):
		request.MarkCancelled()
		text = TextCancelled
	case fetchErr != nil:
		request.MarkFailed(fetchErr)
		text = TextDownloadError
		outcome = fetchErr
	case SizeMB(result.SizeBytes) <= dm.config.MaxUploadMB:
		if err := dm.messenger.SendVideo(request.ChatID, result.FilePath, VideoCaption(result.FilePath, result.SizeBytes)); err != nil {
			request.MarkFailed(err)
			text = TextDownloadError
			outcome = err
			break
		}
		request.MarkSent(result.SizeBytes)
		text = TextSent
	default:
		request.MarkOversize(result.SizeBytes)
		text = OversizeText(result.SizeBytes, dm.config.LargeFileHint)
	}

	if err := dm.repo.Update(request); err != nil {
		dm.logger.Error("Failed to update request status", zap.String("id", request.ID), zap.Error(err))
	}

	dm.report(request.ChatID, job.MessageID, text)

	dm.logger.Info("Request finished",
		zap.String("id", request.ID),
		zap.String("status", string(request.Status)),
		zap.Int64("size_bytes", request.FileSizeBytes))

	return outcome
}

// Reject terminates a job that will never run
func (dm *DownloadManager) Reject(job Job, reason error) {
	dm.unregister(job.Request.ID)
	job.Request.MarkFailed(reason)
	if err := dm.repo.Update(job.Request); err != nil {
		dm.logger.Error("Failed to update request status", zap.String("id", job.Request.ID), zap.Error(err))
	}
	dm.sessions.Release(job.Request.UserID, job.Request.ID)

	text := TextDownloadError
	if errors.Is(reason, domain.ErrQueueFull) {
		text = TextQueueFull
	}
	dm.report(job.Request.ChatID, job.MessageID, text)
}

// Cancel aborts a queued or running request. Returns ErrNotCancellable when
// the request is unknown or already finished.
func (dm *DownloadManager) Cancel(requestID string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if entry, ok := dm.active[requestID]; ok {
		entry.cancelled = true
		if entry.cancel != nil {
			entry.cancel()
		}
		dm.logger.Info("Request cancelled", zap.String("id", requestID))
		return nil
	}

	request, err := dm.repo.FindByID(requestID)
	if err != nil || request == nil {
		return fmt.Errorf("%w: request %s not found", domain.ErrNotCancellable, requestID)
	}
	if request.Status != domain.StatusQueued {
		return fmt.Errorf("%w: request %s is %s", domain.ErrNotCancellable, requestID, request.Status)
	}

	// Picked up by Process before the fetch starts
	dm.active[requestID] = &activeJob{cancelled: true}
	dm.logger.Info("Queued request cancelled", zap.String("id", requestID))
	return nil
}

// ActiveCount returns the number of requests currently tracked
func (dm *DownloadManager) ActiveCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	n := 0
	for _, entry := range dm.active {
		if entry.cancel != nil {
			n++
		}
	}
	return n
}

// register records the cancel function and reports a cancel that came first
func (dm *DownloadManager) register(requestID string, cancel context.CancelFunc) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if entry, ok := dm.active[requestID]; ok && entry.cancelled {
		return true
	}
	dm.active[requestID] = &activeJob{cancel: cancel}
	return false
}

func (dm *DownloadManager) unregister(requestID string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.active, requestID)
}

func (dm *DownloadManager) wasCancelled(requestID string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	entry, ok := dm.active[requestID]
	return ok && entry.cancelled
}

// activeIDs lists request directories that must survive a purge
func (dm *DownloadManager) activeIDs() []string {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	ids := make([]string, 0, len(dm.active))
	for id := range dm.active {
		ids = append(ids, id)
	}
	return ids
}

// purge removes stale entries from the shared output directory
func (dm *DownloadManager) purge() {
	removed, err := infrastructure.PurgeStale(dm.config.OutputDir, dm.config.RetentionWindow, dm.now(), dm.activeIDs()...)
	if err != nil {
		dm.logger.Warn("Failed to purge output directory", zap.Error(err))
	}
	if len(removed) > 0 {
		dm.logger.Info("Purged stale downloads", zap.Strings("paths", removed))
	}
}

// report edits the progress message, falling back to a new message
func (dm *DownloadManager) report(chatID int64, messageID int, text string) {
	var err error
	if messageID != 0 {
		err = dm.messenger.EditText(chatID, messageID, text, nil)
	}
	if messageID == 0 || err != nil {
		_, err = dm.messenger.SendText(chatID, text, nil)
	}
	if err != nil && dm.multiLogger != nil {
		dm.multiLogger.LogAppError("Failed to report request outcome",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
