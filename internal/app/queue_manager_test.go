package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/internal/infrastructure"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// fakeProcessor records jobs and can hold them until released
type fakeProcessor struct {
	mu        sync.Mutex
	processed []string
	rejected  map[string]error
	cancelled []string
	release   chan struct{}
	started   chan string
	err       error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		rejected: make(map[string]error),
		started:  make(chan string, 16),
	}
}

func (p *fakeProcessor) Process(ctx context.Context, job Job) error {
	p.started <- job.Request.ID
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	p.processed = append(p.processed, job.Request.ID)
	p.mu.Unlock()
	return p.err
}

func (p *fakeProcessor) Reject(job Job, reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected[job.Request.ID] = reason
}

func (p *fakeProcessor) Cancel(requestID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, requestID)
	return nil
}

func (p *fakeProcessor) processedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

func newTestJob(userID int64) Job {
	session := domain.NewSession(userID, userID, "https://youtu.be/abc", &domain.MediaInfo{Title: "Clip", Duration: 10})
	res, _ := domain.LookupResolution("360p")
	session.ChooseResolution(res)
	return Job{Request: domain.NewRequest(session), MessageID: 1}
}

func newTestQueue(t *testing.T, processor JobProcessor, workers, capacity int) (*QueueManager, *memoryRepo) {
	t.Helper()
	ml, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { ml.Close() })

	repo := newMemoryRepo()
	qm := NewQueueManager(repo, processor, &domain.QueueConfig{Workers: workers, Capacity: capacity}, ml)
	return qm, repo
}

func TestQueueManager_StartStop(t *testing.T) {
	qm, _ := newTestQueue(t, newFakeProcessor(), 2, 4)

	assert.False(t, qm.IsRunning())
	require.NoError(t, qm.Start(context.Background()))
	assert.True(t, qm.IsRunning())
	assert.Error(t, qm.Start(context.Background()))

	require.NoError(t, qm.Stop())
	assert.False(t, qm.IsRunning())
	assert.Error(t, qm.Stop())
}

func TestQueueManager_ProcessesSubmittedJobs(t *testing.T) {
	processor := newFakeProcessor()
	qm, repo := newTestQueue(t, processor, 2, 8)
	require.NoError(t, qm.Start(context.Background()))

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, qm.Submit(newTestJob(i)))
	}

	assert.Eventually(t, func() bool { return processor.processedCount() == 5 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, qm.Stop())

	all, err := qm.ListRequests(nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Len(t, repo.requests, 5)
}

func TestQueueManager_SlowJobDoesNotBlockOthers(t *testing.T) {
	processor := newFakeProcessor()
	processor.release = make(chan struct{})
	qm, _ := newTestQueue(t, processor, 2, 8)
	require.NoError(t, qm.Start(context.Background()))

	require.NoError(t, qm.Submit(newTestJob(1)))
	require.NoError(t, qm.Submit(newTestJob(2)))

	// Both workers pick up a job while neither has finished
	<-processor.started
	<-processor.started

	close(processor.release)
	assert.Eventually(t, func() bool { return processor.processedCount() == 2 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, qm.Stop())
}

func TestQueueManager_RejectsWhenFull(t *testing.T) {
	processor := newFakeProcessor()
	processor.release = make(chan struct{})
	qm, _ := newTestQueue(t, processor, 1, 1)
	require.NoError(t, qm.Start(context.Background()))

	first := newTestJob(1)
	require.NoError(t, qm.Submit(first))
	<-processor.started // worker busy

	require.NoError(t, qm.Submit(newTestJob(2))) // fills the buffer

	overflow := newTestJob(3)
	err := qm.Submit(overflow)
	assert.ErrorIs(t, err, domain.ErrQueueFull)
	assert.ErrorIs(t, processor.rejected[overflow.Request.ID], domain.ErrQueueFull)

	close(processor.release)
	require.NoError(t, qm.Stop())
}

func TestQueueManager_StopRejectsPendingJobs(t *testing.T) {
	processor := newFakeProcessor()
	processor.release = make(chan struct{})
	qm, _ := newTestQueue(t, processor, 1, 4)
	require.NoError(t, qm.Start(context.Background()))

	require.NoError(t, qm.Submit(newTestJob(1)))
	<-processor.started

	pending := newTestJob(2)
	require.NoError(t, qm.Submit(pending))
	assert.Equal(t, 1, qm.Pending())

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(processor.release)
	}()
	require.NoError(t, qm.Stop())

	assert.Equal(t, 1, processor.processedCount())
	assert.ErrorIs(t, processor.rejected[pending.Request.ID], domain.ErrDownloadFailed)
}

func TestQueueManager_SubmitWhenStopped(t *testing.T) {
	processor := newFakeProcessor()
	qm, _ := newTestQueue(t, processor, 1, 1)

	job := newTestJob(1)
	assert.Error(t, qm.Submit(job))
	assert.Contains(t, processor.rejected, job.Request.ID)
}

func TestQueueManager_CancelDelegates(t *testing.T) {
	processor := newFakeProcessor()
	qm, _ := newTestQueue(t, processor, 1, 1)

	require.NoError(t, qm.Cancel("req-1"))
	assert.Equal(t, []string{"req-1"}, processor.cancelled)
}

func TestQueueManager_ProcessErrorKeepsWorkerAlive(t *testing.T) {
	processor := newFakeProcessor()
	processor.err = errors.New("boom")
	qm, _ := newTestQueue(t, processor, 1, 4)
	require.NoError(t, qm.Start(context.Background()))

	require.NoError(t, qm.Submit(newTestJob(1)))
	require.NoError(t, qm.Submit(newTestJob(2)))

	assert.Eventually(t, func() bool { return processor.processedCount() == 2 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, qm.Stop())
}

func TestQueueManager_SubmitReportsPersistFailure(t *testing.T) {
	config := domain.DefaultConfig().Download
	config.OutputDir = t.TempDir()
	repo := newMemoryRepo()
	repo.createErr = errors.New("database is locked")
	messenger := &recordingMessenger{}
	sessions := infrastructure.NewMemorySessionStore()
	dm := NewDownloadManager(repo, &fakeFetcher{}, messenger, sessions, &config, zap.NewNop(), nil)

	qm := NewQueueManager(repo, dm, &domain.QueueConfig{Workers: 1, Capacity: 4}, nil)
	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	job := newTestJob(7)
	session := domain.NewSession(7, 7, job.Request.URL, &domain.MediaInfo{Title: "Clip"})
	session.MarkDownloading(job.Request.ID)
	sessions.Set(session)

	err := qm.Submit(job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "database is locked")

	messenger.mu.Lock()
	edits := append([]editedText(nil), messenger.edits...)
	messenger.mu.Unlock()
	require.Len(t, edits, 1)
	assert.Equal(t, job.MessageID, edits[0].messageID)
	assert.Equal(t, TextDownloadError, edits[0].text)

	_, ok := sessions.Get(7)
	assert.False(t, ok)
	assert.Equal(t, 0, qm.Pending())
}
