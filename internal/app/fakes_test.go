package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// memoryRepo implements domain.RequestRepository for testing
type memoryRepo struct {
	mu        sync.Mutex
	requests  map[string]domain.Request
	createErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{requests: make(map[string]domain.Request)}
}

func (m *memoryRepo) Create(request *domain.Request) error {
	if m.createErr != nil {
		return m.createErr
	}
	return m.Update(request)
}

func (m *memoryRepo) Update(request *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = *request
	return nil
}

func (m *memoryRepo) FindByID(id string) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	return &r, nil
}

func (m *memoryRepo) FindByUser(userID int64, limit int) ([]*domain.Request, error) {
	return nil, nil
}

func (m *memoryRepo) FindAll(filters map[string]interface{}) ([]*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Request
	for _, r := range m.requests {
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (m *memoryRepo) CountByStatus(status domain.RequestStatus) (int64, error) {
	return 0, nil
}

func (m *memoryRepo) ResetOrphaned() (int64, error) {
	return 0, nil
}

func (m *memoryRepo) GetStats() (*domain.RequestStats, error) {
	return &domain.RequestStats{Total: int64(len(m.requests))}, nil
}

func (m *memoryRepo) status(id string) domain.RequestStatus {
	r, err := m.FindByID(id)
	if err != nil {
		return ""
	}
	return r.Status
}

// fakeFetcher writes a file of the configured size into the request directory
type fakeFetcher struct {
	size  int64
	err   error
	block bool // wait for cancellation
	dirs  chan string
}

func (f *fakeFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error) {
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, err
	}
	if f.dirs != nil {
		f.dirs <- req.OutputDir
	}
	if f.block {
		<-ctx.Done()
		return &domain.FetchResult{Output: "killed"}, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	}
	if f.err != nil {
		return &domain.FetchResult{Output: "ERROR: boom"}, f.err
	}

	path := filepath.Join(req.OutputDir, "Clip.mp4")
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := file.Truncate(f.size); err != nil {
		return nil, err
	}
	return &domain.FetchResult{FilePath: path, SizeBytes: f.size, Output: "[download] 100%"}, nil
}

type sentVideo struct {
	chatID  int64
	path    string
	caption string
	existed bool
}

type editedText struct {
	chatID    int64
	messageID int
	text      string
	keyboard  *domain.Keyboard
}

// recordingMessenger implements domain.Messenger for testing
type recordingMessenger struct {
	mu       sync.Mutex
	videos   []sentVideo
	edits    []editedText
	texts    []editedText
	videoErr error
	nextID   int
}

func (m *recordingMessenger) SendText(chatID int64, text string, keyboard *domain.Keyboard) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.texts = append(m.texts, editedText{chatID: chatID, messageID: m.nextID, text: text, keyboard: keyboard})
	return m.nextID, nil
}

func (m *recordingMessenger) EditText(chatID int64, messageID int, text string, keyboard *domain.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editedText{chatID: chatID, messageID: messageID, text: text, keyboard: keyboard})
	return nil
}

func (m *recordingMessenger) SendVideo(chatID int64, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, statErr := os.Stat(path)
	m.videos = append(m.videos, sentVideo{chatID: chatID, path: path, caption: caption, existed: statErr == nil})
	return m.videoErr
}

func (m *recordingMessenger) AnswerCallback(callbackID, text string) error {
	return nil
}

func (m *recordingMessenger) lastEdit() editedText {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edits) == 0 {
		return editedText{}
	}
	return m.edits[len(m.edits)-1]
}
