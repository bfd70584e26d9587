package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSource struct {
	updates chan tgbotapi.Update
	config  tgbotapi.UpdateConfig
	stopped bool
}

func (s *fakeSource) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	s.config = config
	return s.updates
}

func (s *fakeSource) StopReceivingUpdates() {
	s.stopped = true
}

type countingHandler struct {
	mu  sync.Mutex
	ids []int
}

func (h *countingHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.UpdateID == 13 {
		panic("bad update")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, update.UpdateID)
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ids)
}

func TestDispatcher_HandlesUpdatesAndSurvivesPanics(t *testing.T) {
	source := &fakeSource{updates: make(chan tgbotapi.Update, 4)}
	handler := &countingHandler{}
	d := NewDispatcher(source, handler, 30, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	source.updates <- tgbotapi.Update{UpdateID: 1}
	source.updates <- tgbotapi.Update{UpdateID: 13}
	source.updates <- tgbotapi.Update{UpdateID: 2}

	assert.Eventually(t, func() bool { return handler.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	assert.True(t, source.stopped)
	assert.Equal(t, 30, source.config.Timeout)
}

func TestDispatcher_StopsWhenChannelCloses(t *testing.T) {
	source := &fakeSource{updates: make(chan tgbotapi.Update)}
	d := NewDispatcher(source, &countingHandler{}, 60, zap.NewNop(), nil)

	close(source.updates)
	d.Run(context.Background())
}
