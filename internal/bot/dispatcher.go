package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/pkg/logger"
)

// UpdateSource is the long-polling side of *tgbotapi.BotAPI
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler handles a single update
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Dispatcher fans updates out to one goroutine each
type Dispatcher struct {
	source      UpdateSource
	handler     UpdateHandler
	pollTimeout int
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
	wg          sync.WaitGroup
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(source UpdateSource, handler UpdateHandler, pollTimeout int, logger *zap.Logger, multiLogger *logger.MultiLogger) *Dispatcher {
	return &Dispatcher{
		source:      source,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      logger,
		multiLogger: multiLogger,
	}
}

// Run polls for updates until ctx is done, then waits for in-flight handlers
func (d *Dispatcher) Run(ctx context.Context) {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = d.pollTimeout
	updates := d.source.GetUpdatesChan(config)

	d.logger.Info("Polling for updates", zap.Int("timeout", d.pollTimeout))

	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			d.source.StopReceivingUpdates()
			d.logger.Info("Stopped polling for updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.wg.Add(1)
			go d.dispatch(ctx, update)
		}
	}
}

// dispatch handles one update, recovering from panics
func (d *Dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic while handling update",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r))
			if d.multiLogger != nil {
				d.multiLogger.LogAppError("Panic while handling update",
					zap.Int("update_id", update.UpdateID),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}
	}()

	d.handler.HandleUpdate(ctx, update)
}
