package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/app"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// Queue accepts download jobs and controls them afterwards
type Queue interface {
	Submit(job app.Job) error
	Cancel(requestID string) error
	GetRequest(id string) (*domain.Request, error)
}

// Handler drives the per-user conversation:
// idle -> awaiting resolution -> downloading -> idle
type Handler struct {
	prober      domain.MediaProber
	sessions    domain.SessionStore
	messenger   domain.Messenger
	queue       Queue
	config      *domain.DownloadConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// NewHandler creates a new update handler
func NewHandler(
	prober domain.MediaProber,
	sessions domain.SessionStore,
	messenger domain.Messenger,
	queue Queue,
	config *domain.DownloadConfig,
	logger *zap.Logger,
	multiLogger *logger.MultiLogger,
) *Handler {
	return &Handler{
		prober:      prober,
		sessions:    sessions,
		messenger:   messenger,
		queue:       queue,
		config:      config,
		logger:      logger,
		multiLogger: multiLogger,
	}
}

// HandleUpdate routes one Telegram update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			h.send(msg.Chat.ID, welcomeText(h.config.LargeFileHint, h.config.MaxUploadMB), nil)
		default:
			h.logger.Debug("Ignoring unknown command", zap.String("command", msg.Command()))
		}
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	h.handleLink(ctx, msg.From.ID, msg.Chat.ID, msg.Text)
}

// handleLink validates and probes a link, then shows the resolution menu
func (h *Handler) handleLink(ctx context.Context, userID, chatID int64, text string) {
	url := strings.TrimSpace(text)

	if !domain.IsValidLink(url) {
		h.logEvent("link_rejected", zap.Int64("user_id", userID))
		h.send(chatID, textInvalidLink, nil)
		return
	}

	messageID, err := h.messenger.SendText(chatID, textAnalysing, nil)
	if err != nil {
		return
	}

	info, err := h.prober.Probe(ctx, url)
	if err != nil {
		h.logger.Warn("Probe failed", zap.String("url", url), zap.Error(err))
		h.logEvent("probe_failed", zap.Int64("user_id", userID), zap.String("url", url))
		h.edit(chatID, messageID, textProbeFailed, nil)
		return
	}

	session := domain.NewSession(userID, chatID, url, info)
	session.MenuMessageID = messageID
	h.sessions.Set(session)

	h.logEvent("link_probed",
		zap.Int64("user_id", userID),
		zap.String("url", url),
		zap.String("title", info.DisplayTitle()),
		zap.Float64("duration", info.DurationSeconds()))

	h.edit(chatID, messageID, menuText(info.DisplayTitle()), ResolutionKeyboard())
}

func (h *Handler) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		h.answer(q.ID, "")
		return
	}

	userID := q.From.ID
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	kind, arg := ParseCallback(q.Data)
	switch kind {
	case CallbackResolution:
		h.chooseResolution(q.ID, userID, chatID, messageID, arg)
	case CallbackCancel:
		h.cancelMenu(q.ID, userID, chatID, messageID)
	case CallbackAbort:
		h.abortDownload(q.ID, userID, arg)
	default:
		h.answer(q.ID, textExpired)
	}
}

// chooseResolution claims the session and queues the download
func (h *Handler) chooseResolution(callbackID string, userID, chatID int64, messageID int, key string) {
	res, ok := domain.LookupResolution(key)
	if !ok {
		h.answer(callbackID, textExpired)
		return
	}

	var request *domain.Request
	err := h.sessions.Update(userID, func(s *domain.Session) {
		// Only the menu currently shown may start a download, and only once
		if s.State != domain.StateAwaitingResolution || s.MenuMessageID != messageID {
			return
		}
		s.ChooseResolution(res)
		request = domain.NewRequest(s)
		s.MarkDownloading(request.ID)
	})
	if err != nil || request == nil {
		h.answer(callbackID, textExpired)
		return
	}
	h.answer(callbackID, "")

	h.logEvent("resolution_chosen",
		zap.Int64("user_id", userID),
		zap.String("request_id", request.ID),
		zap.String("resolution", res.Key),
		zap.Int("estimated_mb", request.EstimatedMB))

	h.edit(chatID, messageID, estimateText(request.EstimatedMB, res.Key), AbortKeyboard(request.ID))

	if err := h.queue.Submit(app.Job{Request: request, MessageID: messageID}); err != nil {
		// The queue has already told the user
		h.logger.Warn("Failed to queue request", zap.String("id", request.ID), zap.Error(err))
	}
}

// cancelMenu drops the session before any download starts
func (h *Handler) cancelMenu(callbackID string, userID, chatID int64, messageID int) {
	removed := h.sessions.DeleteIf(userID, func(s *domain.Session) bool {
		return s.MenuMessageID == messageID && s.State == domain.StateAwaitingResolution
	})
	if !removed {
		// Either the download already started or the menu is stale
		session, ok := h.sessions.Get(userID)
		if ok && session.MenuMessageID == messageID && session.State == domain.StateDownloading {
			h.abortDownload(callbackID, userID, session.RequestID)
			return
		}
		h.answer(callbackID, textExpired)
		return
	}
	h.answer(callbackID, "")

	h.logEvent("menu_cancelled", zap.Int64("user_id", userID))
	h.edit(chatID, messageID, textCancelled, nil)
}

// abortDownload stops a queued or running download owned by the user
func (h *Handler) abortDownload(callbackID string, userID int64, requestID string) {
	request, err := h.queue.GetRequest(requestID)
	if err != nil || request == nil || request.UserID != userID || request.IsTerminal() {
		h.answer(callbackID, textExpired)
		return
	}

	if err := h.queue.Cancel(requestID); err != nil {
		h.answer(callbackID, textExpired)
		return
	}

	_ = h.sessions.Update(userID, func(s *domain.Session) {
		if s.RequestID == requestID {
			s.Cancelled = true
		}
	})

	h.logEvent("download_aborted", zap.Int64("user_id", userID), zap.String("request_id", requestID))
	h.answer(callbackID, textAborting)
}

func (h *Handler) send(chatID int64, text string, keyboard *domain.Keyboard) {
	if _, err := h.messenger.SendText(chatID, text, keyboard); err != nil {
		h.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) edit(chatID int64, messageID int, text string, keyboard *domain.Keyboard) {
	if err := h.messenger.EditText(chatID, messageID, text, keyboard); err != nil {
		h.logger.Warn("Failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) answer(callbackID, text string) {
	if err := h.messenger.AnswerCallback(callbackID, text); err != nil {
		h.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

func (h *Handler) logEvent(event string, fields ...zap.Field) {
	if h.multiLogger != nil {
		h.multiLogger.LogBotEvent(event, fields...)
	}
}
