package infrastructure

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// telegramAPI is the subset of *tgbotapi.BotAPI the messenger needs
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramMessenger implements domain.Messenger on the Telegram Bot API
type TelegramMessenger struct {
	api    telegramAPI
	logger *zap.Logger
}

// NewTelegramMessenger creates a messenger around a bot API client
func NewTelegramMessenger(api telegramAPI, logger *zap.Logger) *TelegramMessenger {
	return &TelegramMessenger{
		api:    api,
		logger: logger,
	}
}

// SendText sends a Markdown message and returns its message ID
func (m *TelegramMessenger) SendText(chatID int64, text string, keyboard *domain.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup := inlineMarkup(keyboard); markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := m.api.Send(msg)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// EditText replaces the text and keyboard of an existing message.
// A nil keyboard removes the buttons.
func (m *TelegramMessenger) EditText(chatID int64, messageID int, text string, keyboard *domain.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = inlineMarkup(keyboard)

	if _, err := m.api.Send(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		m.logger.Error("Failed to edit message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// SendVideo uploads a local file as a streamable video
func (m *TelegramMessenger) SendVideo(chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true

	if _, err := m.api.Send(video); err != nil {
		m.logger.Error("Failed to send video",
			zap.Int64("chat_id", chatID),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("send video: %w", err)
	}

	m.logger.Debug("Video sent",
		zap.Int64("chat_id", chatID),
		zap.String("path", path))
	return nil
}

// AnswerCallback acknowledges a button press
func (m *TelegramMessenger) AnswerCallback(callbackID, text string) error {
	if _, err := m.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SetCommands registers the command menu shown by Telegram clients
func (m *TelegramMessenger) SetCommands(commands ...tgbotapi.BotCommand) error {
	if _, err := m.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// inlineMarkup converts a domain keyboard into Telegram inline markup
func inlineMarkup(keyboard *domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if keyboard == nil || len(keyboard.Rows) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard.Rows))
	for _, row := range keyboard.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// isNotModified reports Telegram's rejection of an edit that changes nothing
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
