package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/pkg/logger"
)

const (
	streamBacklog  = 50
	streamPingTick = 30 * time.Second
	streamWriteTTL = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// The admin API binds to localhost by default
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LogStreamHandler streams category log entries over a WebSocket
type LogStreamHandler struct {
	logReader *logger.LogReader
	logger    *zap.Logger
}

// NewLogStreamHandler creates a new log stream handler
func NewLogStreamHandler(logsDir string, log *zap.Logger) *LogStreamHandler {
	return &LogStreamHandler{
		logReader: logger.NewLogReader(logsDir),
		logger:    log,
	}
}

// Stream handles GET /api/v1/logs/:category/stream.
// It sends today's last entries, then every new entry until the client leaves.
func (h *LogStreamHandler) Stream(c *gin.Context) {
	category, err := logger.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("Log stream client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	if entries, err := h.logReader.ReadTodayLogs(category, streamBacklog); err == nil {
		for _, entry := range entries {
			if err := h.write(conn, entry); err != nil {
				return
			}
		}
	}

	ctx := c.Request.Context()
	done := make(chan struct{})

	// Reads only detect the client going away
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tailCtx, cancel := contextUntil(ctx, done)
	defer cancel()

	entries := make(chan logger.LogEntry, 100)
	go func() {
		if err := h.logReader.TailLogs(tailCtx, category, entries); err != nil {
			h.logger.Warn("Log tailing error", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(streamPingTick)
	defer ticker.Stop()

	for {
		select {
		case entry := <-entries:
			if err := h.write(conn, entry); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTTL)); err != nil {
				return
			}
		case <-tailCtx.Done():
			return
		}
	}
}

func (h *LogStreamHandler) write(conn *websocket.Conn, entry logger.LogEntry) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTTL))
	return conn.WriteJSON(entry)
}

// contextUntil returns a context that is also cancelled when done is closed
func contextUntil(parent context.Context, done <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
