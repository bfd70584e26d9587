package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/api/handlers"
	"github.com/yourusername/ytmm-go/api/middleware"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// Requests is everything the admin API needs from the download queue
type Requests interface {
	handlers.RequestService
	handlers.QueueStatus
}

// RouterConfig holds the router dependencies
type RouterConfig struct {
	Requests    Requests
	Sessions    domain.SessionStore
	DB          handlers.Pinger
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
	LogsDir     string
	Version     string
}

// SetupRouter sets up the admin HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Recovery(cfg.Logger, cfg.MultiLogger))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Requests, cfg.DB, cfg.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		requestHandler := handlers.NewRequestHandler(cfg.Requests, cfg.Logger)
		requests := v1.Group("/requests")
		{
			requests.GET("", requestHandler.ListRequests)
			requests.GET("/stats", requestHandler.GetStats)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("/:id/cancel", requestHandler.CancelRequest)
		}

		sessionHandler := handlers.NewSessionHandler(cfg.Sessions)
		v1.GET("/sessions", sessionHandler.ListSessions)

		// Log endpoints
		logHandler := handlers.NewLogHandler(cfg.LogsDir)
		streamHandler := handlers.NewLogStreamHandler(cfg.LogsDir, cfg.Logger)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/stream", streamHandler.Stream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
