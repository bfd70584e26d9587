package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/api"
	"github.com/yourusername/ytmm-go/internal/app"
	"github.com/yourusername/ytmm-go/internal/bot"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/internal/infrastructure"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

const version = "1.0.0"

var configPath = flag.String("config", "", "Path to config file (default: ./configs/config.yaml)")

func main() {
	flag.Parse()

	// A missing .env is fine; the environment may already carry BOT_TOKEN
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadBotConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(config.Logging, "bot", version)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	if err := createDirectories(config); err != nil {
		return err
	}

	// Categorized files: queue, bot, error, download
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize multi-logger: %w", err)
	}
	defer multiLog.Close()

	log.Info("Starting YTMM bot",
		zap.String("output_dir", config.Download.OutputDir),
		zap.Int("workers", config.Queue.Workers),
		zap.Float64("max_upload_mb", config.Download.MaxUploadMB))

	if _, err := exec.LookPath(config.Fetcher.Binary); err != nil {
		log.Warn("yt-dlp not found in PATH; every request will fail",
			zap.String("binary", config.Fetcher.Binary))
	}

	repo, err := infrastructure.NewSQLiteRequestRepository(config.Queue.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	if n, err := repo.ResetOrphaned(); err != nil {
		log.Warn("Failed to reset orphaned requests", zap.Error(err))
	} else if n > 0 {
		log.Info("Marked orphaned requests as failed", zap.Int64("count", n))
	}

	botAPI, err := tgbotapi.NewBotAPI(config.Bot.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	botAPI.Debug = config.Bot.Debug
	log.Info("Authorized on Telegram", zap.String("username", botAPI.Self.UserName))

	messenger := infrastructure.NewTelegramMessenger(botAPI, log)
	if err := messenger.SetCommands(tgbotapi.BotCommand{Command: "start", Description: "Démarrer le bot"}); err != nil {
		log.Warn("Failed to register bot commands", zap.Error(err))
	}

	sessions := infrastructure.NewMemorySessionStore()
	fetcher := infrastructure.NewYTDLPFetcher(&config.Fetcher, config.Download.LogsDir, multiLog)

	downloadMgr := app.NewDownloadManager(repo, fetcher, messenger, sessions, &config.Download, log, multiLog)
	queueMgr := app.NewQueueManager(repo, downloadMgr, &config.Queue, multiLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queueMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue manager: %w", err)
	}

	var server *http.Server
	if config.Server.Enabled {
		router := api.SetupRouter(api.RouterConfig{
			Requests:    queueMgr,
			Sessions:    sessions,
			DB:          repo,
			Logger:      log,
			MultiLogger: multiLog,
			LogsDir:     config.Download.LogsDir,
			Version:     version,
		})

		addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
		server = &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info("Admin HTTP server listening", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Admin HTTP server failed", zap.Error(err))
			}
		}()
	}

	handler := bot.NewHandler(fetcher, sessions, messenger, queueMgr, &config.Download, log, multiLog)
	dispatcher := bot.NewDispatcher(botAPI, handler, config.Bot.PollTimeout, log, multiLog)

	polling := make(chan struct{})
	go func() {
		defer close(polling)
		dispatcher.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-polling:
		log.Warn("Update channel closed")
	}

	log.Info("Shutting down...")

	// Cancelling ctx kills running yt-dlp processes and stops polling
	cancel()
	<-polling

	if err := queueMgr.Stop(); err != nil {
		log.Error("Error stopping queue manager", zap.Error(err))
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Admin HTTP server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("Bot exited")
	return nil
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.OutputDir,
		config.Download.LogsDir,
		filepath.Dir(config.Queue.DatabasePath),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
