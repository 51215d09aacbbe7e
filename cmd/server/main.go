package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/api"
	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
	"github.com/yourusername/audio-extract-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting audio extraction server",
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("temp_dir", config.Download.TempDir))

	if err := os.MkdirAll(config.Download.TempDir, 0755); err != nil {
		log.Fatal("Failed to create temp directory", zap.Error(err))
	}

	var history domain.HistoryRepository
	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			log.Warn("History disabled: failed to open database", zap.Error(err))
		} else {
			history = repo
			defer repo.Close()
		}
	}

	ytdlp := infrastructure.NewYTDLP(&config.YTDLP, log)
	if path, err := ytdlp.Resolve(); err != nil {
		log.Warn("Downloader binary not resolvable at startup", zap.Error(err))
	} else {
		log.Info("Downloader resolved", zap.String("path", path))
	}

	tasks := app.NewMemoryTaskStore(config.Download.MaxTasks)
	service := app.NewExtractService(tasks, ytdlp, history, &config.Download, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := infrastructure.NewSweeper(
		config.Download.TempDir,
		config.Download.MaxFileAge,
		config.Download.SweepInterval,
		log,
	)
	sweeper.Start(ctx)

	router := api.SetupRouter(service, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
