package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/tubearchive/internal/app"
	"github.com/cesargomez89/tubearchive/internal/cache"
	"github.com/cesargomez89/tubearchive/internal/catalog"
	"github.com/cesargomez89/tubearchive/internal/config"
	"github.com/cesargomez89/tubearchive/internal/constants"
	httpapp "github.com/cesargomez89/tubearchive/internal/http"
	"github.com/cesargomez89/tubearchive/internal/httpclient"
	"github.com/cesargomez89/tubearchive/internal/logger"
	"github.com/cesargomez89/tubearchive/internal/store"
	"github.com/cesargomez89/tubearchive/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := config.Load()
	if *configPath != "" {
		fileCfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
		cfg = fileCfg
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize DB
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		appLogger.Error("Failed to init DB", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Remote catalog
	apiClient := httpclient.NewClient(cfg.YouTubeAPIKey, cfg.APIRequestInterval, constants.DefaultHTTPTimeout)
	provider, err := catalog.NewYouTubeProvider(ctx, catalog.YouTubeConfig{
		HTTPClient: apiClient,
		BatchDelay: cfg.BatchDelay,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error("Failed to init YouTube client", "error", err)
		os.Exit(1)
	}

	// Sync engine
	downloader := app.NewDownloader(app.MediaConfig{
		Dir:       cfg.VideoStoragePath,
		YtDlpPath: cfg.YtDlpPath,
		Timeout:   cfg.DownloadTimeout,
	}, appLogger)
	processor := app.NewProcessor(db, provider, downloader, cfg.DownloadDelay, appLogger)
	ledger := app.NewLedger(db, appLogger)

	var lease worker.Lease = worker.NewLocalLease()
	if cfg.RedisURL != "" {
		redisClient, err := cache.New(cfg.RedisURL)
		if err != nil {
			appLogger.Error("Failed to init Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			appLogger.Error("Failed to reach Redis", "error", err)
			os.Exit(1)
		}
		lease = worker.NewRedisLease(redisClient, constants.SyncLeaseKey, constants.DefaultLeaseTTL)
		appLogger.Info("Using Redis sync lease")
	}

	coordinator := worker.NewCoordinator(worker.CoordinatorConfig{
		ChannelID:            cfg.YouTubeChannelID,
		CommentRefreshMonths: cfg.CommentRefreshMonths,
	}, provider, db, processor, ledger, lease, appLogger)

	if stats, err := downloader.Stats(); err == nil {
		appLogger.Info("Media directory", "path", cfg.VideoStoragePath, "videos", stats.VideoCount, "bytes", stats.TotalBytes)
	}

	// Initialize Worker
	w := worker.NewWorker(coordinator, ledger, cfg.SyncCron, appLogger)
	if err := w.Start(); err != nil {
		appLogger.Error("Failed to start worker", "error", err)
		os.Exit(1)
	}
	defer w.Stop()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(w, ledger, db, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server error", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exiting")
}
