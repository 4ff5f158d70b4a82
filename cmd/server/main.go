package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/config"
	"github.com/sujalbistaa/anchorword/internal/dictionary"
	"github.com/sujalbistaa/anchorword/internal/discovery"
	"github.com/sujalbistaa/anchorword/internal/game"
	routes "github.com/sujalbistaa/anchorword/internal/http"
	"github.com/sujalbistaa/anchorword/internal/kv"
	"github.com/sujalbistaa/anchorword/internal/logging"
	"github.com/sujalbistaa/anchorword/internal/metrics"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/store"
	"github.com/sujalbistaa/anchorword/internal/ws"
)

func main() {
	configDir := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// 1. Configuration
	loader, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := loader.Get()

	// 2. Logging
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	loader.Watch(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Key-value store
	kvStore, err := kv.Open(ctx, cfg.Store.URL, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer kvStore.Close()

	// 4. Dictionary
	dict, err := dictionary.Open(cfg.Dictionary.Path)
	if err != nil {
		logger.Fatal("Failed to load dictionary", zap.String("path", cfg.Dictionary.Path), zap.Error(err))
	}
	logger.Info("Dictionary loaded", zap.Int("words", dict.Len()))

	// 5. WebSocket hub and metrics
	hub := ws.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 6. Game
	challenges := store.New(kvStore)
	local := platform.NewLocal(kvStore)
	svc := game.New(game.Deps{
		Store:     challenges,
		Oracle:    dict,
		Poster:    local,
		Notifier:  hub,
		Metrics:   m,
		Log:       logger,
		Subreddit: cfg.Platform.Subreddit,
		BaseURL:   cfg.Platform.BaseURL,
	})
	finder := discovery.New(challenges, local, cfg.Platform.Subreddit, cfg.Platform.BaseURL, logger)

	// 7. Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routes.SetupRoutes(ctx, router, &routes.Env{
		Game:   svc,
		Finder: finder,
		Hub:    hub,
		Users:  platform.SessionDirectory{},
		Config: loader.Get,
		Log:    logger,
	}, m, reg)

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
