package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndeks/nextlevel-backend/internal/api"
	"github.com/ndeks/nextlevel-backend/internal/config"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/oauth"
	"github.com/ndeks/nextlevel-backend/internal/repository/postgres"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	// Initialize database
	dbLogLevel := logger.Warn
	if cfg.IsDevelopment() {
		dbLogLevel = logger.Info
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, dbLogLevel)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Initialize notification hub
	hub := notify.NewHub(log, m)
	go hub.Run()

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTRefreshSecret)
	if err != nil {
		log.Error("failed to build token codec", "error", err)
		os.Exit(1)
	}

	// Initialize services
	services := service.NewServices(repos, codec, hub, cfg, log, m)

	deps := api.Deps{
		Services: services,
		Hub:      hub,
		Metrics:  m,
		Config:   cfg,
		Logger:   log,
	}
	if cfg.GoogleEnabled() {
		deps.Google = oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})
	} else {
		log.Info("google sign-in disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retention := service.NewRetentionWorker(services.Audit, cfg.AuditCleanupInterval, log)
	go retention.Run(ctx)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}
