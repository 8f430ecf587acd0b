package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/api"
	"github.com/ndeks/nextlevel-backend/internal/config"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	repoPostgres "github.com/ndeks/nextlevel-backend/internal/repository/postgres"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with foreign keys
// enabled and the schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), repoPostgres.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps the in-memory database alive and serializes
	// writers.
	sqlDB.SetMaxOpenConns(1)

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// NewPostgresDB starts a PostgreSQL testcontainer and returns a migrated
// connection. The test is skipped when no container runtime is available.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_nextlevel"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), repoPostgres.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Environment:         "test",
		LogLevel:            "error",
		DatabaseURL:         "sqlite://memory",
		JWTSecret:           "test-access-secret-for-testing-only",
		JWTRefreshSecret:    "test-refresh-secret-for-testing-only",
		BcryptCost:          4,
		AuthRateLimitPerMin: 1000,
		CORSAllowedOrigins:  []string{"*"},
		AuditRetentionDays:  90,
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewCodec builds a token codec from the test configuration.
func NewCodec(t *testing.T, cfg *config.Config, opts ...token.Option) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTRefreshSecret, opts...)
	if err != nil {
		t.Fatalf("failed to build token codec: %v", err)
	}
	return codec
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *gorm.DB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *notify.Hub
	Metrics  *metrics.Metrics
	Codec    *token.Codec
	Config   *config.Config
}

// ServerOption adjusts the configuration before the server is built.
type ServerOption func(*config.Config)

// NewTestServer creates a complete test server on SQLite with a live
// notification hub.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	db := NewTestDB(t)
	log := DiscardLogger()
	m := metrics.New(prometheus.NewRegistry())

	repos := repoPostgres.NewRepositories(db)
	hub := notify.NewHub(log, m)
	go hub.Run()

	codec := NewCodec(t, cfg)
	services := service.NewServices(repos, codec, hub, cfg, log, m)
	router := api.NewRouter(api.Deps{
		Services: services,
		Hub:      hub,
		Metrics:  m,
		Config:   cfg,
		Logger:   log,
	})

	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Metrics:  m,
		Codec:    codec,
		Config:   cfg,
	}
}

// URL returns the full URL for a path on the test server
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the notification socket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/notifications/ws?token=%s", wsURL, token)
}
