package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ndeks/nextlevel-backend/internal/api/handlers"
	"github.com/ndeks/nextlevel-backend/internal/api/middleware"
	"github.com/ndeks/nextlevel-backend/internal/config"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/oauth"
	"github.com/ndeks/nextlevel-backend/internal/service"
)

// Deps holds everything the router wires into handlers. Google is nil when
// Google login is not configured.
type Deps struct {
	Services *service.Services
	Hub      *notify.Hub
	Metrics  *metrics.Metrics
	Google   handlers.ExternalProvider
	Config   *config.Config
	Logger   *slog.Logger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	services := deps.Services

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(deps.Metrics.Instrument)
	r.Use(middleware.CORS(deps.Config.CORSAllowedOrigins))
	r.Use(middleware.RequestInfo)

	gate := middleware.NewGate(services.Auth, handlers.WriteError)
	limiter := middleware.NewRateLimiter(deps.Config.AuthRateLimitPerMin, handlers.TooManyRequests)
	adminOnly := gate.RequireRole(domain.RoleAdmin)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, deps.Google, oauth.NewState)
	userHandler := handlers.NewUserHandler(services.User)
	profileHandler := handlers.NewProfileHandler(services.Profile)
	activityLogHandler := handlers.NewActivityLogHandler(services.Audit)
	videoHandler := handlers.NewVideoHandler(services.Video)
	notificationHandler := handlers.NewNotificationHandler(services.Notification)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, gate, deps.Logger)

	// Health check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/users", func(r chi.Router) {
		// Public auth routes
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)
		})
		r.Get("/auth/google", authHandler.GoogleLogin)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(gate.Middleware)

			r.Get("/verify", authHandler.Verify)
			r.Post("/logout", authHandler.Logout)
			r.Post("/device-token", userHandler.UpdateDeviceToken)

			r.Route("/profile", func(r chi.Router) {
				r.Post("/", profileHandler.Upsert)
				r.Get("/", profileHandler.Get)
				r.Get("/{id}", profileHandler.Get)
				r.Put("/{id}", profileHandler.UpdateByID)
			})

			r.Route("/activity-logs", func(r chi.Router) {
				r.Get("/", activityLogHandler.Mine)
				r.With(adminOnly).Get("/all", activityLogHandler.All)
				r.With(adminOnly).Delete("/cleanup", activityLogHandler.Cleanup)
				r.Get("/{id}", activityLogHandler.ForUser)
			})

			r.With(adminOnly).Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.With(adminOnly).Delete("/{id}", userHandler.Delete)
		})
	})

	r.Route("/videos", func(r chi.Router) {
		r.Use(gate.Middleware)

		r.Get("/", videoHandler.List)
		r.Get("/{id}", videoHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", videoHandler.Create)
			r.Put("/{id}", videoHandler.Update)
			r.Delete("/{id}", videoHandler.Delete)
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		// The websocket upgrade authenticates its own token.
		r.Get("/ws", wsHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(gate.Middleware)
			r.Post("/simulate", notificationHandler.Simulate)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/send", notificationHandler.Send)
				r.Post("/send-multicast", notificationHandler.SendMulticast)
				r.Post("/send-topic", notificationHandler.SendTopic)
			})
		})
	})

	return r
}
