package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/logistyczniepl/marketplace/internal/api/handlers"
	"github.com/logistyczniepl/marketplace/internal/api/middleware"
	"github.com/logistyczniepl/marketplace/internal/auth"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/listings"
	"github.com/logistyczniepl/marketplace/internal/storage"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	ListingService *listings.Service
	Store          storage.ObjectStore
	AsynqInspector *asynq.Inspector
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow localhost in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis, cfg.AsynqInspector)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	userHandler := handlers.NewUserHandler(cfg.DB)
	warehouseHandler := handlers.NewWarehouseHandler(cfg.ListingService)
	uploadHandler := handlers.NewUploadHandler(cfg.ListingService, cfg.Store)
	coworkingHandler := handlers.NewCoworkingHandler(cfg.ListingService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		// Public browse: accepted listings and coworking offers.
		// OptionalAuth lets owners see their own pending listings by id.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTService))
			r.Get("/warehouses", warehouseHandler.List)
			r.Get("/warehouses/{id}", warehouseHandler.Get)
			r.Get("/coworking", coworkingHandler.List)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/auth/me", authHandler.Me)

			// Listings owned by the session user
			r.Get("/warehouses/mine", warehouseHandler.Mine)
			r.Post("/warehouses", warehouseHandler.Create)
			r.Put("/warehouses/{id}", warehouseHandler.Update)
			r.Delete("/warehouses/{id}", warehouseHandler.Delete)
			r.Post("/warehouses/{id}/images", uploadHandler.UploadImage)

			// Moderation
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Put("/warehouses/{id}/accept", warehouseHandler.Accept)
				r.Put("/warehouses/{id}/promote", warehouseHandler.Promote)
			})

			// User administration
			r.Route("/users", func(r chi.Router) {
				r.Get("/{id}", userHandler.Get) // self or admin, checked in handler

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin))
					r.Get("/", userHandler.List)
					r.Put("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
				})
			})
		})
	})

	return &Router{r}
}
