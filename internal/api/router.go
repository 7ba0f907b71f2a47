package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Sathishkumar1405/chat-app/internal/api/middleware"
	"github.com/Sathishkumar1405/chat-app/internal/handlers"
	"github.com/Sathishkumar1405/chat-app/internal/relay"
	"github.com/Sathishkumar1405/chat-app/internal/store"
)

// NewRouter creates and configures the HTTP router, including the websocket
// endpoint the relay listens on.
func NewRouter(logger zerolog.Logger, db store.DataStore, redisStore *store.RedisStore, rly *relay.Relay) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(1 * 1024 * 1024)) // avatars/status media travel as data URLs
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (requires Redis)
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger)
		r.Use(limiter.Middleware)
	}

	// CORS - the SPA and mobile builds call from arbitrary origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(db, redisStore, rly)
	gateway := relay.NewGateway(rly, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	// Real-time relay
	r.Get("/ws", gateway.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.RegisterUser)
			r.Post("/login", h.Login)
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateProfile)
			r.Get("/{id}/status", h.GetStatus)
			r.Put("/{id}/status", h.UpdateStatus)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", h.CreateChat)
			r.Get("/user/{userId}", h.GetUserChats)
			r.Get("/{chatId}", h.GetChat)
			r.Get("/{chatId}/messages", h.GetChatMessages)
			r.Put("/{chatId}/disappearing", h.SetDisappearing)
			r.Put("/{chatId}/messages/{messageId}/star", h.StarMessage)
			r.Delete("/{chatId}/messages/{messageId}", h.DeleteMessage)
		})

		r.Route("/communities", func(r chi.Router) {
			r.Post("/", h.CreateCommunity)
			r.Get("/", h.ListCommunities)
			r.Get("/{id}", h.GetCommunity)
			r.Post("/{id}/join", h.JoinCommunity)
		})
	})

	return r
}
