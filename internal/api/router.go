package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/video-digest/backend/internal/api/handlers"
	"github.com/video-digest/backend/internal/api/middleware"
	"github.com/video-digest/backend/internal/auth"
	"github.com/video-digest/backend/internal/cache"
	"github.com/video-digest/backend/internal/config"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Summarizer      handlers.Summarizer
	Extractor       handlers.PageExtractor
	Transcripts     handlers.TranscriptSource
	SummaryCache    cache.Store
	TranscriptCache cache.Store
	Settings        handlers.SettingStore // nil when no database is configured
	JWT             *auth.JWTService
}

func NewRouter(deps Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))

	// Handlers
	summarizeHandler := handlers.NewSummarizeHandler(deps.Summarizer, deps.Extractor, deps.Transcripts)
	healthHandler := handlers.NewHealthHandler(deps.Summarizer, deps.Transcripts)
	authHandler := handlers.NewAuthHandler(deps.JWT, cfg.ClientKeyHash)
	cacheHandler := handlers.NewCacheHandler(deps.SummaryCache, deps.TranscriptCache,
		cfg.CacheBackend, cache.ParsePolicy(cfg.CachePolicy))

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitPerMinute > 0 {
		limit = middleware.NewRateLimiter(cfg.RateLimitPerMinute).Handler
	}

	// Public routes
	r.Get("/health", healthHandler.Health)
	r.With(limit).Post("/auth/token", authHandler.Token)

	// Protected routes (open when auth is disabled)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.JWT))

		r.Get("/auth/me", authHandler.Me)
		r.Get("/cache/stats", cacheHandler.Stats)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/summarize", summarizeHandler.Text)
			r.Post("/summarize-url", summarizeHandler.URL)
			r.Post("/summarize-youtube", summarizeHandler.YouTube)
			r.Post("/follow-up", summarizeHandler.FollowUp)
		})

		if deps.Settings != nil {
			settingsHandler := handlers.NewSettingsHandler(deps.Settings)
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)
		}
	})

	return r
}
