// Package api provides the HTTP API server and handlers for DropCircles.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

// Version is reported by the health endpoint and the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *Services
	tokens   *auth.TokenService
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	// Per-IP limiters for the endpoints fans and bots hammer.
	authLimiter  *RateLimiter
	claimLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, tokens *auth.TokenService, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	RegisterErrorHandler()

	humaConfig := huma.DefaultConfig("DropCircles API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s := &Server{
		store:        store,
		services:     services,
		tokens:       tokens,
		router:       router,
		api:          humachi.New(router, humaConfig),
		logger:       logger,
		authLimiter:  NewRateLimiter(20, time.Minute, 10),
		claimLimiter: NewRateLimiter(30, time.Minute, 15),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCircleRoutes()
	s.registerArtifactRoutes()
	s.registerGateRoutes()
	s.registerWaitlistRoutes()
	s.registerFeedbackRoutes()

	// Multipart upload and file streaming bypass the OpenAPI layer.
	router.Post("/api/v1/circles/{id}/artifacts", s.handleUploadArtifact)
	router.Get("/api/v1/stream/{artifactID}", s.handleStreamArtifact)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stop releases the server's background resources.
func (s *Server) Stop() {
	s.authLimiter.Stop()
	s.claimLimiter.Stop()
}
