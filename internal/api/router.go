package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/savegress/carebridge/internal/config"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, handlers *Handlers) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	limit := s.config.Server.RateLimit
	if limit <= 0 {
		limit = 300
	}
	s.router.Use(httprate.LimitByIP(limit, time.Minute))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/carebridge", func(r chi.Router) {
		r.Post("/hl7/convert", s.handlers.ConvertMessage)

		r.Route("/records", func(r chi.Router) {
			r.Post("/normalize", s.handlers.NormalizeRecord)
			r.Post("/batch", s.handlers.NormalizeBatch)
		})

		r.Post("/bundle", s.handlers.AssembleBundle)
		r.Post("/canonical", s.handlers.ToCanonical)

		r.Post("/terminology/translate", s.handlers.TranslateCode)

		r.Post("/risk/score", s.handlers.ScoreRisk)
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
