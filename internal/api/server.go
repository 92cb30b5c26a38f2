package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/omadadoc/internal/cache"
	"github.com/dgallion1/omadadoc/internal/config"
	"github.com/dgallion1/omadadoc/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for omadadoc.
type Server struct {
	router  chi.Router
	store   *cache.Store
	log     *slog.Logger
	cfg     config.Config
	metrics *metrics.Metrics
}

// NewServer creates and configures the HTTP server. m may be nil, in
// which case no metrics are recorded and /metrics is not served.
func NewServer(store *cache.Store, log *slog.Logger, cfg config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		store:   store,
		log:     log,
		cfg:     cfg,
		metrics: m,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Instrument(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints, when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/stats", s.handleStats)

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/classes", s.handleClasses)
			r.Get("/openapi", s.handleOpenAPI)
			r.Get("/report", s.handleReport)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
