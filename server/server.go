// Package server exposes the session pipeline over HTTP: upload a
// dataset, submit filter controls, download exports and request grouped
// aggregations. It parses request values into the core's control types
// and renders nothing itself.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dataexplorer/app/session"
	"dataexplorer/app/settings"
)

// MaxUploadBytes bounds the accepted upload size. The whole table lives
// in memory, so this is the real resource limit of a session.
const MaxUploadBytes = 1 << 30

// Server is the HTTP front end of the application.
type Server struct {
	sessions *session.Manager
	settings settings.Settings
	router   *chi.Mux
}

// New creates a Server around a session manager.
func New(sessions *session.Manager, cfg settings.Settings) *Server {
	s := &Server{
		sessions: sessions,
		settings: cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(5 * time.Minute))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleDescribe)
			r.Delete("/", s.handleClose)
			r.Post("/filter", s.handleFilter)
			r.Get("/export", s.handleExport)
			r.Post("/aggregate", s.handleAggregate)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.settings.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
