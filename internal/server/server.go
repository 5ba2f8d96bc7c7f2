package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lab271/sensorkb/internal/service"
)

// Config holds HTTP server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server exposes the knowledge base over HTTP and WebSocket.
type Server struct {
	cfg        Config
	svc        *service.Service
	router     chi.Router
	httpServer *http.Server
	progress   *progressBroker
}

// New creates a server over the given service. It installs a progress hook
// on the service so WebSocket clients can follow ingestion live.
func New(cfg Config, svc *service.Service) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		progress: newProgressBroker(),
	}
	svc.SetProgressFunc(s.progress.publish)

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleIngest)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}/chunks", s.handleGetChunks)
		r.Delete("/documents/{id}", s.handleDeleteDocument)

		r.Post("/query", s.handleQuery)
		r.Get("/stats", s.handleStats)

		r.Post("/sensors", s.handleAddSensor)
		r.Get("/sensors", s.handleListSensors)
		r.Post("/sensors/{id}/readings", s.handleAddReading)
		r.Get("/sensors/{id}/readings", s.handleGetReadings)
		r.Post("/sensors/{id}/knowledge", s.handleAddKnowledge)

		r.Post("/import/sensors", s.handleImportSensors)
		r.Post("/import/readings", s.handleImportReadings)
	})

	// WebSocket ingestion with streamed progress.
	r.Get("/ws/ingest", s.handleIngestWS)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("sensorkb server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
