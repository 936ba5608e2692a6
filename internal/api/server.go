package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dhewitt/costgraph/internal/config"
	"github.com/dhewitt/costgraph/internal/docgen"
	"github.com/dhewitt/costgraph/internal/extract"
	"github.com/dhewitt/costgraph/internal/pipeline"
)

// Server is the HTTP API server for costgraph.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	claude       *extract.ClaudeClient
	docs         *docgen.Generator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, claude *extract.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		claude:       claude,
		docs:         docgen.NewGenerator(claude, claude.Stats, log),
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/cases", s.handleListCases)
		r.Get("/api/cases/{caseID}", s.handleGetCase)
		r.Post("/api/cases/{caseID}/bill", s.handleGenerateBill)
		r.Post("/api/cases/{caseID}/documents/{docType}", s.handleGenerateDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
