package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/researchmate/internal/config"
	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/session"
)

// Extractor turns an uploaded PDF on disk into a Document.
type Extractor interface {
	Extract(path string) (*document.Document, error)
}

// Server is the HTTP API server for researchmate.
type Server struct {
	router       chi.Router
	sessions     *session.Store
	extractor    Extractor
	orchestrator *orchestrator.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store *session.Store, ext Extractor, orch *orchestrator.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:     store,
		extractor:    ext,
		orchestrator: orch,
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

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.loadSession)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/paper", s.handleReplacePaper)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/ask", s.handleAsk)
			r.Get("/download/{task}", s.handleDownload)
			r.Get("/report.html", s.handleReportHTML)
			r.Get("/report.docx", s.handleReportDOCX)
			r.Get("/history.csv", s.handleHistoryCSV)
		})
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
