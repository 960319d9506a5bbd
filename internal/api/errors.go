package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/researchmate/internal/llm"
	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/parser"
	"github.com/dgallion1/researchmate/internal/prompt"
)

func jsonError(w http.ResponseWriter, msg, kind string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": kind})
}

// writeError maps the core error kinds onto HTTP responses. Template
// problems are reported apart from backend failures.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		pe *parser.ParseError
		te *prompt.TemplateError
		be *llm.BackendError
	)
	switch {
	case errors.As(err, &pe):
		jsonError(w, "could not read the PDF: "+pe.Err.Error(), "parse_error", http.StatusUnprocessableEntity)
	case errors.Is(err, parser.ErrNotAPaper):
		jsonError(w, "this document is not recognized as a research paper", "not_a_paper", http.StatusUnprocessableEntity)
	case errors.Is(err, orchestrator.ErrEmptyQuestion):
		jsonError(w, "please enter a question", "empty_question", http.StatusBadRequest)
	case errors.As(err, &te):
		s.log.Error("prompt template misconfigured", "task", string(te.Task), "path", te.Path, "error", te.Err)
		jsonError(w, "prompt templates are misconfigured", "prompt_config", http.StatusInternalServerError)
	case errors.As(err, &be):
		jsonError(w, err.Error(), "backend_"+string(be.Kind), http.StatusBadGateway)
	default:
		s.log.Error("request failed", "error", err)
		jsonError(w, "internal error", "internal", http.StatusInternalServerError)
	}
}
