package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/session"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	log := s.log.With("session_id", sess.ID)

	var analysis *orchestrator.Analysis
	err := sess.Exclusive(func() error {
		prev := sess.Snapshot().Status
		sess.SetStatus(session.StatusAnalyzing)

		a, err := s.orchestrator.Analyze(r.Context(), sess.Paper())
		if err != nil {
			sess.SetStatus(prev)
			return err
		}
		sess.SetAnalysis(a.Answers, a.Errors)
		analysis = a
		return nil
	})
	if err != nil {
		log.Error("analysis aborted", "error", err)
		s.writeError(w, err)
		return
	}

	errs := make(map[string]string, len(analysis.Errors))
	for task, e := range analysis.Errors {
		errs[string(task)] = e.Error()
	}
	answers := make(map[string]string, len(analysis.Answers))
	for task, a := range analysis.Answers {
		answers[string(task)] = a
	}

	snap := sess.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": sess.ID,
		"status":     snap.Status,
		"answers":    answers,
		"errors":     errs,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), "bad_request", http.StatusBadRequest)
		return
	}

	var answer string
	err := sess.Exclusive(func() error {
		a, err := s.orchestrator.Ask(r.Context(), sess.Paper(), req.Question)
		if err != nil {
			return err
		}
		sess.AddTurn(req.Question, a)
		answer = a
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": sess.ID,
		"question":   req.Question,
		"answer":     answer,
		"turns":      len(sess.History()),
	})
}
