package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/researchmate/internal/prompt"
	"github.com/dgallion1/researchmate/internal/report"
)

// handleDownload serves one analysis answer as a .txt attachment with the
// task's fixed filename.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	task, err := prompt.ParseTask(chi.URLParam(r, "task"))
	if err != nil || task.IsChat() {
		jsonError(w, "unknown task", "not_found", http.StatusNotFound)
		return
	}
	answer, ok := sessionFrom(r).Answer(task)
	if !ok {
		jsonError(w, fmt.Sprintf("%s has not been analyzed", task), "not_found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, task.DownloadName()))
	report.WriteText(w, answer)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, report.FromSession(sessionFrom(r))); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleReportDOCX(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var buf bytes.Buffer
	if err := report.WriteDOCX(&buf, report.FromSession(sess)); err != nil {
		s.writeError(w, err)
		return
	}
	name := strings.TrimSuffix(sess.Snapshot().Filename, ".pdf") + "-report.docx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	buf.WriteTo(w)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteHistoryCSV(&buf, sessionFrom(r).History()); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="chat_history.csv"`)
	buf.WriteTo(w)
}
