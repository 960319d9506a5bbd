package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/parser"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	filename, doc, ok := s.receivePaper(w, r)
	if !ok {
		return
	}
	sess := s.sessions.Create(filename, doc)
	s.log.Info("session created", "session_id", sess.ID, "file", filename, "pages", len(doc.Pages), "tables", len(doc.Tables))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleReplacePaper(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	filename, doc, ok := s.receivePaper(w, r)
	if !ok {
		return
	}
	sess.Exclusive(func() error {
		sess.SetPaper(filename, doc)
		return nil
	})
	s.log.Info("paper replaced", "session_id", sess.ID, "file", filename)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionFrom(r).Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sessions.Delete(sess.ID)
	s.log.Info("session deleted", "session_id", sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// receivePaper reads the multipart "file" field into a unique temp file,
// extracts it and applies the research-paper gate. On failure it has
// already written the response.
func (s *Server) receivePaper(w http.ResponseWriter, r *http.Request) (string, *document.Document, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), "too_large", http.StatusRequestEntityTooLarge)
			return "", nil, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), "bad_request", http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), "bad_request", http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), "bad_request", http.StatusBadRequest)
		return "", nil, false
	}

	path, err := s.saveUpload(file)
	if path != "" {
		defer os.Remove(path)
	}
	if err != nil {
		if errors.Is(err, errTooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), "too_large", http.StatusRequestEntityTooLarge)
			return "", nil, false
		}
		s.writeError(w, err)
		return "", nil, false
	}

	doc, err := s.extractor.Extract(path)
	if err != nil {
		s.log.Warn("extraction failed", "file", filename, "error", err)
		s.writeError(w, err)
		return "", nil, false
	}
	if err := parser.CheckPaper(doc.String()); err != nil {
		s.log.Info("rejected upload", "file", filename, "keyword_hits", parser.KeywordHits(doc.String()))
		s.writeError(w, err)
		return "", nil, false
	}
	return filename, doc, true
}

var errTooLarge = errors.New("upload too large")

// saveUpload copies the upload to its own file under UploadDir. The caller
// removes the returned path.
func (s *Server) saveUpload(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.cfg.UploadDir, "researchmate-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return tmp.Name(), fmt.Errorf("write temp file: %w", err)
	}
	if n > s.cfg.MaxUploadBytes {
		return tmp.Name(), errTooLarge
	}
	return tmp.Name(), nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
