package session

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/prompt"
)

// Status represents where a session is in its lifecycle.
type Status string

const (
	StatusReady     Status = "ready"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Turn is one question and its answer.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session is the per-user context every action runs against: the current
// paper, the last analysis answers and the chat history.
type Session struct {
	mu sync.Mutex
	// action serializes uploads, analyses and questions within the session.
	action sync.Mutex

	ID        string
	Filename  string
	Title     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	paper       string
	pages       int
	tables      int
	contentHash string
	answers     map[prompt.Task]string
	taskErrors  map[prompt.Task]string
	history     []Turn
}

// New creates a session holding doc.
func New(id, filename string, doc *document.Document) *Session {
	now := time.Now()
	s := &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	s.SetPaper(filename, doc)
	return s
}

// Exclusive runs fn while holding the session's action lock, so actions on
// one session never overlap.
func (s *Session) Exclusive(fn func() error) error {
	s.action.Lock()
	defer s.action.Unlock()
	return fn()
}

// SetPaper replaces the paper and clears every answer and the chat history.
// The title comes from the display filename; the document is only read.
func (s *Session) SetPaper(filename string, doc *document.Document) {
	text := doc.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filename = filename
	s.Title = strings.TrimSuffix(filename, filepath.Ext(filename))
	if doc != nil {
		if s.Title == "" {
			s.Title = doc.Title
		}
		s.pages = len(doc.Pages)
		s.tables = len(doc.Tables)
	} else {
		s.pages, s.tables = 0, 0
	}
	s.paper = text
	s.contentHash = ContentHashHex([]byte(text))
	s.answers = make(map[prompt.Task]string)
	s.taskErrors = make(map[prompt.Task]string)
	s.history = nil
	s.Status = StatusReady
	s.UpdatedAt = time.Now()
}

// Paper returns the assembled paper text.
func (s *Session) Paper() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paper
}

// SetStatus updates the status atomically.
func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.UpdatedAt = time.Now()
}

// SetAnalysis overwrites all analysis answers with the latest run. A task
// that failed this time has no answer afterwards.
func (s *Session) SetAnalysis(answers map[prompt.Task]string, errs map[prompt.Task]error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = make(map[prompt.Task]string, len(answers))
	for task, a := range answers {
		s.answers[task] = a
	}
	s.taskErrors = make(map[prompt.Task]string, len(errs))
	for task, err := range errs {
		s.taskErrors[task] = err.Error()
	}
	switch {
	case len(errs) == 0:
		s.Status = StatusAnalyzed
	case len(answers) == 0:
		s.Status = StatusFailed
	default:
		s.Status = StatusPartial
	}
	s.UpdatedAt = time.Now()
}

// Answer returns the stored answer for an analysis task.
func (s *Session) Answer(task prompt.Task) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[task]
	return a, ok
}

// AddTurn appends to the chat history. Turns are never removed.
func (s *Session) AddTurn(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.history = append(s.history, Turn{Question: question, Answer: answer, AskedAt: now})
	s.UpdatedAt = now
}

// History returns the turns in the order they were asked.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// NewestFirst returns the turns for display, most recent first.
func (s *Session) NewestFirst() []Turn {
	h := s.History()
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return h
}

func (s *Session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID          string            `json:"session_id"`
	Filename    string            `json:"filename"`
	Title       string            `json:"title"`
	Status      Status            `json:"status"`
	Pages       int               `json:"pages"`
	Tables      int               `json:"tables"`
	Chars       int               `json:"chars"`
	ContentHash string            `json:"content_hash"`
	Answers     map[string]string `json:"answers"`
	Errors      map[string]string `json:"errors"`
	History     []Turn            `json:"history"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy. History is newest first.
func (s *Session) Snapshot() Snapshot {
	history := s.NewestFirst()

	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make(map[string]string, len(s.answers))
	for task, a := range s.answers {
		answers[string(task)] = a
	}
	errs := make(map[string]string, len(s.taskErrors))
	for task, e := range s.taskErrors {
		errs[string(task)] = e
	}
	return Snapshot{
		ID:          s.ID,
		Filename:    s.Filename,
		Title:       s.Title,
		Status:      s.Status,
		Pages:       s.pages,
		Tables:      s.tables,
		Chars:       len([]rune(s.paper)),
		ContentHash: s.contentHash,
		Answers:     answers,
		Errors:      errs,
		History:     history,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
