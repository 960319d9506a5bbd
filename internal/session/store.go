package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/researchmate/internal/document"
)

// Store is a thread-safe in-memory session registry with TTL eviction.
// Nothing is persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session for doc under a fresh ID.
func (s *Store) Create(filename string, doc *document.Document) *Session {
	sess := New(newID(), filename, doc)
	s.Put(sess)
	return sess
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were evicted.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUpdate()) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run evicts expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				log.Info("evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
