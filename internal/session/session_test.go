package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/prompt"
)

func paper(text string) *document.Document {
	return (&document.Document{
		Title: "paper",
		Pages: []document.Page{{Number: 1, Text: text}},
	}).Seal()
}

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestSession_HistoryAppendOnly(t *testing.T) {
	s := New("s1", "paper.pdf", paper("Abstract"))
	questions := []string{"q1", "q2", "q3", "q4"}
	for _, q := range questions {
		s.AddTurn(q, "a-"+q)
	}

	history := s.History()
	if len(history) != len(questions) {
		t.Fatalf("expected %d turns, got %d", len(questions), len(history))
	}
	for i, q := range questions {
		if history[i].Question != q || history[i].Answer != "a-"+q {
			t.Errorf("turn %d: got %+v", i, history[i])
		}
	}

	newest := s.NewestFirst()
	if newest[0].Question != "q4" || newest[3].Question != "q1" {
		t.Errorf("expected newest first, got %q..%q", newest[0].Question, newest[3].Question)
	}
	// The view must not reorder storage.
	if s.History()[0].Question != "q1" {
		t.Error("NewestFirst mutated the stored history")
	}
}

func TestSession_SetPaperClearsState(t *testing.T) {
	s := New("s1", "first.pdf", paper("first"))
	s.SetAnalysis(map[prompt.Task]string{prompt.Summary: "old summary"}, nil)
	s.AddTurn("q", "a")

	s.SetPaper("second.pdf", paper("second"))

	if _, ok := s.Answer(prompt.Summary); ok {
		t.Error("expected answers to be cleared on new paper")
	}
	if len(s.History()) != 0 {
		t.Error("expected chat history to be cleared on new paper")
	}
	snap := s.Snapshot()
	if snap.Filename != "second.pdf" || snap.Status != StatusReady {
		t.Errorf("unexpected snapshot after upload: %+v", snap)
	}
	if s.Paper() != paper("second").String() {
		t.Errorf("expected new paper text, got %q", s.Paper())
	}
}

func TestSession_SetAnalysisOverwrites(t *testing.T) {
	s := New("s1", "p.pdf", paper("text"))
	s.SetAnalysis(map[prompt.Task]string{
		prompt.Summary:     "v1",
		prompt.Limitations: "v1",
	}, nil)
	if s.Status != StatusAnalyzed {
		t.Errorf("expected %q, got %q", StatusAnalyzed, s.Status)
	}

	s.SetAnalysis(
		map[prompt.Task]string{prompt.Summary: "v2"},
		map[prompt.Task]error{prompt.Limitations: errors.New("rate limited")},
	)
	if got, _ := s.Answer(prompt.Summary); got != "v2" {
		t.Errorf("expected overwritten summary, got %q", got)
	}
	if _, ok := s.Answer(prompt.Limitations); ok {
		t.Error("expected failed task to have no answer")
	}
	snap := s.Snapshot()
	if snap.Status != StatusPartial {
		t.Errorf("expected %q, got %q", StatusPartial, snap.Status)
	}
	if snap.Errors["limitations"] != "rate limited" {
		t.Errorf("expected recorded error, got %q", snap.Errors["limitations"])
	}

	s.SetAnalysis(nil, map[prompt.Task]error{prompt.Summary: errors.New("down")})
	if s.Snapshot().Status != StatusFailed {
		t.Errorf("expected %q when nothing succeeded", StatusFailed)
	}
}

func TestSession_SnapshotHistoryNotNil(t *testing.T) {
	snap := New("s1", "p.pdf", paper("x")).Snapshot()
	if snap.History == nil {
		t.Error("expected non-nil history slice in snapshot")
	}
	if snap.Chars == 0 || snap.ContentHash == "" {
		t.Errorf("expected paper stats in snapshot, got %+v", snap)
	}
}

func TestSession_ExclusiveSerializesActions(t *testing.T) {
	s := New("s1", "p.pdf", paper("x"))
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Exclusive(func() error {
				mu.Lock()
				active++
				maxActive = max(maxActive, active)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Errorf("expected one action at a time, saw %d", maxActive)
	}
}

func TestStore_CreateGetDelete(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create("paper.pdf", paper("x"))

	if !ValidID(sess.ID) {
		t.Fatalf("expected uuid session id, got %q", sess.ID)
	}
	if store.Get(sess.ID) != sess {
		t.Fatal("expected to get session back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing session")
	}
	if !store.Delete(sess.ID) || store.Delete(sess.ID) {
		t.Error("expected delete to succeed once")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore(time.Hour)
	seen := make(map[string]bool)
	for range 100 {
		id := store.Create("p.pdf", nil).ID
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestStore_TTLCleanup(t *testing.T) {
	store := NewStore(50 * time.Millisecond)
	old := store.Create("old.pdf", paper("x"))

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := store.Create("new.pdf", paper("y"))

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 eviction, got %d", n)
	}
	if store.Get(old.ID) != nil {
		t.Error("expected expired session to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh session to survive cleanup")
	}
}

func TestSession_TitleFromDisplayFilename(t *testing.T) {
	doc := paper("Abstract")
	s := New("s1", "Attention Is All You Need.pdf", doc)

	if got := s.Snapshot().Title; got != "Attention Is All You Need" {
		t.Errorf("expected title from display filename, got %q", got)
	}
	if doc.Title != "paper" {
		t.Errorf("expected sealed document to be left untouched, got title %q", doc.Title)
	}

	s.SetPaper("", paper("Abstract"))
	if got := s.Snapshot().Title; got != "paper" {
		t.Errorf("expected document title without a filename, got %q", got)
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{
		"short",
		"0123456789ABCDEFGHJKMNPQRU",
		"urn:uuid:0190b8c4-7c3a-7d2e-9f1b-2a4c6e8f0a1b",
		"0190b8c4-7c3a-7d2e-9f1b-2a4c6e8f0a1g",
	} {
		if ValidID(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
	if !ValidID("0190b8c4-7c3a-7d2e-9f1b-2a4c6e8f0a1b") {
		t.Error("expected canonical uuid to validate")
	}
}

func TestNewID_SortsByCreation(t *testing.T) {
	a := newID()
	time.Sleep(2 * time.Millisecond)
	b := newID()
	if !ValidID(a) || !ValidID(b) {
		t.Fatalf("expected valid ids, got %q and %q", a, b)
	}
	if a >= b {
		t.Errorf("expected %q to sort before %q", a, b)
	}
}
