package llm

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("summary", ms(100), false)
	stats.Record("summary", ms(200), false)
	stats.Record("limitations", ms(300), false)
	stats.Record("limitations", ms(400), true)
	stats.Record("chat", ms(500), false)

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Errors != 1 {
		t.Fatalf("expected errors=1, got %d", snap.Errors)
	}
}

func TestStatsByTask(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.SetModel("groq/llama3-70b-8192")
	stats.Record("summary", ms(100), false)
	stats.Record("summary", ms(300), true)
	stats.Record("chat", ms(50), false)

	snap := stats.Snapshot()
	if snap.Model != "groq/llama3-70b-8192" {
		t.Fatalf("expected model label, got %q", snap.Model)
	}
	sum, ok := snap.ByTask["summary"]
	if !ok {
		t.Fatal("expected summary breakdown")
	}
	if sum.Count != 2 || sum.Errors != 1 || sum.AvgMs != 200 {
		t.Fatalf("unexpected summary breakdown: %+v", sum)
	}
	if snap.ByTask["chat"].Count != 1 {
		t.Fatalf("expected one chat sample, got %+v", snap.ByTask["chat"])
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record("summary", ms(100), false)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record("summary", ms(200), false)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("chat", -ms(10), false)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
