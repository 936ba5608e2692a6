package extract

import (
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("work_items", 100)
	stats.Record("work_items", 200)
	stats.Record("work_items", 300)
	stats.Record("work_items", 400)
	stats.Record("work_items", 500)

	snap := stats.Snapshot().Overall
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
}

func TestLLMStatsCategoryBreakdown(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("work_items", 100)
	stats.Record("work_items", 300)
	stats.Record("parties", 50)

	snap := stats.Snapshot()
	if snap.Overall.Count != 3 {
		t.Fatalf("expected overall count=3, got %d", snap.Overall.Count)
	}

	wi, ok := snap.ByCategory["work_items"]
	if !ok {
		t.Fatal("expected work_items breakdown")
	}
	if wi.Count != 2 || wi.AvgMs != 200 {
		t.Errorf("expected work_items count=2 avg=200, got count=%d avg=%f", wi.Count, wi.AvgMs)
	}

	pt, ok := snap.ByCategory["parties"]
	if !ok {
		t.Fatal("expected parties breakdown")
	}
	if pt.Count != 1 || pt.MinMs != 50 || pt.MaxMs != 50 {
		t.Errorf("expected parties count=1 min=max=50, got %+v", pt)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record("work_items", 100)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Overall.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Overall.Count)
	}
	if len(snap.ByCategory) != 0 {
		t.Fatalf("expected empty breakdown after prune, got %d labels", len(snap.ByCategory))
	}

	stats.Record("work_items", 200)
	snap = stats.Snapshot()
	if snap.Overall.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Overall.Count)
	}
	if snap.Overall.MinMs != 200 || snap.Overall.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.Overall.MinMs, snap.Overall.MaxMs)
	}
}

func TestLLMStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("case_info", -10)
	snap := stats.Snapshot().Overall
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
