package vision

import (
	"math"
	"testing"
	"time"
)

func TestSessionStatsCountsByLabel(t *testing.T) {
	now := time.Now()
	s := NewSessionStats(now)

	s.RecordCount(CountEvent{TrackID: 1, Label: "cola", Timestamp: now})
	s.RecordCount(CountEvent{TrackID: 2, Label: "cola", Timestamp: now.Add(time.Second)})
	s.RecordCount(CountEvent{TrackID: 3, Label: "juice", Timestamp: now.Add(3 * time.Second)})

	if s.TotalCount() != 3 {
		t.Errorf("expected total 3, got %d", s.TotalCount())
	}
	if s.CountsByLabel["cola"] != 2 || s.CountsByLabel["juice"] != 1 {
		t.Errorf("unexpected label counts: %v", s.CountsByLabel)
	}
}

func TestSessionStatsCountIntervals(t *testing.T) {
	now := time.Now()
	s := NewSessionStats(now)

	// Events at t=0, t=1s, t=3s produce intervals of 1s and 2s.
	s.RecordCount(CountEvent{Label: "cola", Timestamp: now})
	s.RecordCount(CountEvent{Label: "cola", Timestamp: now.Add(time.Second)})
	s.RecordCount(CountEvent{Label: "cola", Timestamp: now.Add(3 * time.Second)})

	summary := s.CountIntervalSummary()
	if summary.Count != 2 {
		t.Fatalf("expected 2 intervals, got %d", summary.Count)
	}
	if math.Abs(summary.Mean-1.5) > 1e-9 {
		t.Errorf("expected mean interval 1.5s, got %g", summary.Mean)
	}
}

func TestSessionStatsDwellSummary(t *testing.T) {
	s := NewSessionStats(time.Now())

	for _, frames := range []int{10, 20, 30, 40} {
		s.RecordDwell(frames)
	}
	s.RecordDwell(0) // ignored

	summary := s.DwellSummary()
	if summary.Count != 4 {
		t.Fatalf("expected 4 dwell samples, got %d", summary.Count)
	}
	if math.Abs(summary.Mean-25) > 1e-9 {
		t.Errorf("expected mean dwell 25 frames, got %g", summary.Mean)
	}
	if summary.P50 < 10 || summary.P50 > 30 {
		t.Errorf("median out of range: %g", summary.P50)
	}
	if summary.P95 != 40 {
		t.Errorf("expected p95 at the longest dwell, got %g", summary.P95)
	}
}

func TestSessionStatsEmptySummaries(t *testing.T) {
	s := NewSessionStats(time.Now())
	if got := s.DwellSummary(); got != (DwellSummary{}) {
		t.Errorf("expected zero summary with no samples, got %+v", got)
	}
	if got := s.CountIntervalSummary(); got != (DwellSummary{}) {
		t.Errorf("expected zero interval summary, got %+v", got)
	}

	// A single count has no predecessor and so no interval.
	s.RecordCount(CountEvent{Label: "cola", Timestamp: time.Now()})
	if got := s.CountIntervalSummary(); got.Count != 0 {
		t.Errorf("expected no intervals after one count, got %d", got.Count)
	}
}

func TestSessionStatsFrameCount(t *testing.T) {
	s := NewSessionStats(time.Now())
	for i := 0; i < 5; i++ {
		s.RecordFrame()
	}
	if s.FrameCount != 5 {
		t.Errorf("expected 5 frames, got %d", s.FrameCount)
	}
}
