package vision

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DwellSummary holds percentile statistics over completed zone dwells.
type DwellSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P85   float64 `json:"p85"`
	P95   float64 `json:"p95"`
}

// SessionStats accumulates counting telemetry for one scan session:
// counts by label, dwell lengths of counted tracks, and intervals between
// consecutive counts. It backs the operator stats endpoint and is reset at
// scan start.
type SessionStats struct {
	StartedAt     time.Time
	FrameCount    int64
	CountsByLabel map[string]int

	dwellFrames    []float64
	countIntervals []float64
	lastCountAt    time.Time
}

// NewSessionStats starts a fresh statistics window.
func NewSessionStats(now time.Time) *SessionStats {
	return &SessionStats{
		StartedAt:     now,
		CountsByLabel: make(map[string]int),
	}
}

// RecordFrame notes one processed frame tick.
func (s *SessionStats) RecordFrame() {
	s.FrameCount++
}

// RecordCount notes one emitted count event.
func (s *SessionStats) RecordCount(event CountEvent) {
	s.CountsByLabel[event.Label]++
	if !s.lastCountAt.IsZero() {
		s.countIntervals = append(s.countIntervals, event.Timestamp.Sub(s.lastCountAt).Seconds())
	}
	s.lastCountAt = event.Timestamp
}

// RecordDwell notes the dwell length, in frames, of a track whose zone
// residence has ended (exit or eviction). Zero-length dwells are ignored.
func (s *SessionStats) RecordDwell(frames int) {
	if frames > 0 {
		s.dwellFrames = append(s.dwellFrames, float64(frames))
	}
}

// TotalCount returns the total number of count events recorded.
func (s *SessionStats) TotalCount() int {
	total := 0
	for _, n := range s.CountsByLabel {
		total += n
	}
	return total
}

// DwellSummary computes dwell-length percentiles over completed dwells.
func (s *SessionStats) DwellSummary() DwellSummary {
	return summarize(s.dwellFrames)
}

// CountIntervalSummary computes percentiles over the seconds between
// consecutive count events.
func (s *SessionStats) CountIntervalSummary() DwellSummary {
	return summarize(s.countIntervals)
}

func summarize(samples []float64) DwellSummary {
	if len(samples) == 0 {
		return DwellSummary{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return DwellSummary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P85:   stat.Quantile(0.85, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}
