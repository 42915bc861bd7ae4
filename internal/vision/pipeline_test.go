package vision

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestPipeline(trackerCfg TrackerConfig, counterCfg CounterConfig) (*Pipeline, *[]CountEvent, *[]int64) {
	events := &[]CountEvent{}
	evictions := &[]int64{}

	p := NewPipeline(
		trackerCfg,
		counterCfg,
		DetectionFilter{Threshold: 0.5, Catalog: NewCatalog([]string{"cola", "juice"})},
		ZoneGeometry{Orientation: ZoneVertical, StartPercent: 70, WidthPercent: 20},
	)
	p.Stats = NewSessionStats(time.Now())
	p.CountSink = func(e CountEvent) { *events = append(*events, e) }
	p.EvictionSink = func(id int64) { *evictions = append(*evictions, id) }
	return p, events, evictions
}

// colaAt builds a 40x40 cola detection centred on the given x.
func colaAt(x float64) Detection {
	return Detection{Label: "cola", Confidence: 1.0, Box: Box{x - 20, 200, x + 20, 240}}
}

func TestPipelineEndToEndScenario(t *testing.T) {
	// One simulated cola: 3 frames at x=500 (inside the [448,576) band),
	// 2 frames at x=100 (outside), 2 frames back at x=500. Expected
	// events: one count on frame 1, one count on frame 6, nothing else.
	sim := NewSimSource(NewCatalog([]string{"cola"}))
	id := sim.Add("cola", 480, 200, 40, 40) // centroid x=500

	p, events, _ := newTestPipeline(DefaultTrackerConfig(), DefaultCounterConfig())
	now := time.Now()

	moveTo := func(x float64) {
		nx := x - 20
		sim.Update(id, SimObjectUpdate{X: &nx})
	}

	countsAfterFrame := make([]int, 0, 7)
	runFrame := func() {
		now = now.Add(33 * time.Millisecond)
		tracked := p.ProcessFrame(sim.Detections(640, 480), 640, 480, now)
		if len(tracked) != 1 {
			t.Fatalf("expected 1 tracked detection per frame, got %d", len(tracked))
		}
		countsAfterFrame = append(countsAfterFrame, len(*events))
	}

	for i := 0; i < 3; i++ {
		runFrame()
	}
	moveTo(100)
	for i := 0; i < 2; i++ {
		runFrame()
	}
	moveTo(500)
	for i := 0; i < 2; i++ {
		runFrame()
	}

	want := []int{1, 1, 1, 1, 1, 2, 2}
	if diff := cmp.Diff(want, countsAfterFrame); diff != "" {
		t.Errorf("cumulative counts per frame mismatch (-want +got):\n%s", diff)
	}

	// Both events carry the same track identity: the object was never
	// lost between entries.
	if (*events)[0].TrackID != (*events)[1].TrackID {
		t.Errorf("expected stable track across re-entry, got %d then %d",
			(*events)[0].TrackID, (*events)[1].TrackID)
	}
	if (*events)[0].Label != "cola" {
		t.Errorf("expected cola event, got %q", (*events)[0].Label)
	}
}

func TestPipelineIdempotentDwell(t *testing.T) {
	p, events, _ := newTestPipeline(DefaultTrackerConfig(), DefaultCounterConfig())
	now := time.Now()

	for i := 0; i < 50; i++ {
		now = now.Add(33 * time.Millisecond)
		p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	}

	if len(*events) != 1 {
		t.Errorf("expected exactly 1 count over a 50-frame dwell, got %d", len(*events))
	}
}

func TestPipelineEvictionClearsMembership(t *testing.T) {
	trackerCfg := DefaultTrackerConfig()
	trackerCfg.MaxAge = 3
	p, events, evictions := newTestPipeline(trackerCfg, DefaultCounterConfig())
	now := time.Now()

	// Count once, then vanish long enough to be evicted.
	p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	firstID := (*events)[0].TrackID

	for i := 0; i <= trackerCfg.MaxAge; i++ {
		now = now.Add(33 * time.Millisecond)
		p.ProcessFrame(nil, 640, 480, now)
	}

	if len(*evictions) != 1 || (*evictions)[0] != firstID {
		t.Fatalf("expected eviction of track %d, got %v", firstID, *evictions)
	}
	if p.Counter.TrackedCount() != 0 {
		t.Error("expected membership state released on eviction")
	}

	// A detection at the same location gets a fresh track and no stale
	// counted-state: it counts again.
	now = now.Add(33 * time.Millisecond)
	tracked := p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	if tracked[0].TrackID == firstID {
		t.Error("expected a new track ID after eviction")
	}
	if len(*events) != 2 {
		t.Errorf("expected fresh track to count, got %d events", len(*events))
	}
}

// TestPipelineOcclusionRecountLimitation exercises the accepted limitation:
// an occlusion longer than MaxAge destroys the identity, so an object that
// never left the zone is counted again when it reappears. Identity is not
// preserved across eviction and counting is keyed to identity.
func TestPipelineOcclusionRecountLimitation(t *testing.T) {
	trackerCfg := DefaultTrackerConfig()
	trackerCfg.MaxAge = 2
	p, events, _ := newTestPipeline(trackerCfg, DefaultCounterConfig())
	now := time.Now()

	// Enter the zone and count.
	p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	if len(*events) != 1 {
		t.Fatalf("expected initial count, got %d", len(*events))
	}

	// Occluded past MaxAge while physically still in the zone.
	for i := 0; i <= trackerCfg.MaxAge; i++ {
		now = now.Add(33 * time.Millisecond)
		p.ProcessFrame(nil, 640, 480, now)
	}

	// Reappears at the same spot: a second count is emitted.
	now = now.Add(33 * time.Millisecond)
	p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	if len(*events) != 2 {
		t.Errorf("expected re-count after identity loss, got %d events", len(*events))
	}
}

func TestPipelineAnnotatesInZone(t *testing.T) {
	p, _, _ := newTestPipeline(DefaultTrackerConfig(), DefaultCounterConfig())
	now := time.Now()

	tracked := p.ProcessFrame([]Detection{colaAt(500), colaAt(100)}, 640, 480, now)
	if len(tracked) != 2 {
		t.Fatalf("expected 2 tracked detections, got %d", len(tracked))
	}
	if !tracked[0].InZone {
		t.Error("expected detection at x=500 annotated in zone")
	}
	if tracked[1].InZone {
		t.Error("expected detection at x=100 annotated outside zone")
	}
}

func TestPipelineFiltersBeforeTracking(t *testing.T) {
	p, _, _ := newTestPipeline(DefaultTrackerConfig(), DefaultCounterConfig())
	now := time.Now()

	tracked := p.ProcessFrame([]Detection{
		{Label: "cola", Confidence: 0.2, Box: Box{0, 0, 10, 10}},    // below threshold
		{Label: "laptop", Confidence: 0.9, Box: Box{0, 0, 10, 10}},  // off catalog
		{Label: "juice", Confidence: 0.9, Box: Box{20, 0, 30, 10}},  // kept
	}, 640, 480, now)

	if len(tracked) != 1 {
		t.Fatalf("expected 1 tracked detection, got %d", len(tracked))
	}
	if tracked[0].Label != "juice" {
		t.Errorf("expected juice to survive filtering, got %q", tracked[0].Label)
	}
	if p.Tracker.LiveTrackCount() != 1 {
		t.Errorf("expected filtered detections to never open tracks, got %d", p.Tracker.LiveTrackCount())
	}
}

func TestPipelineResetStartsFreshSession(t *testing.T) {
	p, events, _ := newTestPipeline(DefaultTrackerConfig(), DefaultCounterConfig())
	now := time.Now()

	p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	p.Reset(now)

	if p.Tracker.LiveTrackCount() != 0 || p.Counter.TrackedCount() != 0 {
		t.Error("expected reset to clear tracker and counter state")
	}
	if p.Stats.TotalCount() != 0 {
		t.Error("expected fresh session stats after reset")
	}

	// Same object re-enters with a new identity and counts again.
	now = now.Add(33 * time.Millisecond)
	p.ProcessFrame([]Detection{colaAt(500)}, 640, 480, now)
	if len(*events) != 2 {
		t.Errorf("expected a count in the new session, got %d total events", len(*events))
	}
}
