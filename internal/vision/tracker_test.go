package vision

import (
	"testing"
	"time"
)

func det(label string, box Box) Detection {
	return Detection{Label: label, Confidence: 0.9, Box: box}
}

func TestNewTracker(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())

	if tracker.Tracks == nil {
		t.Error("expected non-nil tracks map")
	}
	if tracker.NextTrackID != 1 {
		t.Errorf("expected NextTrackID=1, got %d", tracker.NextTrackID)
	}
}

func TestNewTrackerFillsZeroConfig(t *testing.T) {
	tracker := NewTracker(TrackerConfig{})

	if tracker.Config.MatchIoUThreshold != DefaultMatchIoUThreshold {
		t.Errorf("expected default IoU threshold, got %g", tracker.Config.MatchIoUThreshold)
	}
	if tracker.Config.MaxAge != DefaultMaxAge {
		t.Errorf("expected default max age, got %d", tracker.Config.MaxAge)
	}
	if tracker.Config.MaxTracks != DefaultMaxTracks {
		t.Errorf("expected default max tracks, got %d", tracker.Config.MaxTracks)
	}
}

func TestTrackerCreatesTrackForUnmatchedDetection(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	tracked, evicted := tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now)

	if len(tracked) != 1 {
		t.Fatalf("expected 1 tracked detection, got %d", len(tracked))
	}
	if tracked[0].TrackID != 1 {
		t.Errorf("expected track ID 1, got %d", tracked[0].TrackID)
	}
	if len(evicted) != 0 {
		t.Errorf("expected no evictions, got %v", evicted)
	}
	if tracker.LiveTrackCount() != 1 {
		t.Errorf("expected 1 live track, got %d", tracker.LiveTrackCount())
	}
}

func TestTrackerMaintainsIdentityAcrossFrames(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	first, _ := tracker.Update([]Detection{det("cola", Box{100, 100, 150, 150})}, now)

	// Slightly shifted box with strong overlap keeps the same identity.
	second, _ := tracker.Update([]Detection{det("cola", Box{105, 102, 155, 152})}, now.Add(33*time.Millisecond))

	if first[0].TrackID != second[0].TrackID {
		t.Errorf("expected stable identity, got %d then %d", first[0].TrackID, second[0].TrackID)
	}

	track := tracker.GetTrack(first[0].TrackID)
	if track == nil {
		t.Fatal("expected track to survive")
	}
	if track.Age != 0 {
		t.Errorf("expected age reset on match, got %d", track.Age)
	}
	if track.Box != (Box{105, 102, 155, 152}) {
		t.Errorf("expected track box updated, got %+v", track.Box)
	}
}

func TestTrackerLabelIsolation(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	box := Box{100, 100, 150, 150}
	first, _ := tracker.Update([]Detection{det("juice", box)}, now)

	// Identical box (IoU = 1.0) but different label must open a new track.
	second, _ := tracker.Update([]Detection{det("cola", box)}, now.Add(33*time.Millisecond))

	if first[0].TrackID == second[0].TrackID {
		t.Error("expected different labels to never share a track")
	}
	if tracker.LiveTrackCount() != 2 {
		t.Errorf("expected 2 live tracks, got %d", tracker.LiveTrackCount())
	}
}

func TestTrackerBelowThresholdSpawnsNewTrack(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now)

	// (0,0,10,10) vs (5,5,15,15) has IoU ≈ 0.143, below the 0.3 threshold.
	tracked, _ := tracker.Update([]Detection{det("cola", Box{5, 5, 15, 15})}, now.Add(33*time.Millisecond))

	if tracked[0].TrackID != 2 {
		t.Errorf("expected new track 2 for weak overlap, got %d", tracked[0].TrackID)
	}
}

func TestTrackerOneMatchPerTrackPerFrame(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	tracker.Update([]Detection{det("cola", Box{0, 0, 100, 100})}, now)

	// Two detections both overlapping the single live track: the first
	// takes the match, the second opens a new track.
	tracked, _ := tracker.Update([]Detection{
		det("cola", Box{0, 0, 100, 100}),
		det("cola", Box{10, 10, 110, 110}),
	}, now.Add(33*time.Millisecond))

	if len(tracked) != 2 {
		t.Fatalf("expected 2 tracked detections, got %d", len(tracked))
	}
	if tracked[0].TrackID == tracked[1].TrackID {
		t.Error("expected a track to receive at most one detection per frame")
	}
}

func TestTrackerSameFrameOverlappingNewTracks(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	// Two same-label detections in the same frame with mutual overlap but
	// no existing tracks: both spawn tracks (no dedup within a frame).
	tracked, _ := tracker.Update([]Detection{
		det("cola", Box{0, 0, 100, 100}),
		det("cola", Box{5, 5, 105, 105}),
	}, now)

	if len(tracked) != 2 {
		t.Fatalf("expected 2 tracked detections, got %d", len(tracked))
	}
	if tracked[0].TrackID == tracked[1].TrackID {
		t.Error("expected two distinct tracks for two simultaneous detections")
	}
}

func TestTrackerPrefersHighestIoU(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	// Seed two tracks at known IDs.
	tracker.Update([]Detection{
		det("cola", Box{0, 0, 100, 100}),
		det("cola", Box{40, 0, 140, 100}),
	}, now)

	// The new detection overlaps both above the threshold, but much more
	// strongly the second. It must follow IoU, not track ID order.
	tracked, _ := tracker.Update([]Detection{det("cola", Box{30, 0, 130, 100})}, now.Add(33*time.Millisecond))

	if tracked[0].TrackID != 2 {
		t.Errorf("expected match to track 2 (highest IoU), got %d", tracked[0].TrackID)
	}
}

func TestTrackerEvictionAfterMaxAge(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.MaxAge = 3
	tracker := NewTracker(cfg)
	now := time.Now()

	tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now)

	// maxAge frames of absence: aged but alive.
	var evicted []int64
	for i := 0; i < cfg.MaxAge; i++ {
		now = now.Add(33 * time.Millisecond)
		_, evicted = tracker.Update(nil, now)
		if len(evicted) != 0 {
			t.Fatalf("premature eviction at miss %d", i+1)
		}
	}

	// One more frame pushes age past MaxAge.
	now = now.Add(33 * time.Millisecond)
	_, evicted = tracker.Update(nil, now)
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("expected track 1 evicted, got %v", evicted)
	}
	if tracker.LiveTrackCount() != 0 {
		t.Errorf("expected empty track table, got %d", tracker.LiveTrackCount())
	}

	// A detection at the same location gets a fresh identity.
	tracked, _ := tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now.Add(33*time.Millisecond))
	if tracked[0].TrackID == 1 {
		t.Error("expected evicted track ID to never be reused")
	}
}

func TestTrackerDropsMalformedBoxes(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	tracked, _ := tracker.Update([]Detection{
		det("cola", Box{10, 10, 10, 20}), // zero width
		det("cola", Box{30, 30, 20, 40}), // inverted x
	}, now)

	if len(tracked) != 0 {
		t.Errorf("expected malformed detections dropped, got %d tracked", len(tracked))
	}
	if tracker.LiveTrackCount() != 0 {
		t.Errorf("expected no tracks from malformed boxes, got %d", tracker.LiveTrackCount())
	}
}

func TestTrackerMaxTracksBound(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.MaxTracks = 2
	tracker := NewTracker(cfg)
	now := time.Now()

	tracked, _ := tracker.Update([]Detection{
		det("cola", Box{0, 0, 10, 10}),
		det("cola", Box{100, 0, 110, 10}),
		det("cola", Box{200, 0, 210, 10}),
	}, now)

	if len(tracked) != 2 {
		t.Errorf("expected third detection dropped at MaxTracks, got %d tracked", len(tracked))
	}
	if tracker.LiveTrackCount() != 2 {
		t.Errorf("expected 2 live tracks, got %d", tracker.LiveTrackCount())
	}
}

func TestTrackerResetKeepsIDMonotonic(t *testing.T) {
	tracker := NewTracker(DefaultTrackerConfig())
	now := time.Now()

	tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now)
	cleared := tracker.Reset()
	if len(cleared) != 1 {
		t.Fatalf("expected 1 cleared track, got %d", len(cleared))
	}

	tracked, _ := tracker.Update([]Detection{det("cola", Box{0, 0, 10, 10})}, now.Add(time.Second))
	if tracked[0].TrackID != 2 {
		t.Errorf("expected post-reset IDs to continue from 2, got %d", tracked[0].TrackID)
	}
}
