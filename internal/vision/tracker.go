package vision

import "time"

// Constants for tracker configuration
const (
	// DefaultMatchIoUThreshold is the minimum IoU (exclusive) for a
	// detection to be associated with an existing track.
	DefaultMatchIoUThreshold = 0.3
	// DefaultMaxAge is the number of consecutive frames a track may go
	// unmatched before it is evicted.
	DefaultMaxAge = 30
	// DefaultMaxTracks bounds the track table; excess detections in a
	// single frame beyond this are still annotated but do not open tracks.
	DefaultMaxTracks = 256
)

// TrackerConfig holds configuration parameters for the identity tracker.
type TrackerConfig struct {
	MatchIoUThreshold float64 // Minimum IoU (exclusive) for association
	MaxAge            int     // Frames without a match before eviction
	MaxTracks         int     // Maximum number of concurrent tracks
}

// DefaultTrackerConfig returns default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MatchIoUThreshold: DefaultMatchIoUThreshold,
		MaxAge:            DefaultMaxAge,
		MaxTracks:         DefaultMaxTracks,
	}
}

// Track is a hypothesised persistent identity for one physical object
// across frames. It is created when a detection cannot be matched to any
// live track, updated in place when matched, and evicted once its age
// exceeds MaxAge.
type Track struct {
	TrackID    int64
	Label      string
	Box        Box
	Confidence float64
	LastSeen   time.Time
	Age        int // Consecutive frames without a matching detection
}

// Tracker reconciles independent per-frame detections into stable object
// identities using spatial overlap. Track IDs increase monotonically and
// are never reused for the process lifetime.
//
// The tracker holds no locks: one logical frame tick owns all mutable
// state, and concurrent calls to Update for the same instance must be
// serialised by the caller.
type Tracker struct {
	Tracks      map[int64]*Track
	NextTrackID int64
	Config      TrackerConfig
}

// NewTracker creates a tracker with the specified configuration. Zero or
// negative config fields fall back to defaults so a partially filled
// TrackerConfig is safe.
func NewTracker(config TrackerConfig) *Tracker {
	if config.MatchIoUThreshold <= 0 {
		config.MatchIoUThreshold = DefaultMatchIoUThreshold
	}
	if config.MaxAge <= 0 {
		config.MaxAge = DefaultMaxAge
	}
	if config.MaxTracks <= 0 {
		config.MaxTracks = DefaultMaxTracks
	}
	return &Tracker{
		Tracks:      make(map[int64]*Track),
		NextTrackID: 1,
		Config:      config,
	}
}

// Update processes one frame's detection set. Each detection is associated
// with the live same-label track of highest IoU above the match threshold
// (ties broken by lowest track ID), or opens a new track. A track receives
// at most one detection per frame and a detection matches at most one
// track. After association, every unmatched track ages by one frame and
// tracks older than MaxAge are evicted.
//
// Returns the detections annotated with their track IDs (InZone is left
// false — zone classification is a separate stage) and the IDs of tracks
// evicted this frame, so dependent per-track state can be released.
func (t *Tracker) Update(detections []Detection, now time.Time) (tracked []TrackedDetection, evicted []int64) {
	tracked = make([]TrackedDetection, 0, len(detections))
	matched := make(map[int64]bool, len(t.Tracks))

	for _, det := range detections {
		if !det.Box.Valid() {
			// Degenerate boxes never create or refresh a track.
			Tracef("[Tracker] Dropping malformed box for %q: %+v", det.Label, det.Box)
			continue
		}

		trackID, ok := t.associate(det, matched)
		if ok {
			track := t.Tracks[trackID]
			track.Box = det.Box
			track.Confidence = det.Confidence
			track.LastSeen = now
			track.Age = 0
			matched[trackID] = true
		} else {
			if len(t.Tracks) >= t.Config.MaxTracks {
				Opsf("[Tracker] Track table full (%d), detection for %q not tracked", len(t.Tracks), det.Label)
				continue
			}
			track := t.initTrack(det, now)
			trackID = track.TrackID
			matched[trackID] = true
		}

		tracked = append(tracked, TrackedDetection{
			Detection: det,
			TrackID:   trackID,
		})
	}

	// Age unmatched tracks and evict those past MaxAge.
	for id, track := range t.Tracks {
		if matched[id] {
			continue
		}
		track.Age++
		if track.Age > t.Config.MaxAge {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		Diagf("[Tracker] Evicting track %d (%q) after %d unmatched frames", id, t.Tracks[id].Label, t.Tracks[id].Age)
		delete(t.Tracks, id)
	}

	return tracked, evicted
}

// associate finds the best live track for a detection: same label, IoU
// strictly above the threshold, not already matched this frame. Among
// candidates the highest IoU wins; equal IoU resolves to the lowest track
// ID so association is deterministic regardless of map iteration order.
func (t *Tracker) associate(det Detection, matched map[int64]bool) (int64, bool) {
	bestID := int64(0)
	bestIoU := t.Config.MatchIoUThreshold
	found := false

	for id, track := range t.Tracks {
		if matched[id] || track.Label != det.Label {
			continue
		}
		iou := IoU(det.Box, track.Box)
		if iou > bestIoU || (found && iou == bestIoU && id < bestID) {
			bestIoU = iou
			bestID = id
			found = true
		}
	}

	return bestID, found
}

// initTrack opens a new track for an unmatched detection.
func (t *Tracker) initTrack(det Detection, now time.Time) *Track {
	track := &Track{
		TrackID:    t.NextTrackID,
		Label:      det.Label,
		Box:        det.Box,
		Confidence: det.Confidence,
		LastSeen:   now,
		Age:        0,
	}
	t.NextTrackID++
	t.Tracks[track.TrackID] = track
	Tracef("[Tracker] New track %d for %q", track.TrackID, track.Label)
	return track
}

// Reset drops every live track. Track IDs keep counting up so identities
// from before the reset are never reused.
func (t *Tracker) Reset() []int64 {
	ids := make([]int64, 0, len(t.Tracks))
	for id := range t.Tracks {
		ids = append(ids, id)
	}
	t.Tracks = make(map[int64]*Track)
	return ids
}

// LiveTrackCount returns the number of live tracks.
func (t *Tracker) LiveTrackCount() int {
	return len(t.Tracks)
}

// GetTrack returns a track by ID, or nil if not found.
func (t *Tracker) GetTrack(id int64) *Track {
	return t.Tracks[id]
}
