package vision

import "time"

// ZoneState is a track's membership state in the counting zone.
type ZoneState string

const (
	// ZoneOutside: the track's centroid is outside the zone band.
	ZoneOutside ZoneState = "outside"
	// ZoneInsideCounted: inside the band and a count was emitted on entry.
	ZoneInsideCounted ZoneState = "inside_counted"
	// ZoneInsideUncounted: inside the band but counting was disabled at
	// entry time; exits without side effects.
	ZoneInsideUncounted ZoneState = "inside_uncounted"
)

// CountDecision is the per-frame output of the counter for one track.
type CountDecision int

const (
	// DecisionNone: no count this frame.
	DecisionNone CountDecision = iota
	// DecisionCountNow: the track made a fresh zone entry; count one unit.
	DecisionCountNow
)

// CountEvent is emitted once per fresh zone entry and consumed by the
// external cart/ledger collaborator. The counter never touches price or
// cart totals.
type CountEvent struct {
	TrackID   int64     `json:"track_id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// CounterConfig holds configuration for the crossing-event counter.
type CounterConfig struct {
	// CountingEnabled gates count emission. A track entering the zone
	// while counting is disabled becomes InsideUncounted and never emits,
	// even if counting is re-enabled mid-dwell.
	CountingEnabled bool

	// ResetOnExit selects the re-entry policy. True (the stock policy)
	// clears counted-state when a track leaves the zone, so an item
	// removed and re-presented counts again. False keeps counted-state
	// until the track is evicted, trading re-presentation undercounts for
	// immunity to jitter at the zone boundary.
	ResetOnExit bool
}

// DefaultCounterConfig returns the stock counting policy.
func DefaultCounterConfig() CounterConfig {
	return CounterConfig{
		CountingEnabled: true,
		ResetOnExit:     true,
	}
}

// membership is the per-track zone state owned by the counter. The label is
// pinned at first observation so corruption from an external mutation is
// detectable.
type membership struct {
	label        string
	state        ZoneState
	firstSeen    time.Time
	dwellFrames  int // Frames spent inside the zone during the current dwell
	totalCounted int
}

// ZoneCounter maintains per-track zone membership and emits a count event
// exactly once per fresh zone entry. State is keyed by track ID and removed
// when the identity tracker evicts the track; an evicted object that
// reappears gets a new track ID and starts fresh at Outside.
//
// Like the tracker, the counter holds no locks; a single frame tick owns
// all mutation.
type ZoneCounter struct {
	Config CounterConfig
	states map[int64]*membership
}

// NewZoneCounter creates a counter with the given policy.
func NewZoneCounter(config CounterConfig) *ZoneCounter {
	return &ZoneCounter{
		Config: config,
		states: make(map[int64]*membership),
	}
}

// Process advances one track's membership state machine for the current
// frame and returns whether this frame is a fresh countable zone entry.
// It is called once per frame per currently visible track; tracks unseen
// this frame are not processed here — their state decays only through
// eviction.
//
// If the stored state carries a different label than the track now
// reports, the entry is treated as corrupted and reset to a fresh Outside
// observation rather than propagated.
func (zc *ZoneCounter) Process(trackID int64, label string, inZone bool, now time.Time) CountDecision {
	m, ok := zc.states[trackID]
	if ok && m.label != label {
		Opsf("[Counter] Track %d label changed %q -> %q, resetting membership", trackID, m.label, label)
		ok = false
	}
	if !ok {
		m = &membership{label: label, state: ZoneOutside, firstSeen: now}
		zc.states[trackID] = m
	}

	decision := DecisionNone

	switch m.state {
	case ZoneOutside:
		if inZone {
			if zc.Config.CountingEnabled {
				m.state = ZoneInsideCounted
				m.totalCounted++
				decision = DecisionCountNow
			} else {
				m.state = ZoneInsideUncounted
			}
			m.dwellFrames = 1
		}

	case ZoneInsideCounted:
		if inZone {
			m.dwellFrames++
		} else if zc.Config.ResetOnExit {
			m.state = ZoneOutside
			m.dwellFrames = 0
		}
		// With ResetOnExit disabled the track stays InsideCounted after
		// leaving, so boundary jitter cannot re-trigger a count.

	case ZoneInsideUncounted:
		if inZone {
			m.dwellFrames++
		} else {
			m.state = ZoneOutside
			m.dwellFrames = 0
		}
	}

	return decision
}

// Evict releases the membership state for a track removed by the identity
// tracker, so stale counted-state never leaks onto a later track that
// happens to occupy the same pixels.
func (zc *ZoneCounter) Evict(trackID int64) {
	delete(zc.states, trackID)
}

// Reset clears all membership state, typically at scan-session start.
func (zc *ZoneCounter) Reset() {
	zc.states = make(map[int64]*membership)
}

// State returns the current membership state for a track, or ZoneOutside
// if the track has never been observed.
func (zc *ZoneCounter) State(trackID int64) ZoneState {
	if m, ok := zc.states[trackID]; ok {
		return m.state
	}
	return ZoneOutside
}

// DwellFrames returns the number of consecutive frames the track has spent
// inside the zone during its current dwell, or 0 if it is outside.
func (zc *ZoneCounter) DwellFrames(trackID int64) int {
	if m, ok := zc.states[trackID]; ok {
		return m.dwellFrames
	}
	return 0
}

// TrackedCount returns the number of tracks with live membership state.
func (zc *ZoneCounter) TrackedCount() int {
	return len(zc.states)
}
