package vision

import "time"

// Pipeline wires one frame tick through the core stages: detection
// filtering, identity tracking, zone classification, and crossing-event
// counting. All mutable state lives in the tracker and counter it owns;
// the pipeline itself adds only plumbing.
//
// No stage blocks or holds locks. Concurrent ProcessFrame calls on the
// same pipeline are not supported; Lane provides the mutual exclusion for
// hosts that need it.
type Pipeline struct {
	Tracker  *Tracker
	Counter  *ZoneCounter
	Filter   DetectionFilter
	Geometry ZoneGeometry

	// CountSink receives each emitted count event, typically the cart
	// ledger. Optional.
	CountSink func(CountEvent)
	// EvictionSink receives the ID of each evicted track so collaborators
	// can release UI state. Optional.
	EvictionSink func(trackID int64)

	// Stats, when non-nil, accumulates session telemetry.
	Stats *SessionStats
}

// NewPipeline builds a pipeline with fresh tracker and counter state.
func NewPipeline(trackerCfg TrackerConfig, counterCfg CounterConfig, filter DetectionFilter, geometry ZoneGeometry) *Pipeline {
	return &Pipeline{
		Tracker:  NewTracker(trackerCfg),
		Counter:  NewZoneCounter(counterCfg),
		Filter:   filter,
		Geometry: geometry,
	}
}

// ProcessFrame runs one frame tick: filter the raw detections, update
// track identities, classify each tracked detection against the zone, and
// advance the counter per track. Returns the annotated detections for
// overlay collaborators. Count events and evictions are delivered to the
// sinks during the call.
func (p *Pipeline) ProcessFrame(raw []Detection, frameWidth, frameHeight int, now time.Time) []TrackedDetection {
	filtered := p.Filter.Filter(raw)
	tracked, evicted := p.Tracker.Update(filtered, now)

	// Cascade evictions into counter state before classifying the frame so
	// a reused map slot can never inherit stale membership.
	for _, id := range evicted {
		if p.Stats != nil {
			p.Stats.RecordDwell(p.Counter.DwellFrames(id))
		}
		p.Counter.Evict(id)
		if p.EvictionSink != nil {
			p.EvictionSink(id)
		}
	}

	for i := range tracked {
		td := &tracked[i]
		cx, cy := td.Box.Centroid()
		td.InZone = p.Geometry.Contains(cx, cy, frameWidth, frameHeight)

		wasDwelling := p.Counter.DwellFrames(td.TrackID)
		decision := p.Counter.Process(td.TrackID, td.Label, td.InZone, now)

		// A dwell completes when the counter clears it on exit. Under the
		// counted-until-eviction policy the dwell is recorded at eviction
		// instead.
		if wasDwelling > 0 && p.Counter.DwellFrames(td.TrackID) == 0 && p.Stats != nil {
			p.Stats.RecordDwell(wasDwelling)
		}

		if decision == DecisionCountNow {
			event := CountEvent{TrackID: td.TrackID, Label: td.Label, Timestamp: now}
			Diagf("[Pipeline] Count: %q entered zone as track %d", event.Label, event.TrackID)
			if p.Stats != nil {
				p.Stats.RecordCount(event)
			}
			if p.CountSink != nil {
				p.CountSink(event)
			}
		}
	}

	if p.Stats != nil {
		p.Stats.RecordFrame()
	}
	Tracef("[Pipeline] Frame: %d raw, %d filtered, %d tracked, %d evicted",
		len(raw), len(filtered), len(tracked), len(evicted))

	return tracked
}

// Reset clears tracker and counter state for a new scan session. Track IDs
// continue from where they left off.
func (p *Pipeline) Reset(now time.Time) {
	p.Tracker.Reset()
	p.Counter.Reset()
	if p.Stats != nil {
		p.Stats = NewSessionStats(now)
	}
}
