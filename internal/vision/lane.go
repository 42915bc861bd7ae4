package vision

import (
	"fmt"
	"sync"
	"time"
)

// LaneSettings is the validated, frame-coherent configuration for one
// kiosk lane. It is applied atomically between ticks: an invalid settings
// struct is rejected whole and the previous settings stay in effect.
type LaneSettings struct {
	Geometry           ZoneGeometry
	MatchIoUThreshold  float64
	MaxTrackAge        int
	DetectionThreshold float64
	CountingEnabled    bool
	ResetOnExit        bool
	ShowAllDetections  bool
}

// DefaultLaneSettings returns stock lane settings matching the default
// tracker, counter, and zone configurations.
func DefaultLaneSettings() LaneSettings {
	return LaneSettings{
		Geometry:           DefaultZoneGeometry(),
		MatchIoUThreshold:  DefaultMatchIoUThreshold,
		MaxTrackAge:        DefaultMaxAge,
		DetectionThreshold: 0.5,
		CountingEnabled:    true,
		ResetOnExit:        true,
	}
}

// Validate checks the settings for range errors.
func (s LaneSettings) Validate() error {
	if err := s.Geometry.Validate(); err != nil {
		return err
	}
	if s.MatchIoUThreshold <= 0 || s.MatchIoUThreshold >= 1 {
		return fmt.Errorf("match IoU threshold must be within (0,1), got %g", s.MatchIoUThreshold)
	}
	if s.MaxTrackAge < 1 {
		return fmt.Errorf("max track age must be >= 1, got %d", s.MaxTrackAge)
	}
	if s.DetectionThreshold < 0 || s.DetectionThreshold >= 1 {
		return fmt.Errorf("detection threshold must be within [0,1), got %g", s.DetectionThreshold)
	}
	return nil
}

// Lane hosts one camera lane's pipeline behind a mutex so frame ticks,
// operator calls, and config replacement serialise against each other.
// Multiple independent lanes can run in the same process; no state is
// shared between them.
type Lane struct {
	mu       sync.Mutex
	pipeline *Pipeline
	source   Source
	sim      *SimSource
	catalog  *Catalog
	settings LaneSettings
	scanning bool
	simMode  bool
}

// NewLane builds a lane over the given catalog with default settings. The
// lane starts with a simulation source attached and simulation mode off;
// hosts with a live detector call SetSource.
func NewLane(catalog *Catalog) *Lane {
	settings := DefaultLaneSettings()
	lane := &Lane{
		catalog:  catalog,
		settings: settings,
		sim:      NewSimSource(catalog),
	}
	lane.pipeline = NewPipeline(
		TrackerConfig{MatchIoUThreshold: settings.MatchIoUThreshold, MaxAge: settings.MaxTrackAge},
		CounterConfig{CountingEnabled: settings.CountingEnabled, ResetOnExit: settings.ResetOnExit},
		DetectionFilter{Threshold: settings.DetectionThreshold, Catalog: catalog},
		settings.Geometry,
	)
	lane.pipeline.Stats = NewSessionStats(time.Now())
	return lane
}

// SetSource attaches the live detection source used when simulation mode
// is off.
func (l *Lane) SetSource(src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = src
}

// SetSinks wires the count and eviction sinks. Sinks are invoked during
// Tick while the lane lock is held; they must not call back into the lane.
func (l *Lane) SetSinks(count func(CountEvent), eviction func(int64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pipeline.CountSink = count
	l.pipeline.EvictionSink = eviction
}

// Apply validates and installs new settings atomically. On error the
// previous settings remain in effect and the error describes the first
// rejected field.
func (l *Lane) Apply(settings LaneSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = settings
	l.pipeline.Geometry = settings.Geometry
	l.pipeline.Filter.Threshold = settings.DetectionThreshold
	l.pipeline.Filter.AllLabels = settings.ShowAllDetections
	l.pipeline.Tracker.Config.MatchIoUThreshold = settings.MatchIoUThreshold
	l.pipeline.Tracker.Config.MaxAge = settings.MaxTrackAge
	l.pipeline.Counter.Config.CountingEnabled = settings.CountingEnabled
	l.pipeline.Counter.Config.ResetOnExit = settings.ResetOnExit
	Diagf("[Lane] Settings applied: zone %s %g%%+%g%%, iou %.2f, max age %d",
		settings.Geometry.Orientation, settings.Geometry.StartPercent,
		settings.Geometry.WidthPercent, settings.MatchIoUThreshold, settings.MaxTrackAge)
	return nil
}

// Settings returns the current lane settings.
func (l *Lane) Settings() LaneSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// ReplaceCatalog swaps the countable label set wholesale.
func (l *Lane) ReplaceCatalog(labels []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.catalog = NewCatalog(labels)
	l.pipeline.Filter.Catalog = l.catalog
	l.sim.Catalog = l.catalog
}

// StartScan begins a scan session: tracker, counter, and session stats
// start fresh. Track IDs are not reset.
func (l *Lane) StartScan(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scanning = true
	l.pipeline.Reset(now)
	Opsf("[Lane] Scan session started")
}

// StopScan ends the scan session. Pipeline state is retained for
// inspection until the next StartScan.
func (l *Lane) StopScan() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scanning = false
	Opsf("[Lane] Scan session stopped")
}

// Scanning reports whether a scan session is active.
func (l *Lane) Scanning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scanning
}

// SetSimulationMode toggles between the simulation source and the live
// source. Leaving simulation mode clears the virtual objects, matching
// operator expectations from the original kiosk.
func (l *Lane) SetSimulationMode(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.simMode = enabled
	if !enabled {
		l.sim.Clear()
	}
}

// SimulationMode reports whether the simulation source is active.
func (l *Lane) SimulationMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.simMode
}

// Sim exposes the lane's simulation source for operator object CRUD. All
// SimSource calls must go through the returned handle's owner lock; use
// the Lane helpers below from concurrent contexts.
func (l *Lane) Sim() *SimSource {
	return l.sim
}

// AddSimObject places a virtual object under the lane lock.
func (l *Lane) AddSimObject(label string, x, y, w, h float64) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Add(label, x, y, w, h)
}

// UpdateSimObject applies a partial update under the lane lock.
func (l *Lane) UpdateSimObject(id string, update SimObjectUpdate) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Update(id, update)
}

// RemoveSimObject removes a virtual object under the lane lock and
// releases any membership state tied to it indirectly via eviction on the
// next tick.
func (l *Lane) RemoveSimObject(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Remove(id)
}

// SimObjects lists the virtual objects under the lane lock.
func (l *Lane) SimObjects() []SimObject {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Objects()
}

// Stats returns a snapshot of the session statistics.
func (l *Lane) Stats() (total int, byLabel map[string]int, dwell DwellSummary, intervals DwellSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.pipeline.Stats
	byLabel = make(map[string]int, len(s.CountsByLabel))
	for k, v := range s.CountsByLabel {
		byLabel[k] = v
	}
	return s.TotalCount(), byLabel, s.DwellSummary(), s.CountIntervalSummary()
}

// Tick runs one frame through the pipeline if a scan session is active.
// The active source (simulation or live) supplies the detections. Returns
// the annotated detections, or nil when not scanning or no source is
// attached.
func (l *Lane) Tick(frameWidth, frameHeight int, now time.Time) []TrackedDetection {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.scanning {
		return nil
	}

	src := l.source
	if l.simMode {
		src = l.sim
	}
	if src == nil {
		return nil
	}

	return l.pipeline.ProcessFrame(src.Detections(frameWidth, frameHeight), frameWidth, frameHeight, now)
}
