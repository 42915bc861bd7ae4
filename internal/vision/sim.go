package vision

import (
	"fmt"
	"sort"
)

// SimObject is an operator-placed virtual object used to exercise the
// tracking and counting pipeline without a live camera or model. Position
// and size are in pixels; the box is clamped to the frame at detection
// time, not here, so an object can be parked off-frame.
type SimObject struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SimObjectUpdate carries a partial update for a simulated object. Nil
// fields are left unchanged.
type SimObjectUpdate struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Label  *string  `json:"label,omitempty"`
}

// SimSource synthesises deterministic detections from operator-placed
// virtual objects. It implements Source and feeds the same pipeline as
// real detections, with confidence fixed at 1.0.
//
// Like the rest of the core, SimSource is not safe for concurrent use;
// the hosting lane serialises operator calls against frame ticks.
type SimSource struct {
	Catalog *Catalog // Recognised labels; objects outside it yield no detections

	objects map[string]*SimObject
	nextID  int64
}

// NewSimSource creates an empty simulation source over the given catalog.
func NewSimSource(catalog *Catalog) *SimSource {
	return &SimSource{
		Catalog: catalog,
		objects: make(map[string]*SimObject),
		nextID:  1,
	}
}

// Add places a new virtual object and returns its identifier.
func (s *SimSource) Add(label string, x, y, width, height float64) string {
	id := fmt.Sprintf("sim_%d", s.nextID)
	s.nextID++
	s.objects[id] = &SimObject{
		ID:     id,
		Label:  NormalizeLabel(label),
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
	Diagf("[Sim] Added object %s (%q) at (%.0f,%.0f) %gx%g", id, label, x, y, width, height)
	return id
}

// Update applies a partial update to an object. Returns false if the
// identifier is unknown.
func (s *SimSource) Update(id string, update SimObjectUpdate) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	if update.X != nil {
		obj.X = *update.X
	}
	if update.Y != nil {
		obj.Y = *update.Y
	}
	if update.Width != nil {
		obj.Width = *update.Width
	}
	if update.Height != nil {
		obj.Height = *update.Height
	}
	if update.Label != nil {
		obj.Label = NormalizeLabel(*update.Label)
	}
	return true
}

// Remove deletes an object. Returns false if the identifier is unknown.
func (s *SimSource) Remove(id string) bool {
	if _, ok := s.objects[id]; !ok {
		return false
	}
	delete(s.objects, id)
	return true
}

// Clear removes every virtual object.
func (s *SimSource) Clear() {
	s.objects = make(map[string]*SimObject)
}

// Objects returns the current virtual objects sorted by identifier.
func (s *SimSource) Objects() []SimObject {
	out := make([]SimObject, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Detections yields one detection per virtual object whose label is in the
// recognised catalog, with the box clamped to the frame bounds and
// confidence fixed at 1.0. Objects entirely outside the frame produce a
// degenerate box after clamping and are skipped. Iteration is ordered by
// identifier so simulated frames are deterministic.
func (s *SimSource) Detections(frameWidth, frameHeight int) []Detection {
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Detection, 0, len(ids))
	for _, id := range ids {
		obj := s.objects[id]
		if s.Catalog != nil && !s.Catalog.Has(obj.Label) {
			continue
		}
		box := Box{
			X1: max(0, obj.X),
			Y1: max(0, obj.Y),
			X2: min(float64(frameWidth), obj.X+obj.Width),
			Y2: min(float64(frameHeight), obj.Y+obj.Height),
		}
		if !box.Valid() {
			continue
		}
		out = append(out, Detection{
			Label:      obj.Label,
			Confidence: 1.0,
			Box:        box,
		})
	}
	return out
}
