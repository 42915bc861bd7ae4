package vision

import "strings"

// Box is an axis-aligned bounding box in pixel space. A well-formed box has
// X1 < X2 and Y1 < Y2; anything else is degenerate and is dropped before
// tracking.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Valid reports whether the box has positive width and height.
func (b Box) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Area returns the box area in square pixels. Degenerate boxes return 0.
func (b Box) Area() float64 {
	if !b.Valid() {
		return 0
	}
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Centroid returns the box centre point.
func (b Box) Centroid() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// IoU computes Intersection-over-Union of two boxes: the ratio of the
// overlapping area to the combined area. Disjoint boxes (zero intersection
// width or height) score 0; identical boxes score 1.
func IoU(a, b Box) float64 {
	ix1 := max(a.X1, b.X1)
	iy1 := max(a.Y1, b.Y1)
	ix2 := min(a.X2, b.X2)
	iy2 := min(a.Y2, b.Y2)

	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}

	intersection := (ix2 - ix1) * (iy2 - iy1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Detection is a single per-frame observation from the upstream detector.
// Detections are produced fresh every frame and never mutated; the tracker
// consumes them immediately.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// NewDetection builds a Detection with a case-normalised label.
func NewDetection(label string, confidence float64, box Box) Detection {
	return Detection{
		Label:      NormalizeLabel(label),
		Confidence: confidence,
		Box:        box,
	}
}

// NormalizeLabel lowercases and trims a detector label so "Cola" and
// "cola " resolve to the same catalog entry.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// TrackedDetection is a Detection annotated by the pipeline with a stable
// track identity and its zone membership for this frame. This is the record
// handed to rendering/overlay collaborators.
type TrackedDetection struct {
	Detection
	TrackID int64 `json:"track_id"`
	InZone  bool  `json:"in_zone"`
}
