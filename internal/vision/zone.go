package vision

import "fmt"

// ZoneOrientation selects which frame axis the counting zone spans.
type ZoneOrientation string

const (
	// ZoneVertical is a full-height band at a horizontal offset; centroid
	// X decides membership.
	ZoneVertical ZoneOrientation = "vertical"
	// ZoneHorizontal is a full-width band at a vertical offset; centroid
	// Y decides membership.
	ZoneHorizontal ZoneOrientation = "horizontal"
)

// ZoneGeometry describes the counting zone as percentages of the frame so
// the zone survives resolution changes. It is process-wide configuration:
// replaced wholesale on config update, never mutated by the classifier.
type ZoneGeometry struct {
	Orientation  ZoneOrientation `json:"orientation"`
	StartPercent float64         `json:"start_percent"`
	WidthPercent float64         `json:"width_percent"`
}

// DefaultZoneGeometry returns the stock zone: a vertical band covering
// 70%–90% of the frame width.
func DefaultZoneGeometry() ZoneGeometry {
	return ZoneGeometry{
		Orientation:  ZoneVertical,
		StartPercent: 70,
		WidthPercent: 20,
	}
}

// Validate checks the geometry at configuration-apply time. The classifier
// itself never clamps: out-of-range percentages are rejected here so the
// prior geometry stays in effect.
func (g ZoneGeometry) Validate() error {
	switch g.Orientation {
	case ZoneVertical, ZoneHorizontal:
	default:
		return fmt.Errorf("zone orientation must be %q or %q, got %q", ZoneVertical, ZoneHorizontal, g.Orientation)
	}
	if g.StartPercent < 0 || g.StartPercent > 100 {
		return fmt.Errorf("zone start must be within [0,100], got %g", g.StartPercent)
	}
	if g.WidthPercent < 0 || g.WidthPercent > 100 {
		return fmt.Errorf("zone width must be within [0,100], got %g", g.WidthPercent)
	}
	if g.StartPercent+g.WidthPercent > 100 {
		return fmt.Errorf("zone start+width must not exceed 100, got %g", g.StartPercent+g.WidthPercent)
	}
	return nil
}

// Contains classifies a centroid against the zone band for the given frame
// dimensions. The band is half-open: a centroid exactly on the start edge
// is inside, one exactly on the end edge is outside. Pure function, no
// state.
func (g ZoneGeometry) Contains(cx, cy float64, frameWidth, frameHeight int) bool {
	var coord, extent float64
	switch g.Orientation {
	case ZoneHorizontal:
		coord = cy
		extent = float64(frameHeight)
	default:
		coord = cx
		extent = float64(frameWidth)
	}

	lo := extent * g.StartPercent / 100
	hi := extent * (g.StartPercent + g.WidthPercent) / 100
	return coord >= lo && coord < hi
}
