package vision

import "sort"

// Catalog is the set of countable product labels. Labels are stored
// case-normalised; the catalog is replaced wholesale when products change
// and is never mutated mid-frame.
type Catalog struct {
	labels map[string]struct{}
}

// NewCatalog builds a catalog from a label list.
func NewCatalog(labels []string) *Catalog {
	c := &Catalog{labels: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		c.labels[NormalizeLabel(l)] = struct{}{}
	}
	return c
}

// Has reports whether a (normalised) label is a countable product.
func (c *Catalog) Has(label string) bool {
	if c == nil {
		return false
	}
	_, ok := c.labels[label]
	return ok
}

// Labels returns the catalog labels in sorted order.
func (c *Catalog) Labels() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.labels))
	for l := range c.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of catalog labels.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.labels)
}

// Source produces one frame's worth of detections. The live detection
// model adapter and the simulation source both satisfy this; the pipeline
// does not care which is plugged in.
type Source interface {
	// Detections returns the raw detection list for the current frame.
	// Implementations must return fresh slices each call.
	Detections(frameWidth, frameHeight int) []Detection
}

// DetectionFilter is the detection adapter's filtering stage: it drops
// detections below the confidence threshold, degenerate boxes, and labels
// outside the catalog (unless AllLabels debug mode is on). Labels are
// case-normalised on the way through.
type DetectionFilter struct {
	Threshold float64  // Minimum confidence (exclusive)
	Catalog   *Catalog // Countable labels; nil admits nothing unless AllLabels
	AllLabels bool     // Debug mode: pass every label through
}

// Filter returns the detections that survive thresholding and catalog
// membership. The input is not modified.
func (f DetectionFilter) Filter(detections []Detection) []Detection {
	out := make([]Detection, 0, len(detections))
	for _, det := range detections {
		if det.Confidence <= f.Threshold {
			continue
		}
		if !det.Box.Valid() {
			Tracef("[Filter] Dropping malformed box for %q", det.Label)
			continue
		}
		det.Label = NormalizeLabel(det.Label)
		if !f.AllLabels && !f.Catalog.Has(det.Label) {
			continue
		}
		out = append(out, det)
	}
	return out
}
