package vision

import (
	"math"
	"testing"
)

func TestBoxValid(t *testing.T) {
	cases := []struct {
		name string
		box  Box
		want bool
	}{
		{"well formed", Box{0, 0, 10, 10}, true},
		{"zero width", Box{5, 0, 5, 10}, false},
		{"zero height", Box{0, 5, 10, 5}, false},
		{"inverted x", Box{10, 0, 0, 10}, false},
		{"inverted y", Box{0, 10, 10, 0}, false},
		{"negative coords ok", Box{-10, -10, -5, -5}, true},
	}

	for _, tc := range cases {
		if got := tc.box.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBoxCentroid(t *testing.T) {
	cx, cy := Box{0, 0, 10, 20}.Centroid()
	if cx != 5 || cy != 10 {
		t.Errorf("expected centroid (5,10), got (%g,%g)", cx, cy)
	}
}

func TestIoUIdenticalBoxes(t *testing.T) {
	b := Box{3, 4, 13, 24}
	if got := IoU(b, b); got != 1.0 {
		t.Errorf("expected IoU 1.0 for identical boxes, got %g", got)
	}
}

func TestIoUDisjointBoxes(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{20, 20, 30, 30}
	if got := IoU(a, b); got != 0.0 {
		t.Errorf("expected IoU 0.0 for disjoint boxes, got %g", got)
	}

	// Touching edges have zero intersection area.
	c := Box{10, 0, 20, 10}
	if got := IoU(a, c); got != 0.0 {
		t.Errorf("expected IoU 0.0 for edge-touching boxes, got %g", got)
	}
}

func TestIoUPartialOverlap(t *testing.T) {
	// Boxes (0,0,10,10) and (5,5,15,15): intersection 25, union 175.
	a := Box{0, 0, 10, 10}
	b := Box{5, 5, 15, 15}

	want := 25.0 / 175.0
	if got := IoU(a, b); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected IoU %g, got %g", want, got)
	}

	// IoU is symmetric.
	if IoU(a, b) != IoU(b, a) {
		t.Error("expected IoU to be symmetric")
	}
}

func TestIoUDegenerateBox(t *testing.T) {
	a := Box{0, 0, 10, 10}
	degenerate := Box{5, 5, 5, 5}
	if got := IoU(a, degenerate); got != 0.0 {
		t.Errorf("expected IoU 0.0 against degenerate box, got %g", got)
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Cola":    "cola",
		" JUICE ": "juice",
		"chips":   "chips",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDetectionNormalizes(t *testing.T) {
	det := NewDetection("  Cola", 0.9, Box{0, 0, 10, 10})
	if det.Label != "cola" {
		t.Errorf("expected normalised label %q, got %q", "cola", det.Label)
	}
}
