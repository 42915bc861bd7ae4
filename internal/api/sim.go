package api

import "github.com/checklane/kiosk.vision/internal/vision"

// simUpdateFromRequest converts the optional request fields into the
// partial update the simulation source applies.
func simUpdateFromRequest(label *string, x, y, width, height *float64) vision.SimObjectUpdate {
	return vision.SimObjectUpdate{
		Label:  label,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}
