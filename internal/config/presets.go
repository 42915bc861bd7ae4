package config

import "fmt"

// Presets are named tuning bundles an operator can apply in one call
// instead of tweaking individual parameters. Each preset is a partial
// config; applying one merges it over the current configuration.
var presets = map[string]*TuningConfig{
	// Stock lane geometry for a checkout counter camera: bagging area on
	// the right fifth of the frame.
	"retail": {
		ZoneOrientation:    ptrString("vertical"),
		ZoneStartPercent:   ptrFloat64(70),
		ZoneWidthPercent:   ptrFloat64(20),
		MatchIoUThreshold:  ptrFloat64(0.3),
		MaxTrackAge:        ptrInt(30),
		DetectionThreshold: ptrFloat64(0.5),
		CountingEnabled:    ptrBool(true),
		ResetOnExit:        ptrBool(true),
		ShowAllDetections:  ptrBool(false),
	},

	// Trade-show demo: wide centred zone, forgiving thresholds so hand
	// jitter does not drop tracks.
	"demo": {
		ZoneOrientation:    ptrString("vertical"),
		ZoneStartPercent:   ptrFloat64(30),
		ZoneWidthPercent:   ptrFloat64(40),
		MatchIoUThreshold:  ptrFloat64(0.2),
		MaxTrackAge:        ptrInt(60),
		DetectionThreshold: ptrFloat64(0.3),
		CountingEnabled:    ptrBool(true),
		ResetOnExit:        ptrBool(true),
		ShowAllDetections:  ptrBool(true),
	},

	// Overlay everything, count nothing. For aiming the camera and
	// checking zone placement without touching the cart.
	"debug": {
		DetectionThreshold: ptrFloat64(0.1),
		CountingEnabled:    ptrBool(false),
		ShowAllDetections:  ptrBool(true),
	},
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	return []string{"retail", "demo", "debug"}
}

// Preset returns the partial config for the named preset.
func Preset(name string) (*TuningConfig, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return p, nil
}
