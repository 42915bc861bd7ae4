package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/checklane/kiosk.vision/internal/vision"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for lane tuning
// parameters. The schema matches the /api/lane/config endpoint so the
// same JSON can be used for both startup configuration and runtime
// updates.
type TuningConfig struct {
	// Zone params
	ZoneOrientation  *string  `json:"zone_orientation,omitempty"` // "vertical" or "horizontal"
	ZoneStartPercent *float64 `json:"zone_start_percent,omitempty"`
	ZoneWidthPercent *float64 `json:"zone_width_percent,omitempty"`

	// Tracker params
	MatchIoUThreshold *float64 `json:"match_iou_threshold,omitempty"`
	MaxTrackAge       *int     `json:"max_track_age,omitempty"`

	// Detection params
	DetectionThreshold *float64 `json:"detection_threshold,omitempty"`
	ShowAllDetections  *bool    `json:"show_all_detections,omitempty"`

	// Counter params
	CountingEnabled *bool `json:"counting_enabled,omitempty"`
	ResetOnExit     *bool `json:"reset_on_exit,omitempty"`

	// Frame loop params
	FrameRate *int `json:"frame_rate,omitempty"`

	// Preset names a tuning bundle to use as the base for this config.
	// Explicit fields in the same file override the preset's values.
	Preset *string `json:"preset,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// A named preset supplies the base values; the file's explicit
	// fields win over it.
	if cfg.Preset != nil {
		base, err := Preset(*cfg.Preset)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = base.Merge(cfg)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid. A nil field
// means "use the default" and always passes on its own; the zone
// overflow check runs on the resolved values.
func (c *TuningConfig) Validate() error {
	if c.ZoneOrientation != nil {
		switch *c.ZoneOrientation {
		case string(vision.ZoneVertical), string(vision.ZoneHorizontal):
		default:
			return fmt.Errorf("zone_orientation must be %q or %q, got %q",
				vision.ZoneVertical, vision.ZoneHorizontal, *c.ZoneOrientation)
		}
	}

	if c.ZoneStartPercent != nil {
		if *c.ZoneStartPercent < 0 || *c.ZoneStartPercent > 100 {
			return fmt.Errorf("zone_start_percent must be between 0 and 100, got %g", *c.ZoneStartPercent)
		}
	}
	if c.ZoneWidthPercent != nil {
		if *c.ZoneWidthPercent < 0 || *c.ZoneWidthPercent > 100 {
			return fmt.Errorf("zone_width_percent must be between 0 and 100, got %g", *c.ZoneWidthPercent)
		}
	}
	if c.GetZoneStartPercent()+c.GetZoneWidthPercent() > 100 {
		return fmt.Errorf("zone must fit within the frame: start %g%% + width %g%% exceeds 100%%",
			c.GetZoneStartPercent(), c.GetZoneWidthPercent())
	}

	if c.MatchIoUThreshold != nil {
		if *c.MatchIoUThreshold <= 0 || *c.MatchIoUThreshold >= 1 {
			return fmt.Errorf("match_iou_threshold must be within (0,1), got %g", *c.MatchIoUThreshold)
		}
	}
	if c.MaxTrackAge != nil {
		if *c.MaxTrackAge < 1 {
			return fmt.Errorf("max_track_age must be >= 1, got %d", *c.MaxTrackAge)
		}
	}
	if c.DetectionThreshold != nil {
		if *c.DetectionThreshold < 0 || *c.DetectionThreshold >= 1 {
			return fmt.Errorf("detection_threshold must be within [0,1), got %g", *c.DetectionThreshold)
		}
	}
	if c.FrameRate != nil {
		if *c.FrameRate < 1 || *c.FrameRate > 120 {
			return fmt.Errorf("frame_rate must be between 1 and 120, got %d", *c.FrameRate)
		}
	}
	if c.Preset != nil {
		if _, err := Preset(*c.Preset); err != nil {
			return err
		}
	}

	return nil
}

// GetZoneOrientation returns the zone_orientation value or the default.
func (c *TuningConfig) GetZoneOrientation() vision.ZoneOrientation {
	if c.ZoneOrientation == nil {
		return vision.ZoneVertical // default
	}
	return vision.ZoneOrientation(*c.ZoneOrientation)
}

// GetZoneStartPercent returns the zone_start_percent value or the default.
func (c *TuningConfig) GetZoneStartPercent() float64 {
	if c.ZoneStartPercent == nil {
		return 70 // default
	}
	return *c.ZoneStartPercent
}

// GetZoneWidthPercent returns the zone_width_percent value or the default.
func (c *TuningConfig) GetZoneWidthPercent() float64 {
	if c.ZoneWidthPercent == nil {
		return 20 // default
	}
	return *c.ZoneWidthPercent
}

// GetMatchIoUThreshold returns the match_iou_threshold value or the default.
func (c *TuningConfig) GetMatchIoUThreshold() float64 {
	if c.MatchIoUThreshold == nil {
		return vision.DefaultMatchIoUThreshold
	}
	return *c.MatchIoUThreshold
}

// GetMaxTrackAge returns the max_track_age value or the default.
func (c *TuningConfig) GetMaxTrackAge() int {
	if c.MaxTrackAge == nil {
		return vision.DefaultMaxAge
	}
	return *c.MaxTrackAge
}

// GetDetectionThreshold returns the detection_threshold value or the default.
func (c *TuningConfig) GetDetectionThreshold() float64 {
	if c.DetectionThreshold == nil {
		return 0.5 // default
	}
	return *c.DetectionThreshold
}

// GetShowAllDetections returns the show_all_detections value or the default.
func (c *TuningConfig) GetShowAllDetections() bool {
	if c.ShowAllDetections == nil {
		return false // default: overlay catalog items only
	}
	return *c.ShowAllDetections
}

// GetCountingEnabled returns the counting_enabled value or the default.
func (c *TuningConfig) GetCountingEnabled() bool {
	if c.CountingEnabled == nil {
		return true // default
	}
	return *c.CountingEnabled
}

// GetResetOnExit returns the reset_on_exit value or the default.
func (c *TuningConfig) GetResetOnExit() bool {
	if c.ResetOnExit == nil {
		return true // default: leaving the zone re-arms the count
	}
	return *c.ResetOnExit
}

// GetFrameRate returns the frame_rate value or the default.
func (c *TuningConfig) GetFrameRate() int {
	if c.FrameRate == nil {
		return 30 // default
	}
	return *c.FrameRate
}

// LaneSettings resolves the config into the settings struct the lane
// applies atomically. Unset fields resolve to their defaults.
func (c *TuningConfig) LaneSettings() vision.LaneSettings {
	return vision.LaneSettings{
		Geometry: vision.ZoneGeometry{
			Orientation:  c.GetZoneOrientation(),
			StartPercent: c.GetZoneStartPercent(),
			WidthPercent: c.GetZoneWidthPercent(),
		},
		MatchIoUThreshold:  c.GetMatchIoUThreshold(),
		MaxTrackAge:        c.GetMaxTrackAge(),
		DetectionThreshold: c.GetDetectionThreshold(),
		CountingEnabled:    c.GetCountingEnabled(),
		ResetOnExit:        c.GetResetOnExit(),
		ShowAllDetections:  c.GetShowAllDetections(),
	}
}

// Merge overlays the set fields of other onto a copy of c. Fields left
// nil in other keep c's values, so a partial runtime update never
// disturbs unrelated parameters.
func (c *TuningConfig) Merge(other *TuningConfig) *TuningConfig {
	merged := *c
	if other == nil {
		return &merged
	}
	if other.ZoneOrientation != nil {
		merged.ZoneOrientation = other.ZoneOrientation
	}
	if other.ZoneStartPercent != nil {
		merged.ZoneStartPercent = other.ZoneStartPercent
	}
	if other.ZoneWidthPercent != nil {
		merged.ZoneWidthPercent = other.ZoneWidthPercent
	}
	if other.MatchIoUThreshold != nil {
		merged.MatchIoUThreshold = other.MatchIoUThreshold
	}
	if other.MaxTrackAge != nil {
		merged.MaxTrackAge = other.MaxTrackAge
	}
	if other.DetectionThreshold != nil {
		merged.DetectionThreshold = other.DetectionThreshold
	}
	if other.ShowAllDetections != nil {
		merged.ShowAllDetections = other.ShowAllDetections
	}
	if other.CountingEnabled != nil {
		merged.CountingEnabled = other.CountingEnabled
	}
	if other.ResetOnExit != nil {
		merged.ResetOnExit = other.ResetOnExit
	}
	if other.FrameRate != nil {
		merged.FrameRate = other.FrameRate
	}
	if other.Preset != nil {
		merged.Preset = other.Preset
	}
	return &merged
}
