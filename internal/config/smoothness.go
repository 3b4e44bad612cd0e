package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical smoothness defaults file.
const DefaultConfigPath = "config/smoothness.defaults.json"

// SmoothnessConfig is the flat set of named coefficients that shape camera
// motion. The schema matches the /api/camera/params endpoint so the same JSON
// can be used for both startup configuration and live edits. Nil fields fall
// back to the defaults in Resolve.
type SmoothnessConfig struct {
	// Exploration boundary
	CenterLatitude  *float64 `json:"center_latitude,omitempty"`
	CenterLongitude *float64 `json:"center_longitude,omitempty"`
	BoundaryRadius  *float64 `json:"boundary_radius,omitempty"`

	// Pose bounds
	MinZoom  *float64 `json:"min_zoom,omitempty"`
	MaxZoom  *float64 `json:"max_zoom,omitempty"`
	MinPitch *float64 `json:"min_pitch,omitempty"`
	MaxPitch *float64 `json:"max_pitch,omitempty"`

	// Resting zoom spring
	ZoomStabilize       *bool    `json:"zoom_stabilize,omitempty"`
	RestingZoom         *float64 `json:"resting_zoom,omitempty"`
	ZoomSnapWindow      *float64 `json:"zoom_snap_window,omitempty"`
	ZoomSpring          *float64 `json:"zoom_spring,omitempty"`
	ZoomDamping         *float64 `json:"zoom_damping,omitempty"`
	ZoomVelocityEpsilon *float64 `json:"zoom_velocity_epsilon,omitempty"`

	// Zoom -> pitch curve
	PitchFollowsZoom    *bool    `json:"pitch_follows_zoom,omitempty"`
	PitchCurveZoomLow   *float64 `json:"pitch_curve_zoom_low,omitempty"`
	PitchCurvePitchLow  *float64 `json:"pitch_curve_pitch_low,omitempty"`
	PitchCurveZoomHigh  *float64 `json:"pitch_curve_zoom_high,omitempty"`
	PitchCurvePitchHigh *float64 `json:"pitch_curve_pitch_high,omitempty"`

	// Easing fractions applied per frame
	IdleSmoothing *float64 `json:"idle_smoothing,omitempty"`
	DragSmoothing *float64 `json:"drag_smoothing,omitempty"`

	// Input sensitivities
	RotationSensitivity      *float64 `json:"rotation_sensitivity,omitempty"`
	RotationZoomGain         *float64 `json:"rotation_zoom_gain,omitempty"`
	PitchSensitivity         *float64 `json:"pitch_sensitivity,omitempty"`
	DragZoomSensitivity      *float64 `json:"drag_zoom_sensitivity,omitempty"`
	MaxDragZoomOffset        *float64 `json:"max_drag_zoom_offset,omitempty"`
	DragTranslateSensitivity *float64 `json:"drag_translate_sensitivity,omitempty"`
	TapThreshold             *float64 `json:"tap_threshold,omitempty"` // pixels
	WheelSensitivity         *float64 `json:"wheel_sensitivity,omitempty"`
	PinchSensitivity         *float64 `json:"pinch_sensitivity,omitempty"`

	// Inertia
	InertiaMultiplier            *float64 `json:"inertia_multiplier,omitempty"`
	InertiaDamping               *float64 `json:"inertia_damping,omitempty"`
	InertiaStopThreshold         *float64 `json:"inertia_stop_threshold,omitempty"`
	InertiaPositionStopThreshold *float64 `json:"inertia_position_stop_threshold,omitempty"`
	MaxBearingVelocity           *float64 `json:"max_bearing_velocity,omitempty"`
	MaxPitchVelocity             *float64 `json:"max_pitch_velocity,omitempty"`
	MaxZoomVelocity              *float64 `json:"max_zoom_velocity,omitempty"`
	MaxPositionVelocity          *float64 `json:"max_position_velocity,omitempty"`
	BoundaryWallDamping          *float64 `json:"boundary_wall_damping,omitempty"`

	// Ambient drift
	AmbientEnabled        *bool    `json:"ambient_enabled,omitempty"`
	AmbientStrength       *float64 `json:"ambient_strength,omitempty"`
	AmbientSpeedInfluence *float64 `json:"ambient_speed_influence,omitempty"`
	AmbientDamping        *float64 `json:"ambient_damping,omitempty"`
	AmbientMaxVelocity    *float64 `json:"ambient_max_velocity,omitempty"`
	AmbientBearingScale   *float64 `json:"ambient_bearing_scale,omitempty"`
	AmbientPitchScale     *float64 `json:"ambient_pitch_scale,omitempty"`
	AmbientPositionScale  *float64 `json:"ambient_position_scale,omitempty"`
	AmbientSmoothing      *float64 `json:"ambient_smoothing,omitempty"`

	// Scroll ("pull back") framing
	ScrollSmoothing   *float64 `json:"scroll_smoothing,omitempty"`
	ScrollFarZoom     *float64 `json:"scroll_far_zoom,omitempty"`
	ScrollFarPitch    *float64 `json:"scroll_far_pitch,omitempty"`
	ScrollExitEpsilon *float64 `json:"scroll_exit_epsilon,omitempty"`

	// Scripted transitions
	OverviewZoom    *float64 `json:"overview_zoom,omitempty"`
	OverviewPitch   *float64 `json:"overview_pitch,omitempty"`
	OverviewBearing *float64 `json:"overview_bearing,omitempty"`
	FramingZoom     *float64 `json:"framing_zoom,omitempty"`
	FramingPitch    *float64 `json:"framing_pitch,omitempty"`
	FramingBearing  *float64 `json:"framing_bearing,omitempty"`
	FocusZoom       *float64 `json:"focus_zoom,omitempty"`
	FocusPitch      *float64 `json:"focus_pitch,omitempty"`
	FocusBearing    *float64 `json:"focus_bearing,omitempty"`
	FramingDuration *string  `json:"framing_duration,omitempty"` // duration string like "4s"
	FocusDuration   *string  `json:"focus_duration,omitempty"`
	RevertDuration  *string  `json:"revert_duration,omitempty"`
	TransitionHold  *string  `json:"transition_hold,omitempty"`

	// Frame loop
	FrameRate *float64 `json:"frame_rate,omitempty"`
}

// Smoothness is the resolved, value-typed form of SmoothnessConfig that the
// camera reads during a tick.
type Smoothness struct {
	CenterLatitude  float64
	CenterLongitude float64
	BoundaryRadius  float64

	MinZoom  float64
	MaxZoom  float64
	MinPitch float64
	MaxPitch float64

	ZoomStabilize       bool
	RestingZoom         float64
	ZoomSnapWindow      float64
	ZoomSpring          float64
	ZoomDamping         float64
	ZoomVelocityEpsilon float64

	PitchFollowsZoom    bool
	PitchCurveZoomLow   float64
	PitchCurvePitchLow  float64
	PitchCurveZoomHigh  float64
	PitchCurvePitchHigh float64

	IdleSmoothing float64
	DragSmoothing float64

	RotationSensitivity      float64
	RotationZoomGain         float64
	PitchSensitivity         float64
	DragZoomSensitivity      float64
	MaxDragZoomOffset        float64
	DragTranslateSensitivity float64
	TapThreshold             float64
	WheelSensitivity         float64
	PinchSensitivity         float64

	InertiaMultiplier            float64
	InertiaDamping               float64
	InertiaStopThreshold         float64
	InertiaPositionStopThreshold float64
	MaxBearingVelocity           float64
	MaxPitchVelocity             float64
	MaxZoomVelocity              float64
	MaxPositionVelocity          float64
	BoundaryWallDamping          float64

	AmbientEnabled        bool
	AmbientStrength       float64
	AmbientSpeedInfluence float64
	AmbientDamping        float64
	AmbientMaxVelocity    float64
	AmbientBearingScale   float64
	AmbientPitchScale     float64
	AmbientPositionScale  float64
	AmbientSmoothing      float64

	ScrollSmoothing   float64
	ScrollFarZoom     float64
	ScrollFarPitch    float64
	ScrollExitEpsilon float64

	OverviewZoom    float64
	OverviewPitch   float64
	OverviewBearing float64
	FramingZoom     float64
	FramingPitch    float64
	FramingBearing  float64
	FocusZoom       float64
	FocusPitch      float64
	FocusBearing    float64

	FramingDuration time.Duration
	FocusDuration   time.Duration
	RevertDuration  time.Duration
	TransitionHold  time.Duration

	FrameRate float64
}

// defaults mirrors config/smoothness.defaults.json.
var defaults = Smoothness{
	CenterLatitude:  33.6095571,
	CenterLongitude: -84.8039517,
	BoundaryRadius:  0.03,

	MinZoom:  12,
	MaxZoom:  20,
	MinPitch: 0,
	MaxPitch: 85,

	ZoomStabilize:       true,
	RestingZoom:         16,
	ZoomSnapWindow:      0.08,
	ZoomSpring:          0.015,
	ZoomDamping:         0.85,
	ZoomVelocityEpsilon: 0.002,

	PitchFollowsZoom:    true,
	PitchCurveZoomLow:   13,
	PitchCurvePitchLow:  20,
	PitchCurveZoomHigh:  18,
	PitchCurvePitchHigh: 65,

	IdleSmoothing: 0.06,
	DragSmoothing: 0.3,

	RotationSensitivity:      0.25,
	RotationZoomGain:         0.1,
	PitchSensitivity:         0.2,
	DragZoomSensitivity:      0.004,
	MaxDragZoomOffset:        0.8,
	DragTranslateSensitivity: 0.6,
	TapThreshold:             6,
	WheelSensitivity:         0.0015,
	PinchSensitivity:         0.004,

	InertiaMultiplier:            0.08,
	InertiaDamping:               0.92,
	InertiaStopThreshold:         0.001,
	InertiaPositionStopThreshold: 1e-7,
	MaxBearingVelocity:           6,
	MaxPitchVelocity:             1.5,
	MaxZoomVelocity:              0.05,
	MaxPositionVelocity:          0.0004,
	BoundaryWallDamping:          0.5,

	AmbientEnabled:        true,
	AmbientStrength:       0.02,
	AmbientSpeedInfluence: 0.001,
	AmbientDamping:        0.9,
	AmbientMaxVelocity:    0.5,
	AmbientBearingScale:   4,
	AmbientPitchScale:     3,
	AmbientPositionScale:  0.0004,
	AmbientSmoothing:      0.04,

	ScrollSmoothing:   0.12,
	ScrollFarZoom:     13.5,
	ScrollFarPitch:    10,
	ScrollExitEpsilon: 0.002,

	OverviewZoom:    12.5,
	OverviewPitch:   0,
	OverviewBearing: 0,
	FramingZoom:     16,
	FramingPitch:    55,
	FramingBearing:  -20,
	FocusZoom:       16,
	FocusPitch:      60,
	FocusBearing:    0,
	FramingDuration: 4 * time.Second,
	FocusDuration:   2500 * time.Millisecond,
	RevertDuration:  3 * time.Second,
	TransitionHold:  150 * time.Millisecond,

	FrameRate: 60,
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptySmoothnessConfig returns a SmoothnessConfig with all fields set to nil.
func EmptySmoothnessConfig() *SmoothnessConfig {
	return &SmoothnessConfig{}
}

// DefaultSmoothnessConfig returns a SmoothnessConfig with every field populated
// from the built-in defaults.
func DefaultSmoothnessConfig() *SmoothnessConfig {
	d := defaults
	return &SmoothnessConfig{
		CenterLatitude:  ptrFloat64(d.CenterLatitude),
		CenterLongitude: ptrFloat64(d.CenterLongitude),
		BoundaryRadius:  ptrFloat64(d.BoundaryRadius),

		MinZoom:  ptrFloat64(d.MinZoom),
		MaxZoom:  ptrFloat64(d.MaxZoom),
		MinPitch: ptrFloat64(d.MinPitch),
		MaxPitch: ptrFloat64(d.MaxPitch),

		ZoomStabilize:       ptrBool(d.ZoomStabilize),
		RestingZoom:         ptrFloat64(d.RestingZoom),
		ZoomSnapWindow:      ptrFloat64(d.ZoomSnapWindow),
		ZoomSpring:          ptrFloat64(d.ZoomSpring),
		ZoomDamping:         ptrFloat64(d.ZoomDamping),
		ZoomVelocityEpsilon: ptrFloat64(d.ZoomVelocityEpsilon),

		PitchFollowsZoom:    ptrBool(d.PitchFollowsZoom),
		PitchCurveZoomLow:   ptrFloat64(d.PitchCurveZoomLow),
		PitchCurvePitchLow:  ptrFloat64(d.PitchCurvePitchLow),
		PitchCurveZoomHigh:  ptrFloat64(d.PitchCurveZoomHigh),
		PitchCurvePitchHigh: ptrFloat64(d.PitchCurvePitchHigh),

		IdleSmoothing: ptrFloat64(d.IdleSmoothing),
		DragSmoothing: ptrFloat64(d.DragSmoothing),

		RotationSensitivity:      ptrFloat64(d.RotationSensitivity),
		RotationZoomGain:         ptrFloat64(d.RotationZoomGain),
		PitchSensitivity:         ptrFloat64(d.PitchSensitivity),
		DragZoomSensitivity:      ptrFloat64(d.DragZoomSensitivity),
		MaxDragZoomOffset:        ptrFloat64(d.MaxDragZoomOffset),
		DragTranslateSensitivity: ptrFloat64(d.DragTranslateSensitivity),
		TapThreshold:             ptrFloat64(d.TapThreshold),
		WheelSensitivity:         ptrFloat64(d.WheelSensitivity),
		PinchSensitivity:         ptrFloat64(d.PinchSensitivity),

		InertiaMultiplier:            ptrFloat64(d.InertiaMultiplier),
		InertiaDamping:               ptrFloat64(d.InertiaDamping),
		InertiaStopThreshold:         ptrFloat64(d.InertiaStopThreshold),
		InertiaPositionStopThreshold: ptrFloat64(d.InertiaPositionStopThreshold),
		MaxBearingVelocity:           ptrFloat64(d.MaxBearingVelocity),
		MaxPitchVelocity:             ptrFloat64(d.MaxPitchVelocity),
		MaxZoomVelocity:              ptrFloat64(d.MaxZoomVelocity),
		MaxPositionVelocity:          ptrFloat64(d.MaxPositionVelocity),
		BoundaryWallDamping:          ptrFloat64(d.BoundaryWallDamping),

		AmbientEnabled:        ptrBool(d.AmbientEnabled),
		AmbientStrength:       ptrFloat64(d.AmbientStrength),
		AmbientSpeedInfluence: ptrFloat64(d.AmbientSpeedInfluence),
		AmbientDamping:        ptrFloat64(d.AmbientDamping),
		AmbientMaxVelocity:    ptrFloat64(d.AmbientMaxVelocity),
		AmbientBearingScale:   ptrFloat64(d.AmbientBearingScale),
		AmbientPitchScale:     ptrFloat64(d.AmbientPitchScale),
		AmbientPositionScale:  ptrFloat64(d.AmbientPositionScale),
		AmbientSmoothing:      ptrFloat64(d.AmbientSmoothing),

		ScrollSmoothing:   ptrFloat64(d.ScrollSmoothing),
		ScrollFarZoom:     ptrFloat64(d.ScrollFarZoom),
		ScrollFarPitch:    ptrFloat64(d.ScrollFarPitch),
		ScrollExitEpsilon: ptrFloat64(d.ScrollExitEpsilon),

		OverviewZoom:    ptrFloat64(d.OverviewZoom),
		OverviewPitch:   ptrFloat64(d.OverviewPitch),
		OverviewBearing: ptrFloat64(d.OverviewBearing),
		FramingZoom:     ptrFloat64(d.FramingZoom),
		FramingPitch:    ptrFloat64(d.FramingPitch),
		FramingBearing:  ptrFloat64(d.FramingBearing),
		FocusZoom:       ptrFloat64(d.FocusZoom),
		FocusPitch:      ptrFloat64(d.FocusPitch),
		FocusBearing:    ptrFloat64(d.FocusBearing),
		FramingDuration: ptrString(d.FramingDuration.String()),
		FocusDuration:   ptrString(d.FocusDuration.String()),
		RevertDuration:  ptrString(d.RevertDuration.String()),
		TransitionHold:  ptrString(d.TransitionHold.String()),

		FrameRate: ptrFloat64(d.FrameRate),
	}
}

// DefaultSmoothness returns the resolved built-in defaults.
func DefaultSmoothness() Smoothness {
	return defaults
}

// LoadSmoothnessConfig loads a SmoothnessConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to the defaults when resolved, so partial configs are safe.
func LoadSmoothnessConfig(path string) (*SmoothnessConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

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

	cfg := EmptySmoothnessConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Clone returns a deep copy of the config.
func (c *SmoothnessConfig) Clone() *SmoothnessConfig {
	data, err := json.Marshal(c)
	if err != nil {
		// Only pointers to scalars; marshal cannot fail.
		panic(fmt.Sprintf("config: clone failed: %v", err))
	}
	out := EmptySmoothnessConfig()
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: clone failed: %v", err))
	}
	return out
}

// Merge returns a copy of c with the fields present in the partial JSON
// document applied on top. Unknown keys are rejected so typos in a live edit
// surface as errors instead of silently doing nothing.
func (c *SmoothnessConfig) Merge(partial []byte) (*SmoothnessConfig, error) {
	out := c.Clone()
	dec := json.NewDecoder(bytes.NewReader(partial))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return nil, fmt.Errorf("failed to parse config update: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}

func pick(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func pickBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func pickDuration(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// Resolve returns the value-typed configuration with defaults applied for
// every nil field.
func (c *SmoothnessConfig) Resolve() Smoothness {
	d := defaults
	return Smoothness{
		CenterLatitude:  pick(c.CenterLatitude, d.CenterLatitude),
		CenterLongitude: pick(c.CenterLongitude, d.CenterLongitude),
		BoundaryRadius:  pick(c.BoundaryRadius, d.BoundaryRadius),

		MinZoom:  pick(c.MinZoom, d.MinZoom),
		MaxZoom:  pick(c.MaxZoom, d.MaxZoom),
		MinPitch: pick(c.MinPitch, d.MinPitch),
		MaxPitch: pick(c.MaxPitch, d.MaxPitch),

		ZoomStabilize:       pickBool(c.ZoomStabilize, d.ZoomStabilize),
		RestingZoom:         pick(c.RestingZoom, d.RestingZoom),
		ZoomSnapWindow:      pick(c.ZoomSnapWindow, d.ZoomSnapWindow),
		ZoomSpring:          pick(c.ZoomSpring, d.ZoomSpring),
		ZoomDamping:         pick(c.ZoomDamping, d.ZoomDamping),
		ZoomVelocityEpsilon: pick(c.ZoomVelocityEpsilon, d.ZoomVelocityEpsilon),

		PitchFollowsZoom:    pickBool(c.PitchFollowsZoom, d.PitchFollowsZoom),
		PitchCurveZoomLow:   pick(c.PitchCurveZoomLow, d.PitchCurveZoomLow),
		PitchCurvePitchLow:  pick(c.PitchCurvePitchLow, d.PitchCurvePitchLow),
		PitchCurveZoomHigh:  pick(c.PitchCurveZoomHigh, d.PitchCurveZoomHigh),
		PitchCurvePitchHigh: pick(c.PitchCurvePitchHigh, d.PitchCurvePitchHigh),

		IdleSmoothing: pick(c.IdleSmoothing, d.IdleSmoothing),
		DragSmoothing: pick(c.DragSmoothing, d.DragSmoothing),

		RotationSensitivity:      pick(c.RotationSensitivity, d.RotationSensitivity),
		RotationZoomGain:         pick(c.RotationZoomGain, d.RotationZoomGain),
		PitchSensitivity:         pick(c.PitchSensitivity, d.PitchSensitivity),
		DragZoomSensitivity:      pick(c.DragZoomSensitivity, d.DragZoomSensitivity),
		MaxDragZoomOffset:        pick(c.MaxDragZoomOffset, d.MaxDragZoomOffset),
		DragTranslateSensitivity: pick(c.DragTranslateSensitivity, d.DragTranslateSensitivity),
		TapThreshold:             pick(c.TapThreshold, d.TapThreshold),
		WheelSensitivity:         pick(c.WheelSensitivity, d.WheelSensitivity),
		PinchSensitivity:         pick(c.PinchSensitivity, d.PinchSensitivity),

		InertiaMultiplier:            pick(c.InertiaMultiplier, d.InertiaMultiplier),
		InertiaDamping:               pick(c.InertiaDamping, d.InertiaDamping),
		InertiaStopThreshold:         pick(c.InertiaStopThreshold, d.InertiaStopThreshold),
		InertiaPositionStopThreshold: pick(c.InertiaPositionStopThreshold, d.InertiaPositionStopThreshold),
		MaxBearingVelocity:           pick(c.MaxBearingVelocity, d.MaxBearingVelocity),
		MaxPitchVelocity:             pick(c.MaxPitchVelocity, d.MaxPitchVelocity),
		MaxZoomVelocity:              pick(c.MaxZoomVelocity, d.MaxZoomVelocity),
		MaxPositionVelocity:          pick(c.MaxPositionVelocity, d.MaxPositionVelocity),
		BoundaryWallDamping:          pick(c.BoundaryWallDamping, d.BoundaryWallDamping),

		AmbientEnabled:        pickBool(c.AmbientEnabled, d.AmbientEnabled),
		AmbientStrength:       pick(c.AmbientStrength, d.AmbientStrength),
		AmbientSpeedInfluence: pick(c.AmbientSpeedInfluence, d.AmbientSpeedInfluence),
		AmbientDamping:        pick(c.AmbientDamping, d.AmbientDamping),
		AmbientMaxVelocity:    pick(c.AmbientMaxVelocity, d.AmbientMaxVelocity),
		AmbientBearingScale:   pick(c.AmbientBearingScale, d.AmbientBearingScale),
		AmbientPitchScale:     pick(c.AmbientPitchScale, d.AmbientPitchScale),
		AmbientPositionScale:  pick(c.AmbientPositionScale, d.AmbientPositionScale),
		AmbientSmoothing:      pick(c.AmbientSmoothing, d.AmbientSmoothing),

		ScrollSmoothing:   pick(c.ScrollSmoothing, d.ScrollSmoothing),
		ScrollFarZoom:     pick(c.ScrollFarZoom, d.ScrollFarZoom),
		ScrollFarPitch:    pick(c.ScrollFarPitch, d.ScrollFarPitch),
		ScrollExitEpsilon: pick(c.ScrollExitEpsilon, d.ScrollExitEpsilon),

		OverviewZoom:    pick(c.OverviewZoom, d.OverviewZoom),
		OverviewPitch:   pick(c.OverviewPitch, d.OverviewPitch),
		OverviewBearing: pick(c.OverviewBearing, d.OverviewBearing),
		FramingZoom:     pick(c.FramingZoom, d.FramingZoom),
		FramingPitch:    pick(c.FramingPitch, d.FramingPitch),
		FramingBearing:  pick(c.FramingBearing, d.FramingBearing),
		FocusZoom:       pick(c.FocusZoom, d.FocusZoom),
		FocusPitch:      pick(c.FocusPitch, d.FocusPitch),
		FocusBearing:    pick(c.FocusBearing, d.FocusBearing),
		FramingDuration: pickDuration(c.FramingDuration, d.FramingDuration),
		FocusDuration:   pickDuration(c.FocusDuration, d.FocusDuration),
		RevertDuration:  pickDuration(c.RevertDuration, d.RevertDuration),
		TransitionHold:  pickDuration(c.TransitionHold, d.TransitionHold),

		FrameRate: pick(c.FrameRate, d.FrameRate),
	}
}

// GetFrameInterval returns the frame period derived from frame_rate.
func (c *SmoothnessConfig) GetFrameInterval() time.Duration {
	rate := pick(c.FrameRate, defaults.FrameRate)
	if rate <= 0 {
		rate = defaults.FrameRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// GetAmbientEnabled returns the ambient_enabled value or the default.
func (c *SmoothnessConfig) GetAmbientEnabled() bool {
	return pickBool(c.AmbientEnabled, defaults.AmbientEnabled)
}

// GetRestingZoom returns the resting_zoom value or the default.
func (c *SmoothnessConfig) GetRestingZoom() float64 {
	return pick(c.RestingZoom, defaults.RestingZoom)
}
