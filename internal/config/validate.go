package config

import (
	"fmt"
	"math"
	"time"
)

// Validate checks that the configuration values are valid. Only fields that
// are set are checked individually; paired bounds are checked on the resolved
// values so a partial config cannot invert a default range.
func (c *SmoothnessConfig) Validate() error {
	fractions := []struct {
		name string
		v    *float64
	}{
		{"idle_smoothing", c.IdleSmoothing},
		{"drag_smoothing", c.DragSmoothing},
		{"ambient_smoothing", c.AmbientSmoothing},
		{"scroll_smoothing", c.ScrollSmoothing},
	}
	for _, f := range fractions {
		if f.v != nil && (!finite(*f.v) || *f.v <= 0 || *f.v > 1) {
			return fmt.Errorf("%s must be in (0, 1], got %v", f.name, *f.v)
		}
	}

	// Damping factors must be strictly below 1 or motion never decays.
	dampings := []struct {
		name string
		v    *float64
	}{
		{"zoom_damping", c.ZoomDamping},
		{"inertia_damping", c.InertiaDamping},
		{"ambient_damping", c.AmbientDamping},
		{"boundary_wall_damping", c.BoundaryWallDamping},
	}
	for _, f := range dampings {
		if f.v != nil && (!finite(*f.v) || *f.v < 0 || *f.v >= 1) {
			return fmt.Errorf("%s must be in [0, 1), got %v", f.name, *f.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"boundary_radius", c.BoundaryRadius},
		{"zoom_snap_window", c.ZoomSnapWindow},
		{"zoom_spring", c.ZoomSpring},
		{"zoom_velocity_epsilon", c.ZoomVelocityEpsilon},
		{"max_drag_zoom_offset", c.MaxDragZoomOffset},
		{"tap_threshold", c.TapThreshold},
		{"inertia_multiplier", c.InertiaMultiplier},
		{"inertia_stop_threshold", c.InertiaStopThreshold},
		{"inertia_position_stop_threshold", c.InertiaPositionStopThreshold},
		{"max_bearing_velocity", c.MaxBearingVelocity},
		{"max_pitch_velocity", c.MaxPitchVelocity},
		{"max_zoom_velocity", c.MaxZoomVelocity},
		{"max_position_velocity", c.MaxPositionVelocity},
		{"ambient_max_velocity", c.AmbientMaxVelocity},
		{"scroll_exit_epsilon", c.ScrollExitEpsilon},
	}
	for _, f := range nonNegative {
		if f.v != nil && (!finite(*f.v) || *f.v < 0) {
			return fmt.Errorf("%s must be non-negative, got %v", f.name, *f.v)
		}
	}

	for _, f := range []struct {
		name string
		v    *string
	}{
		{"framing_duration", c.FramingDuration},
		{"focus_duration", c.FocusDuration},
		{"revert_duration", c.RevertDuration},
		{"transition_hold", c.TransitionHold},
	} {
		if f.v == nil || *f.v == "" {
			continue
		}
		d, err := time.ParseDuration(*f.v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", f.name, *f.v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", f.name, *f.v)
		}
	}

	if c.FrameRate != nil && (!finite(*c.FrameRate) || *c.FrameRate <= 0 || *c.FrameRate > 240) {
		return fmt.Errorf("frame_rate must be in (0, 240], got %v", *c.FrameRate)
	}

	r := c.Resolve()
	for _, v := range []float64{
		r.CenterLatitude, r.CenterLongitude, r.MinZoom, r.MaxZoom, r.MinPitch, r.MaxPitch,
		r.RestingZoom, r.PitchCurveZoomLow, r.PitchCurvePitchLow, r.PitchCurveZoomHigh, r.PitchCurvePitchHigh,
		r.RotationSensitivity, r.RotationZoomGain, r.PitchSensitivity, r.DragZoomSensitivity,
		r.DragTranslateSensitivity, r.WheelSensitivity, r.PinchSensitivity,
		r.AmbientStrength, r.AmbientSpeedInfluence, r.AmbientBearingScale, r.AmbientPitchScale, r.AmbientPositionScale,
		r.ScrollFarZoom, r.ScrollFarPitch, r.OverviewZoom, r.OverviewPitch, r.OverviewBearing,
		r.FramingZoom, r.FramingPitch, r.FramingBearing, r.FocusZoom, r.FocusPitch, r.FocusBearing,
	} {
		if !finite(v) {
			return fmt.Errorf("configuration contains a non-finite value")
		}
	}
	if r.CenterLatitude < -90 || r.CenterLatitude > 90 {
		return fmt.Errorf("center_latitude must be between -90 and 90, got %f", r.CenterLatitude)
	}
	if r.CenterLongitude < -180 || r.CenterLongitude > 180 {
		return fmt.Errorf("center_longitude must be between -180 and 180, got %f", r.CenterLongitude)
	}
	if r.MinZoom > r.MaxZoom {
		return fmt.Errorf("min_zoom (%v) must not exceed max_zoom (%v)", r.MinZoom, r.MaxZoom)
	}
	if r.MinPitch > r.MaxPitch {
		return fmt.Errorf("min_pitch (%v) must not exceed max_pitch (%v)", r.MinPitch, r.MaxPitch)
	}
	if r.MinPitch < 0 || r.MaxPitch > 90 {
		return fmt.Errorf("pitch bounds must lie within [0, 90], got [%v, %v]", r.MinPitch, r.MaxPitch)
	}
	if r.PitchCurveZoomLow >= r.PitchCurveZoomHigh {
		return fmt.Errorf("pitch_curve_zoom_low (%v) must be below pitch_curve_zoom_high (%v)",
			r.PitchCurveZoomLow, r.PitchCurveZoomHigh)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
