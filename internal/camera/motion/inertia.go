package motion

import (
	"math"

	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/geo"
)

// Inertia turns the net pose change of a gesture into a decaying per-frame
// velocity.
type Inertia struct {
	Multiplier            float64
	Damping               float64
	StopThreshold         float64 // bearing, pitch, zoom
	PositionStopThreshold float64 // latitude, longitude
	MaxBearing            float64
	MaxPitch              float64
	MaxZoom               float64
	MaxPosition           float64
	WallDamping           float64
}

// InertiaFrom reads the inertia coefficients from a resolved configuration.
func InertiaFrom(s config.Smoothness) Inertia {
	return Inertia{
		Multiplier:            s.InertiaMultiplier,
		Damping:               s.InertiaDamping,
		StopThreshold:         s.InertiaStopThreshold,
		PositionStopThreshold: s.InertiaPositionStopThreshold,
		MaxBearing:            s.MaxBearingVelocity,
		MaxPitch:              s.MaxPitchVelocity,
		MaxZoom:               s.MaxZoomVelocity,
		MaxPosition:           s.MaxPositionVelocity,
		WallDamping:           s.BoundaryWallDamping,
	}
}

// FromGesture computes the release velocity. Each component has its own cap
// so a fast sideways flick cannot produce a large tilt change.
func (m Inertia) FromGesture(start, end Pose) Velocity {
	if !start.Finite() || !end.Finite() {
		return Velocity{}
	}
	return Velocity{
		Bearing:   clampAbs(BearingDelta(start.Bearing, end.Bearing)*m.Multiplier, m.MaxBearing),
		Pitch:     clampAbs((end.Pitch-start.Pitch)*m.Multiplier, m.MaxPitch),
		Zoom:      clampAbs((end.Zoom-start.Zoom)*m.Multiplier, m.MaxZoom),
		Latitude:  clampAbs((end.Latitude-start.Latitude)*m.Multiplier, m.MaxPosition),
		Longitude: clampAbs((end.Longitude-start.Longitude)*m.Multiplier, m.MaxPosition),
	}
}

// Active reports whether any component is still above its stop threshold.
func (m Inertia) Active(v Velocity) bool {
	return math.Abs(v.Bearing) > m.StopThreshold ||
		math.Abs(v.Pitch) > m.StopThreshold ||
		math.Abs(v.Zoom) > m.StopThreshold ||
		math.Abs(v.Latitude) > m.PositionStopThreshold ||
		math.Abs(v.Longitude) > m.PositionStopThreshold
}

// Step applies one frame of velocity to p and decays it. The position is
// re-clamped to the region; hitting the edge damps the positional components
// a second time.
func (m Inertia) Step(p Pose, v Velocity, region geo.Region) (Pose, Velocity) {
	p.Bearing = NormalizeBearing(p.Bearing + v.Bearing)
	p.Pitch += v.Pitch
	p.Zoom += v.Zoom
	p.Latitude += v.Latitude
	p.Longitude += v.Longitude

	v.Bearing *= m.Damping
	v.Pitch *= m.Damping
	v.Zoom *= m.Damping
	v.Latitude *= m.Damping
	v.Longitude *= m.Damping

	c := region.Clamp(p.Latitude, p.Longitude)
	p.Latitude, p.Longitude = c.Latitude, c.Longitude
	if c.AtBoundary {
		v.Latitude *= m.WallDamping
		v.Longitude *= m.WallDamping
	}
	return p, v
}
