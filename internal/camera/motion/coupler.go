package motion

import (
	"math"

	"github.com/banshee-data/mapcam/internal/config"
)

// Coupler derives pitch from zoom and pulls a free zoom toward the canonical
// resting level.
type Coupler struct {
	ZoomLow   float64
	PitchLow  float64
	ZoomHigh  float64
	PitchHigh float64

	RestingZoom     float64
	SnapWindow      float64
	Spring          float64
	Damping         float64
	VelocityEpsilon float64
}

// CouplerFrom reads the coupling coefficients from a resolved configuration.
func CouplerFrom(s config.Smoothness) Coupler {
	return Coupler{
		ZoomLow:         s.PitchCurveZoomLow,
		PitchLow:        s.PitchCurvePitchLow,
		ZoomHigh:        s.PitchCurveZoomHigh,
		PitchHigh:       s.PitchCurvePitchHigh,
		RestingZoom:     s.RestingZoom,
		SnapWindow:      s.ZoomSnapWindow,
		Spring:          s.ZoomSpring,
		Damping:         s.ZoomDamping,
		VelocityEpsilon: s.ZoomVelocityEpsilon,
	}
}

// PitchForZoom interpolates linearly between the two curve breakpoints and
// holds the end values outside them.
func (c Coupler) PitchForZoom(zoom float64) float64 {
	if zoom <= c.ZoomLow || c.ZoomHigh <= c.ZoomLow {
		return c.PitchLow
	}
	if zoom >= c.ZoomHigh {
		return c.PitchHigh
	}
	t := (zoom - c.ZoomLow) / (c.ZoomHigh - c.ZoomLow)
	return c.PitchLow + (c.PitchHigh-c.PitchLow)*t
}

// StabilizeZoom advances the resting-zoom spring by one frame. Inside the
// snap window a slow or inbound zoom lands exactly on the resting value with
// zero velocity, so an idle camera never parks on a fractional level.
func (c Coupler) StabilizeZoom(zoom, velocity float64) (float64, float64) {
	diff := c.RestingZoom - zoom
	if math.Abs(diff) < c.SnapWindow {
		if math.Abs(velocity) < c.VelocityEpsilon || velocity*diff > 0 {
			return c.RestingZoom, 0
		}
	}
	velocity = velocity*c.Damping + diff*c.Spring
	return zoom + velocity, velocity
}
