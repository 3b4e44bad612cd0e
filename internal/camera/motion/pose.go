// Package motion holds the stateless and small-state models the camera
// controller composes each frame: zoom/pitch coupling, inertia and ambient
// drift.
package motion

import "math"

// Pose is the five-number camera state rendered each frame.
type Pose struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
	Bearing   float64 `json:"bearing"`
}

// Finite reports whether every component is a real number.
func (p Pose) Finite() bool {
	return finite(p.Latitude) && finite(p.Longitude) && finite(p.Zoom) && finite(p.Pitch) && finite(p.Bearing)
}

// Velocity holds per-frame deltas applied during inertia decay.
type Velocity struct {
	Bearing   float64 `json:"bearing"`
	Pitch     float64 `json:"pitch"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// Finite reports whether every component is a real number.
func (v Velocity) Finite() bool {
	return finite(v.Bearing) && finite(v.Pitch) && finite(v.Latitude) && finite(v.Longitude) && finite(v.Zoom)
}

// NormalizeBearing maps b into (-180, 180].
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b > 180 {
		b -= 360
	} else if b <= -180 {
		b += 360
	}
	return b
}

// BearingDelta returns the signed shortest rotation from one bearing to
// another, in (-180, 180].
func BearingDelta(from, to float64) float64 {
	return NormalizeBearing(to - from)
}

// Ease moves from toward to by fraction f of the remaining distance.
func Ease(from, to, f float64) float64 {
	return from + (to-from)*f
}

// EaseBearing eases along the shortest arc and returns a normalized bearing.
func EaseBearing(from, to, f float64) float64 {
	return NormalizeBearing(from + BearingDelta(from, to)*f)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampAbs(v, limit float64) float64 {
	return Clamp(v, -limit, limit)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
