// Package geo holds the geographic primitives used by the camera: the
// exploration boundary and point-of-interest features.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Region is a circular exploration area around a fixed center. The radius is
// in degrees of latitude; longitude offsets are scaled by cos(center latitude)
// so the disc approximates equal ground distance in every direction.
type Region struct {
	Center orb.Point // [lon, lat]
	Radius float64
}

// Clamped is the result of projecting a candidate position onto a Region.
type Clamped struct {
	Latitude   float64
	Longitude  float64
	AtBoundary bool
}

// NewRegion builds a region from a latitude/longitude center.
func NewRegion(lat, lng, radius float64) Region {
	return Region{Center: orb.Point{lng, lat}, Radius: radius}
}

// Enabled reports whether the region confines anything. A non-positive radius
// disables clamping.
func (r Region) Enabled() bool {
	return r.Radius > 0 && !math.IsInf(r.Radius, 0) && !math.IsNaN(r.Radius)
}

func (r Region) lngScale() float64 {
	s := math.Cos(r.Center.Lat() * math.Pi / 180)
	if s < 1e-6 {
		// Centers at the poles would divide by zero below.
		return 1e-6
	}
	return s
}

// Distance returns the flattened distance of (lat, lng) from the center in
// latitude degrees.
func (r Region) Distance(lat, lng float64) float64 {
	dx := (lng - r.Center.Lon()) * r.lngScale()
	dy := lat - r.Center.Lat()
	return math.Hypot(dx, dy)
}

// Clamp projects (lat, lng) into the region. Points inside are returned
// unchanged; points outside are moved along the same bearing from the center
// to exactly the radius and flagged so callers can damp velocity. Non-finite
// input collapses onto the center.
func (r Region) Clamp(lat, lng float64) Clamped {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return Clamped{Latitude: r.Center.Lat(), Longitude: r.Center.Lon(), AtBoundary: true}
	}
	if !r.Enabled() {
		return Clamped{Latitude: lat, Longitude: lng}
	}

	scale := r.lngScale()
	dx := (lng - r.Center.Lon()) * scale
	dy := lat - r.Center.Lat()
	dist := math.Hypot(dx, dy)
	if dist <= r.Radius {
		return Clamped{Latitude: lat, Longitude: lng}
	}

	k := r.Radius / dist
	return Clamped{
		Latitude:   r.Center.Lat() + dy*k,
		Longitude:  r.Center.Lon() + dx*k/scale,
		AtBoundary: true,
	}
}

// Contains reports whether (lat, lng) lies within radius+epsilon of the center.
func (r Region) Contains(lat, lng, epsilon float64) bool {
	if !r.Enabled() {
		return true
	}
	return r.Distance(lat, lng) <= r.Radius+epsilon
}
