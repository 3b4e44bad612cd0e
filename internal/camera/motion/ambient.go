package motion

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/mapcam/internal/config"
)

// AmbientParams are the drift coefficients.
type AmbientParams struct {
	Strength       float64
	SpeedInfluence float64
	Damping        float64
	MaxVelocity    float64
	BearingScale   float64
	PitchScale     float64
	PositionScale  float64
}

// AmbientParamsFrom reads the drift coefficients from a resolved configuration.
func AmbientParamsFrom(s config.Smoothness) AmbientParams {
	return AmbientParams{
		Strength:       s.AmbientStrength,
		SpeedInfluence: s.AmbientSpeedInfluence,
		Damping:        s.AmbientDamping,
		MaxVelocity:    s.AmbientMaxVelocity,
		BearingScale:   s.AmbientBearingScale,
		PitchScale:     s.AmbientPitchScale,
		PositionScale:  s.AmbientPositionScale,
	}
}

// Offset is a small perturbation around the resting target.
type Offset struct {
	Bearing   float64
	Pitch     float64
	Latitude  float64
	Longitude float64
}

// Ambient is a leaky integrator over pointer position. Because the state is
// clamped and then multiplied by a damping factor below one every frame, its
// magnitude stays below MaxVelocity*Damping under any input.
type Ambient struct {
	params AmbientParams
	vel    r2.Vec
}

// NewAmbient returns a drift model at rest.
func NewAmbient(p AmbientParams) *Ambient {
	return &Ambient{params: p}
}

// SetParams swaps the coefficients without resetting state.
func (a *Ambient) SetParams(p AmbientParams) {
	a.params = p
}

// Update integrates one frame of pointer input. pointer is normalized to
// [-1, 1] on both axes; speed is the pointer's per-frame movement in the same
// units. Non-finite input is treated as no input.
func (a *Ambient) Update(pointer, speed r2.Vec) {
	if !vecFinite(pointer) {
		pointer = r2.Vec{}
	}
	if !vecFinite(speed) {
		speed = r2.Vec{}
	}
	push := r2.Add(r2.Scale(a.params.Strength, pointer), r2.Scale(a.params.SpeedInfluence, speed))
	v := r2.Add(a.vel, push)
	if n := r2.Norm(v); n > a.params.MaxVelocity {
		if a.params.MaxVelocity <= 0 {
			v = r2.Vec{}
		} else {
			v = r2.Scale(a.params.MaxVelocity/n, v)
		}
	}
	a.vel = r2.Scale(a.params.Damping, v)
}

// Velocity returns the current floating velocity.
func (a *Ambient) Velocity() r2.Vec {
	return a.vel
}

// Offset scales the floating velocity into a pose perturbation.
func (a *Ambient) Offset() Offset {
	return Offset{
		Bearing:   a.vel.X * a.params.BearingScale,
		Pitch:     a.vel.Y * a.params.PitchScale,
		Latitude:  a.vel.Y * a.params.PositionScale,
		Longitude: a.vel.X * a.params.PositionScale,
	}
}

// Reset drops all accumulated drift.
func (a *Ambient) Reset() {
	a.vel = r2.Vec{}
}

func vecFinite(v r2.Vec) bool {
	return finite(v.X) && finite(v.Y)
}
