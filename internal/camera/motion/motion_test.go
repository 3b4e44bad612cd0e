package motion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/geo"
)

// ---- bearing helpers ----

func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{720 + 45, 45},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeBearing(tt.in), 1e-9, "NormalizeBearing(%v)", tt.in)
	}
}

func TestBearingDelta_ShortestPath(t *testing.T) {
	assert.InDelta(t, 20, BearingDelta(170, -170), 1e-9)
	assert.InDelta(t, -20, BearingDelta(-170, 170), 1e-9)
	assert.InDelta(t, 90, BearingDelta(0, 90), 1e-9)
}

// ---- coupler ----

func defaultCoupler() Coupler {
	return CouplerFrom(config.DefaultSmoothness())
}

func TestPitchForZoom(t *testing.T) {
	c := defaultCoupler()

	assert.Equal(t, c.PitchLow, c.PitchForZoom(c.ZoomLow-3))
	assert.Equal(t, c.PitchHigh, c.PitchForZoom(c.ZoomHigh+3))
	mid := (c.ZoomLow + c.ZoomHigh) / 2
	assert.InDelta(t, (c.PitchLow+c.PitchHigh)/2, c.PitchForZoom(mid), 1e-9)
}

func TestStabilizeZoom_Scenarios(t *testing.T) {
	c := defaultCoupler()
	c.RestingZoom = 16
	c.SnapWindow = 0.08

	t.Run("outside window does not snap", func(t *testing.T) {
		z, v := c.StabilizeZoom(15.2, 0)
		assert.NotEqual(t, 16.0, z)
		assert.Greater(t, z, 15.2, "spring pulls toward rest")
		assert.Greater(t, v, 0.0)
	})

	t.Run("inside window snaps exactly", func(t *testing.T) {
		z, v := c.StabilizeZoom(15.95, 0)
		assert.Equal(t, 16.0, z)
		assert.Equal(t, 0.0, v)
	})

	t.Run("inbound velocity snaps", func(t *testing.T) {
		z, v := c.StabilizeZoom(16.05, -0.05)
		assert.Equal(t, 16.0, z)
		assert.Equal(t, 0.0, v)
	})

	t.Run("fast outbound velocity keeps moving", func(t *testing.T) {
		z, _ := c.StabilizeZoom(16.05, 0.05)
		assert.NotEqual(t, 16.0, z)
	})
}

func TestStabilizeZoom_Idempotent(t *testing.T) {
	c := defaultCoupler()
	z, v := c.RestingZoom, 0.0
	for i := 0; i < 500; i++ {
		z, v = c.StabilizeZoom(z, v)
	}
	assert.Equal(t, c.RestingZoom, z)
	assert.Equal(t, 0.0, v)
}

func TestStabilizeZoom_Converges(t *testing.T) {
	c := defaultCoupler()
	z, v := c.RestingZoom-2.5, 0.0
	for i := 0; i < 5000 && z != c.RestingZoom; i++ {
		z, v = c.StabilizeZoom(z, v)
		require.False(t, math.IsNaN(z))
	}
	assert.Equal(t, c.RestingZoom, z)
	assert.Equal(t, 0.0, v)
}

// ---- inertia ----

func TestInertia_DecayScenario(t *testing.T) {
	m := Inertia{Damping: 0.9, StopThreshold: 0.001, PositionStopThreshold: 1e-7, WallDamping: 0.5}
	v := Velocity{Bearing: 8}
	p := Pose{Zoom: 16}

	bound := int(math.Ceil(math.Log(0.001/8) / math.Log(0.9)))
	ticks := 0
	for m.Active(v) {
		p, v = m.Step(p, v, geo.Region{})
		ticks++
		require.LessOrEqual(t, ticks, bound, "inertia did not decay in time")
	}
	assert.GreaterOrEqual(t, ticks, bound-1)
}

func TestInertia_ConvergesFromRandomVelocity(t *testing.T) {
	m := InertiaFrom(config.DefaultSmoothness())
	region := geo.NewRegion(33.6095571, -84.8039517, 0.03)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		v := Velocity{
			Bearing:   (rng.Float64()*2 - 1) * m.MaxBearing,
			Pitch:     (rng.Float64()*2 - 1) * m.MaxPitch,
			Zoom:      (rng.Float64()*2 - 1) * m.MaxZoom,
			Latitude:  (rng.Float64()*2 - 1) * m.MaxPosition,
			Longitude: (rng.Float64()*2 - 1) * m.MaxPosition,
		}
		p := Pose{Latitude: 33.6095571, Longitude: -84.8039517, Zoom: 16, Pitch: 40}
		ticks := 0
		for m.Active(v) {
			p, v = m.Step(p, v, region)
			ticks++
			require.Less(t, ticks, 10000)
			require.LessOrEqual(t, region.Distance(p.Latitude, p.Longitude), region.Radius+1e-9)
		}
	}
}

func TestInertia_FromGestureCaps(t *testing.T) {
	m := InertiaFrom(config.DefaultSmoothness())
	start := Pose{Latitude: 33.6, Longitude: -84.8, Zoom: 16, Pitch: 40, Bearing: 170}
	end := Pose{Latitude: 34.6, Longitude: -83.8, Zoom: 19, Pitch: 85, Bearing: -100}

	v := m.FromGesture(start, end)
	assert.LessOrEqual(t, math.Abs(v.Bearing), m.MaxBearing)
	assert.LessOrEqual(t, math.Abs(v.Pitch), m.MaxPitch)
	assert.LessOrEqual(t, math.Abs(v.Zoom), m.MaxZoom)
	assert.LessOrEqual(t, math.Abs(v.Latitude), m.MaxPosition)
	assert.LessOrEqual(t, math.Abs(v.Longitude), m.MaxPosition)
	// 170 → -100 is +90 along the short arc.
	assert.Greater(t, v.Bearing, 0.0)

	bad := end
	bad.Zoom = math.NaN()
	assert.Equal(t, Velocity{}, m.FromGesture(start, bad))
}

func TestInertia_SoftWall(t *testing.T) {
	m := Inertia{Damping: 1 - 1e-9, WallDamping: 0.5, StopThreshold: 1, PositionStopThreshold: 1}
	region := geo.NewRegion(0, 0, 0.01)
	p := Pose{Latitude: 0.0099}
	v := Velocity{Latitude: 0.001, Longitude: 0.0004}

	p, v = m.Step(p, v, region)
	assert.InDelta(t, 0.01, region.Distance(p.Latitude, p.Longitude), 1e-12)
	assert.InDelta(t, 0.0005, v.Latitude, 1e-9)
	assert.InDelta(t, 0.0002, v.Longitude, 1e-9)
}

// ---- ambient ----

func TestAmbient_BoundedUnderConstantInput(t *testing.T) {
	p := AmbientParamsFrom(config.DefaultSmoothness())
	a := NewAmbient(p)

	for i := 0; i < 10000; i++ {
		a.Update(r2.Vec{X: 1, Y: 1}, r2.Vec{X: 50, Y: -50})
		require.LessOrEqual(t, r2.Norm(a.Velocity()), p.MaxVelocity*p.Damping+1e-12)
	}
}

func TestAmbient_DecaysWithoutInput(t *testing.T) {
	a := NewAmbient(AmbientParamsFrom(config.DefaultSmoothness()))
	for i := 0; i < 50; i++ {
		a.Update(r2.Vec{X: -1, Y: 0.5}, r2.Vec{})
	}
	require.Greater(t, r2.Norm(a.Velocity()), 0.0)

	prev := r2.Norm(a.Velocity())
	for i := 0; i < 400; i++ {
		a.Update(r2.Vec{}, r2.Vec{})
		n := r2.Norm(a.Velocity())
		require.LessOrEqual(t, n, prev)
		prev = n
	}
	assert.Less(t, prev, 1e-12)
}

func TestAmbient_OffsetAndReset(t *testing.T) {
	p := AmbientParams{Strength: 1, Damping: 0.5, MaxVelocity: 10, BearingScale: 2, PitchScale: 3, PositionScale: 0.1}
	a := NewAmbient(p)
	a.Update(r2.Vec{X: 1, Y: -1}, r2.Vec{})

	off := a.Offset()
	assert.InDelta(t, 1.0, off.Bearing, 1e-12)
	assert.InDelta(t, -1.5, off.Pitch, 1e-12)
	assert.InDelta(t, -0.05, off.Latitude, 1e-12)
	assert.InDelta(t, 0.05, off.Longitude, 1e-12)

	a.Update(r2.Vec{X: math.NaN(), Y: 0}, r2.Vec{X: math.Inf(1)})
	assert.True(t, vecFinite(a.Velocity()))

	a.Reset()
	assert.Equal(t, Offset{}, a.Offset())
}
