package camera

import (
	"time"

	"github.com/banshee-data/mapcam/internal/camera/motion"
)

// ScriptKind identifies a scripted transition.
type ScriptKind int

const (
	InitialFraming ScriptKind = iota
	FeatureFocus
	Revert
)

func (k ScriptKind) String() string {
	switch k {
	case InitialFraming:
		return "initial_framing"
	case FeatureFocus:
		return "feature_focus"
	case Revert:
		return "revert"
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k ScriptKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Script is a time-bounded eased move from one pose to another. After the
// move reaches its destination the pose is held for Hold before the script
// completes.
type Script struct {
	Kind      ScriptKind
	Token     uint64
	From      Pose
	To        Pose
	Duration  time.Duration
	Hold      time.Duration
	FeatureID string

	elapsed time.Duration
}

// ScriptStatus describes the running script.
type ScriptStatus struct {
	Kind      ScriptKind `json:"kind"`
	Token     uint64     `json:"token"`
	Progress  float64    `json:"progress"`
	FeatureID string     `json:"feature_id,omitempty"`
}

// Advance moves the script clock forward. Negative steps are ignored.
func (s *Script) Advance(dt time.Duration) {
	if dt > 0 {
		s.elapsed += dt
	}
}

// Progress is the linear completion of the move in [0, 1].
func (s *Script) Progress() float64 {
	if s.Duration <= 0 {
		return 1
	}
	return motion.Clamp(float64(s.elapsed)/float64(s.Duration), 0, 1)
}

// Pose returns the interpolated pose at the current time.
func (s *Script) Pose() Pose {
	t := s.Progress()
	if t >= 1 {
		return s.To
	}
	e := EaseInOutCubic(t)
	return Pose{
		Latitude:  s.From.Latitude + (s.To.Latitude-s.From.Latitude)*e,
		Longitude: s.From.Longitude + (s.To.Longitude-s.From.Longitude)*e,
		Zoom:      s.From.Zoom + (s.To.Zoom-s.From.Zoom)*e,
		Pitch:     s.From.Pitch + (s.To.Pitch-s.From.Pitch)*e,
		Bearing:   motion.NormalizeBearing(s.From.Bearing + motion.BearingDelta(s.From.Bearing, s.To.Bearing)*e),
	}
}

// Done reports whether the move and the hold have both elapsed.
func (s *Script) Done() bool {
	return s.elapsed >= s.Duration+s.Hold
}

func (s *Script) status() *ScriptStatus {
	return &ScriptStatus{Kind: s.Kind, Token: s.Token, Progress: s.Progress(), FeatureID: s.FeatureID}
}

// EaseInOutCubic maps linear progress onto an ease-in-out curve.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
