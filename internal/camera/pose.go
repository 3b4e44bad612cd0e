package camera

import (
	"github.com/banshee-data/mapcam/internal/camera/motion"
)

type (
	Pose     = motion.Pose
	Velocity = motion.Velocity
)

// TargetPosition is the resting position and zoom the camera eases toward.
type TargetPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

// TargetView is the resting orientation.
type TargetView struct {
	Pitch   float64 `json:"pitch"`
	Bearing float64 `json:"bearing"`
}

func targetFrom(p Pose) (TargetPosition, TargetView) {
	return TargetPosition{Latitude: p.Latitude, Longitude: p.Longitude, Zoom: p.Zoom},
		TargetView{Pitch: p.Pitch, Bearing: p.Bearing}
}

func poseFrom(t TargetPosition, v TargetView) Pose {
	return Pose{Latitude: t.Latitude, Longitude: t.Longitude, Zoom: t.Zoom, Pitch: v.Pitch, Bearing: v.Bearing}
}

// Mode is the motion rule applied on a tick. Higher values win.
type Mode int

const (
	ModeSettle Mode = iota
	ModeAmbient
	ModePinLocked
	ModeInertiaDecay
	ModeDragging
	ModeScroll
	ModeTransitionLocked
)

var modeNames = [...]string{
	ModeSettle:           "settle",
	ModeAmbient:          "ambient",
	ModePinLocked:        "pin_locked",
	ModeInertiaDecay:     "inertia_decay",
	ModeDragging:         "dragging",
	ModeScroll:           "scroll_mode",
	ModeTransitionLocked: "transition_locked",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Selection is the focused point of interest.
type Selection struct {
	SelectedID string `json:"selected_id"`
	PinLocked  bool   `json:"pin_locked"`
}

// Status is a read-only copy of the controller state.
type Status struct {
	Frame          uint64         `json:"frame"`
	Mode           Mode           `json:"mode"`
	Pose           Pose           `json:"pose"`
	Target         TargetPosition `json:"target"`
	View           TargetView     `json:"view"`
	Velocity       Velocity       `json:"velocity"`
	Selection      Selection      `json:"selection"`
	ScrollProgress float64        `json:"scroll_progress"`
	Transition     *ScriptStatus  `json:"transition,omitempty"`
	Visible        bool           `json:"visible"`
}

// Hooks receive controller notifications. Nil hooks are skipped. Hooks run
// synchronously on the goroutine that owns the controller and must not call
// back into it.
type Hooks struct {
	SelectionChanged func(id string)
	PinLockChanged   func(locked bool)
	PoseChanged      func(p Pose)
	ModeChanged      func(old, new Mode)
}
