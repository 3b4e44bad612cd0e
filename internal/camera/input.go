package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/mapcam/internal/camera/motion"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// Button identifies the pointer button that started a gesture.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

type gestureKind int

const (
	gesturePan gestureKind = iota
	gestureTilt
)

type gesture struct {
	kind      gestureKind
	start     r2.Vec
	last      r2.Vec
	startPose Pose
	picked    bool         // renderer reported a feature under the pointer
	focus     *geo.Feature // fly-to started if the gesture ends as a tap
}

// maxHoverSpeed bounds the pointer travel, in normalized units, that
// accumulates between two ambient updates.
const maxHoverSpeed = 2.0

// PointerDown starts a gesture. The primary button pans and rotates, the
// secondary button tilts. Any running transition is cancelled and the pin is
// released, except for a fly-to that a pick started in this same frame: that
// pointer press is the click the renderer already resolved.
func (c *Controller) PointerDown(x, y float64, button Button) {
	if !finite2(x, y) {
		return
	}
	var kind gestureKind
	switch button {
	case ButtonPrimary:
		kind = gesturePan
	case ButtonSecondary:
		kind = gestureTilt
	default:
		return
	}
	if s := c.script; s != nil && s.Kind == FeatureFocus && s.Token == c.pickToken && c.frame == c.pickFrame {
		monitoring.Debugf("[Camera] pointer down joins pick token=%d", s.Token)
		return
	}
	c.load()
	c.CancelTransition()
	c.external = nil
	c.snapshotTarget()
	if c.scroll.active {
		c.holdScrollEntry()
	}
	c.vel = Velocity{}
	c.zoomVel = 0
	c.ambient.Reset()
	c.hover.speed = r2.Vec{}
	c.setPinLocked(false)

	pt := r2.Vec{X: x, Y: y}
	c.gesture = &gesture{kind: kind, start: pt, last: pt, startPose: poseFrom(c.target, c.view)}
}

// PointerMove applies pointer motion to the active gesture. Without a gesture
// it is ignored; hover input goes through Hover.
func (c *Controller) PointerMove(x, y float64) {
	g := c.gesture
	if g == nil || !finite2(x, y) {
		return
	}
	c.load()
	pt := r2.Vec{X: x, Y: y}
	d := r2.Sub(pt, g.last)
	g.last = pt

	factor := 1 + c.cfg.RotationZoomGain*math.Max(0, c.target.Zoom-c.cfg.MinZoom)
	c.view.Bearing = motion.NormalizeBearing(c.view.Bearing + d.X*c.cfg.RotationSensitivity*factor)

	switch g.kind {
	case gestureTilt:
		pitch := motion.Clamp(c.view.Pitch+d.Y*c.cfg.PitchSensitivity, c.cfg.MinPitch, c.cfg.MaxPitch)
		c.pitchOffset += pitch - c.view.Pitch
		c.view.Pitch = pitch
	default:
		lim := c.cfg.MaxDragZoomOffset
		c.dragZoomOffset = motion.Clamp(c.dragZoomOffset-math.Abs(d.Y)*c.cfg.DragZoomSensitivity, -lim, lim)
		c.translate(d.Y)
	}
}

// translate moves the target along the current bearing. The distance per
// pixel halves with each zoom level so a drag covers similar ground at any
// zoom.
func (c *Controller) translate(dy float64) {
	dist := dy * c.cfg.DragTranslateSensitivity / math.Pow(2, c.target.Zoom)
	rad := c.view.Bearing * math.Pi / 180
	cosLat := math.Cos(c.target.Latitude * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	lat := c.target.Latitude + dist*math.Cos(rad)
	lng := c.target.Longitude + dist*math.Sin(rad)/cosLat
	p := c.region.Clamp(lat, lng)
	c.target.Latitude, c.target.Longitude = p.Latitude, p.Longitude
}

// PointerUp ends the gesture. The release point decides the outcome: within
// the tap threshold of the press it is a tap, which flies to a picked feature
// or, with nothing picked, clears the selection as a background click.
// Anything further is a drag, which clears the selection and hands its net
// pose change to inertia. Scroll mode owns the pose while active, so a drag
// released there leaves no velocity behind.
func (c *Controller) PointerUp(x, y float64) {
	g := c.gesture
	if g == nil {
		return
	}
	if finite2(x, y) {
		c.PointerMove(x, y)
	}
	c.load()
	c.gesture = nil

	if r2.Norm(r2.Sub(g.last, g.start)) <= c.cfg.TapThreshold {
		switch {
		case g.focus != nil:
			_, _ = c.FocusFeature(*g.focus)
		case !g.picked:
			c.ClearSelection()
		}
		return
	}
	if c.selection.SelectedID != "" {
		c.ClearSelection()
	}
	if c.scroll.active {
		c.vel = Velocity{}
		return
	}
	end := poseFrom(c.target, c.view)
	c.vel = c.inertia.FromGesture(g.startPose, end)
	if c.inertia.Active(c.vel) {
		monitoring.Debugf("[Camera] release velocity %+v", c.vel)
	} else {
		c.vel = Velocity{}
	}
}

// Pick records that the renderer found a feature under the pointer during
// the current gesture, so releasing it is not a background click.
func (c *Controller) Pick(featureID string) {
	if c.gesture != nil && featureID != "" {
		c.gesture.picked = true
	}
}

// PickFeature reports that the renderer resolved f under the pointer. During
// a gesture the fly-to waits for the release and only starts if the gesture
// ends as a tap; the returned token is then 0. Without a gesture the fly-to
// starts at once.
func (c *Controller) PickFeature(f geo.Feature) (uint64, error) {
	if err := f.Validate(); err != nil {
		monitoring.Logf("[Camera] ignoring pick: %v", err)
		return 0, err
	}
	if g := c.gesture; g != nil {
		g.picked = true
		g.focus = &f
		return 0, nil
	}
	tok, err := c.FocusFeature(f)
	if err != nil {
		return 0, err
	}
	c.pickToken, c.pickFrame = tok, c.frame
	return tok, nil
}

// TouchStart handles touches. One touch behaves like the primary button; two
// touches start a pinch that drives scroll mode.
func (c *Controller) TouchStart(points []r2.Vec) {
	switch len(points) {
	case 1:
		c.PointerDown(points[0].X, points[0].Y, ButtonPrimary)
	case 2:
		if !vecsFinite(points) || c.script != nil {
			return
		}
		c.load()
		c.gesture = nil
		c.enterScroll()
		c.scroll.pinch = math.Max(r2.Norm(r2.Sub(points[1], points[0])), 1)
	}
}

// TouchMove updates the active touch gesture or pinch.
func (c *Controller) TouchMove(points []r2.Vec) {
	switch len(points) {
	case 1:
		c.PointerMove(points[0].X, points[0].Y)
	case 2:
		if c.scroll.pinch == 0 || !vecsFinite(points) {
			return
		}
		c.load()
		dist := r2.Norm(r2.Sub(points[1], points[0]))
		// Spreading the fingers zooms back in, pinching pulls back.
		delta := (c.scroll.pinch - dist) * c.cfg.PinchSensitivity
		c.scroll.pinch = math.Max(dist, 1)
		c.scroll.target = motion.Clamp(c.scroll.target+delta, 0, 1)
	}
}

// TouchEnd ends the touch gesture or pinch at the last known position.
func (c *Controller) TouchEnd() {
	if c.scroll.pinch != 0 {
		c.scroll.pinch = 0
		return
	}
	if g := c.gesture; g != nil {
		c.PointerUp(g.last.X, g.last.Y)
	}
}

// Wheel pulls the camera back (positive delta) or forward. It is ignored
// during a scripted transition.
func (c *Controller) Wheel(deltaY float64) {
	if c.script != nil || math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return
	}
	c.load()
	c.enterScroll()
	c.scroll.target = motion.Clamp(c.scroll.target+deltaY*c.cfg.WheelSensitivity, 0, 1)
}

func (c *Controller) enterScroll() {
	if c.scroll.active {
		return
	}
	base := c.restingPose()
	c.vel = Velocity{}
	c.scroll = scrollState{active: true, entry: base}
	monitoring.Debugf("[Camera] entering scroll mode from zoom=%.3f pitch=%.3f", base.Zoom, base.Pitch)
}

// Hover feeds the idle pointer position, normalized to [-1, 1] on both axes,
// to the ambient drift model.
func (c *Controller) Hover(nx, ny float64) {
	if !finite2(nx, ny) {
		return
	}
	pt := r2.Vec{X: motion.Clamp(nx, -1, 1), Y: motion.Clamp(ny, -1, 1)}
	if c.hover.seen {
		c.hover.speed = r2.Add(c.hover.speed, r2.Sub(pt, c.hover.pos))
		if n := r2.Norm(c.hover.speed); n > maxHoverSpeed {
			c.hover.speed = r2.Scale(maxHoverSpeed/n, c.hover.speed)
		}
	}
	c.hover.pos = pt
	c.hover.seen = true
}

func finite2(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && !math.IsInf(a, 0) && !math.IsInf(b, 0)
}

func vecsFinite(points []r2.Vec) bool {
	for _, p := range points {
		if !finite2(p.X, p.Y) {
			return false
		}
	}
	return true
}
