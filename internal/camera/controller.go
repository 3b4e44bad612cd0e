package camera

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/mapcam/internal/camera/motion"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// snapEpsilon is the per-component distance under which an eased value lands
// exactly on its target, so a resting pose is bit-stable.
const snapEpsilon = 1e-9

// Settings supplies the coefficients for a tick. *config.Store satisfies it.
type Settings interface {
	Snapshot() config.Smoothness
}

// StaticSettings is a fixed Settings value.
type StaticSettings config.Smoothness

// Snapshot returns the fixed configuration.
func (s StaticSettings) Snapshot() config.Smoothness { return config.Smoothness(s) }

// Controller is the camera state machine. It is not safe for concurrent use.
type Controller struct {
	settings Settings
	hooks    Hooks

	// Per-tick views of the settings.
	cfg     config.Smoothness
	region  geo.Region
	coupler motion.Coupler
	inertia motion.Inertia

	pose    Pose
	target  TargetPosition
	view    TargetView
	vel     Velocity
	zoomVel float64

	dragZoomOffset float64
	pitchOffset    float64

	gesture *gesture
	scroll  scrollState
	ambient *motion.Ambient
	hover   hoverState

	selection Selection
	pinPose   Pose

	script *Script
	token  uint64

	// Fly-to started by a pick with no gesture in progress, and the frame it
	// started in.
	pickToken uint64
	pickFrame uint64

	// Renderer-reported pose while the renderer animates on its own.
	external *Pose

	visible bool
	mode    Mode
	frame   uint64
}

type scrollState struct {
	active   bool
	progress float64
	target   float64
	entry    Pose
	pinch    float64 // last inter-touch distance, 0 when not pinching
}

type hoverState struct {
	pos   r2.Vec
	speed r2.Vec
	seen  bool
}

// NewController creates a controller resting at the center of the
// exploration region.
func NewController(settings Settings, hooks Hooks) *Controller {
	c := &Controller{settings: settings, hooks: hooks, visible: true}
	c.load()
	c.ambient = motion.NewAmbient(motion.AmbientParamsFrom(c.cfg))

	zoom := motion.Clamp(c.cfg.RestingZoom, c.cfg.MinZoom, c.cfg.MaxZoom)
	c.pose = Pose{
		Latitude:  c.cfg.CenterLatitude,
		Longitude: c.cfg.CenterLongitude,
		Zoom:      zoom,
		Pitch:     motion.Clamp(c.coupler.PitchForZoom(zoom), c.cfg.MinPitch, c.cfg.MaxPitch),
	}
	c.snapshotTarget()
	c.mode = c.resolveMode()
	return c
}

// load refreshes the per-tick views from the settings source so edits are
// picked up on the next tick or input event.
func (c *Controller) load() {
	c.cfg = c.settings.Snapshot()
	c.region = geo.NewRegion(c.cfg.CenterLatitude, c.cfg.CenterLongitude, c.cfg.BoundaryRadius)
	c.coupler = motion.CouplerFrom(c.cfg)
	c.inertia = motion.InertiaFrom(c.cfg)
	if c.ambient != nil {
		c.ambient.SetParams(motion.AmbientParamsFrom(c.cfg))
	}
}

// Pose returns the pose rendered by the last tick.
func (c *Controller) Pose() Pose { return c.pose }

// Velocity returns the residual inertia velocity.
func (c *Controller) Velocity() Velocity { return c.vel }

// Selection returns the focused feature, if any.
func (c *Controller) Selection() Selection { return c.selection }

// Token returns the token of the most recent transition.
func (c *Controller) Token() uint64 { return c.token }

// Region returns the exploration boundary in effect.
func (c *Controller) Region() geo.Region { return c.region }

// Mode returns the rule the next tick will apply.
func (c *Controller) Mode() Mode { return c.resolveMode() }

// Status returns a copy of the controller state.
func (c *Controller) Status() Status {
	st := Status{
		Frame:          c.frame,
		Mode:           c.resolveMode(),
		Pose:           c.pose,
		Target:         c.target,
		View:           c.view,
		Velocity:       c.vel,
		Selection:      c.selection,
		ScrollProgress: c.scroll.progress,
		Visible:        c.visible,
	}
	if c.script != nil {
		st.Transition = c.script.status()
	}
	return st
}

// SetVisible pauses or resumes ticking. While hidden a tick changes nothing
// and nothing is replayed on return.
func (c *Controller) SetVisible(visible bool) {
	if c.visible == visible {
		return
	}
	c.visible = visible
	monitoring.Logf("[Camera] visibility changed: visible=%v", visible)
}

// Visible reports whether ticks are being applied.
func (c *Controller) Visible() bool { return c.visible }

func (c *Controller) resolveMode() Mode {
	switch {
	case c.script != nil:
		return ModeTransitionLocked
	case c.scroll.active:
		return ModeScroll
	case c.gesture != nil:
		return ModeDragging
	case c.inertia.Active(c.vel):
		return ModeInertiaDecay
	case c.selection.PinLocked:
		return ModePinLocked
	case c.cfg.AmbientEnabled:
		return ModeAmbient
	default:
		return ModeSettle
	}
}

// Tick advances the camera by one frame and returns the pose to render. dt
// only drives scripted transitions; every other rule is a per-frame fraction.
func (c *Controller) Tick(dt time.Duration) Pose {
	if !c.visible {
		return c.pose
	}
	c.load()
	c.frame++

	prev := c.pose
	prevTarget, prevView, prevVel := c.target, c.view, c.vel
	mode := c.resolveMode()

	if c.external != nil && mode != ModeTransitionLocked {
		c.pose = *c.external
		c.snapshotTarget()
	} else {
		switch mode {
		case ModeTransitionLocked:
			c.tickTransition(dt)
		case ModeScroll:
			c.tickScroll()
		case ModeDragging:
			c.tickDragging()
		case ModeInertiaDecay:
			c.tickInertia()
		case ModePinLocked:
			c.tickPinned()
		case ModeAmbient:
			c.tickAmbient()
		default:
			c.tickSettle()
		}
		c.afterRule(mode)
	}
	c.constrain(mode)

	if !c.pose.Finite() || !c.vel.Finite() || !poseFrom(c.target, c.view).Finite() {
		monitoring.Logf("[Camera] non-finite state in %s, restoring previous pose %+v", mode, prev)
		c.pose = prev
		c.target, c.view = prevTarget, prevView
		if prevVel.Finite() {
			c.vel = prevVel
		} else {
			c.vel = Velocity{}
		}
		c.zoomVel = 0
		c.ambient.Reset()
	}

	if mode != c.mode {
		old := c.mode
		c.mode = mode
		monitoring.Debugf("[Camera] mode %s -> %s", old, mode)
		if c.hooks.ModeChanged != nil {
			c.hooks.ModeChanged(old, mode)
		}
	}
	if c.pose != prev && c.hooks.PoseChanged != nil {
		c.hooks.PoseChanged(c.pose)
	}
	return c.pose
}

func (c *Controller) tickTransition(dt time.Duration) {
	s := c.script
	s.Advance(dt)
	c.pose = s.Pose()
	if s.Done() {
		c.CompleteTransition(s.Token)
	}
}

func (c *Controller) tickScroll() {
	s := &c.scroll
	s.progress = motion.Ease(s.progress, s.target, c.cfg.ScrollSmoothing)

	base := c.restingPose()
	smoothing := c.cfg.IdleSmoothing
	if c.gesture != nil {
		smoothing = c.cfg.DragSmoothing
	}
	c.pose.Latitude = motion.Ease(c.pose.Latitude, base.Latitude, smoothing)
	c.pose.Longitude = motion.Ease(c.pose.Longitude, base.Longitude, smoothing)
	c.pose.Bearing = motion.EaseBearing(c.pose.Bearing, base.Bearing, smoothing)
	c.pose.Zoom = s.entry.Zoom + (c.cfg.ScrollFarZoom-s.entry.Zoom)*s.progress
	c.pose.Pitch = s.entry.Pitch + (c.cfg.ScrollFarPitch-s.entry.Pitch)*s.progress

	if s.pinch == 0 && s.progress < c.cfg.ScrollExitEpsilon && s.target < c.cfg.ScrollExitEpsilon {
		monitoring.Debugf("[Camera] scroll settled, leaving scroll mode")
		if !c.selection.PinLocked {
			c.holdScrollEntry()
		}
		c.vel = Velocity{}
		*s = scrollState{}
	}
}

// holdScrollEntry makes the zoom and pitch scroll mode started from the
// resting target again. The pulled-back scroll pose is never a resting pose.
func (c *Controller) holdScrollEntry() {
	c.target.Zoom = c.scroll.entry.Zoom
	c.view.Pitch = c.scroll.entry.Pitch
	c.dragZoomOffset = 0
	c.pitchOffset = c.view.Pitch - c.coupler.PitchForZoom(c.target.Zoom)
}

func (c *Controller) tickDragging() {
	f := c.cfg.DragSmoothing
	c.pose.Latitude = motion.Ease(c.pose.Latitude, c.target.Latitude, f)
	c.pose.Longitude = motion.Ease(c.pose.Longitude, c.target.Longitude, f)
	c.pose.Zoom = motion.Ease(c.pose.Zoom, c.target.Zoom+c.dragZoomOffset, f)
	c.pose.Pitch = motion.Ease(c.pose.Pitch, c.view.Pitch, f)
	c.pose.Bearing = motion.EaseBearing(c.pose.Bearing, c.view.Bearing, f)
}

func (c *Controller) tickInertia() {
	c.pose, c.vel = c.inertia.Step(c.pose, c.vel, c.region)
	if !c.inertia.Active(c.vel) {
		c.vel = Velocity{}
		c.snapshotTarget()
		monitoring.Debugf("[Camera] inertia settled at %+v", c.pose)
	}
}

func (c *Controller) tickPinned() {
	c.vel = Velocity{}
	c.ambient.Reset()
	c.hover.speed = r2.Vec{}
	f := c.cfg.IdleSmoothing
	p := Pose{
		Latitude:  motion.Ease(c.pose.Latitude, c.pinPose.Latitude, f),
		Longitude: motion.Ease(c.pose.Longitude, c.pinPose.Longitude, f),
		Zoom:      motion.Ease(c.pose.Zoom, c.pinPose.Zoom, f),
		Pitch:     motion.Ease(c.pose.Pitch, c.pinPose.Pitch, f),
		Bearing:   motion.EaseBearing(c.pose.Bearing, c.pinPose.Bearing, f),
	}
	if near(p, c.pinPose, snapEpsilon) {
		p = c.pinPose
	}
	c.pose = p
}

func (c *Controller) tickAmbient() {
	c.ambient.Update(c.hover.pos, c.hover.speed)
	c.hover.speed = r2.Vec{}
	off := c.ambient.Offset()

	clamped := c.region.Clamp(c.target.Latitude+off.Latitude, c.target.Longitude+off.Longitude)
	f := c.cfg.AmbientSmoothing
	c.pose.Latitude = motion.Ease(c.pose.Latitude, clamped.Latitude, f)
	c.pose.Longitude = motion.Ease(c.pose.Longitude, clamped.Longitude, f)
	c.pose.Zoom = easeSnap(c.pose.Zoom, c.target.Zoom+c.dragZoomOffset, f)
	c.pose.Pitch = motion.Ease(c.pose.Pitch, c.view.Pitch+off.Pitch, f)
	c.pose.Bearing = motion.EaseBearing(c.pose.Bearing, c.view.Bearing+off.Bearing, f)
}

func (c *Controller) tickSettle() {
	f := c.cfg.IdleSmoothing
	c.pose.Latitude = motion.Ease(c.pose.Latitude, c.target.Latitude, f)
	c.pose.Longitude = motion.Ease(c.pose.Longitude, c.target.Longitude, f)
	c.pose.Zoom = easeSnap(c.pose.Zoom, c.target.Zoom+c.dragZoomOffset, f)
	c.pose.Pitch = motion.Ease(c.pose.Pitch, c.view.Pitch, f)
	c.pose.Bearing = motion.EaseBearing(c.pose.Bearing, c.view.Bearing, f)
}

// easeSnap eases cur toward target and lands on it once within snapEpsilon.
func easeSnap(cur, target, f float64) float64 {
	v := motion.Ease(cur, target, f)
	if math.Abs(v-target) < snapEpsilon {
		return target
	}
	return v
}

// afterRule runs the zoom spring and the pitch coupling on the resting target.
// The spring runs in every mode except a scripted transition and while
// pinned. Inertia moves the pose, not the target, so the two never fight.
func (c *Controller) afterRule(mode Mode) {
	free := mode == ModeAmbient || mode == ModeSettle
	if free {
		c.dragZoomOffset = motion.Ease(c.dragZoomOffset, 0, c.cfg.IdleSmoothing)
		if math.Abs(c.dragZoomOffset) < c.cfg.ZoomVelocityEpsilon {
			c.dragZoomOffset = 0
		}
	}
	if c.cfg.ZoomStabilize && mode != ModeTransitionLocked && !c.selection.PinLocked {
		c.target.Zoom, c.zoomVel = c.coupler.StabilizeZoom(c.target.Zoom, c.zoomVel)
	} else {
		c.zoomVel = 0
	}
	if c.cfg.PitchFollowsZoom && (free || mode == ModeDragging) {
		c.view.Pitch = c.coupler.PitchForZoom(c.target.Zoom+c.dragZoomOffset) + c.pitchOffset
	}
}

// constrain clamps zoom and pitch to their bounds and the position to the
// region. Pinned and scripted poses are exempt from the region so a feature
// outside it can still be framed.
func (c *Controller) constrain(mode Mode) {
	cfg := c.cfg
	c.pose.Zoom = motion.Clamp(c.pose.Zoom, cfg.MinZoom, cfg.MaxZoom)
	c.pose.Pitch = motion.Clamp(c.pose.Pitch, cfg.MinPitch, cfg.MaxPitch)
	c.pose.Bearing = motion.NormalizeBearing(c.pose.Bearing)
	c.target.Zoom = motion.Clamp(c.target.Zoom, cfg.MinZoom, cfg.MaxZoom)
	c.view.Pitch = motion.Clamp(c.view.Pitch, cfg.MinPitch, cfg.MaxPitch)
	c.view.Bearing = motion.NormalizeBearing(c.view.Bearing)

	if mode == ModeInertiaDecay {
		if c.pose.Zoom == cfg.MinZoom || c.pose.Zoom == cfg.MaxZoom {
			c.vel.Zoom = 0
		}
		if c.pose.Pitch == cfg.MinPitch || c.pose.Pitch == cfg.MaxPitch {
			c.vel.Pitch = 0
		}
	}

	if mode == ModeTransitionLocked || c.selection.PinLocked {
		return
	}
	p := c.region.Clamp(c.pose.Latitude, c.pose.Longitude)
	c.pose.Latitude, c.pose.Longitude = p.Latitude, p.Longitude
	t := c.region.Clamp(c.target.Latitude, c.target.Longitude)
	c.target.Latitude, c.target.Longitude = t.Latitude, t.Longitude
}

// restingPose is the pose the camera settles on absent input.
func (c *Controller) restingPose() Pose {
	if c.selection.PinLocked {
		return c.pinPose
	}
	return poseFrom(c.target, c.view)
}

// snapshotTarget makes the current pose the resting target.
func (c *Controller) snapshotTarget() {
	c.target, c.view = targetFrom(c.pose)
	c.dragZoomOffset = 0
	c.pitchOffset = c.view.Pitch - c.coupler.PitchForZoom(c.target.Zoom)
}

// ---- transitions ----

// FocusFeature starts a fly-to toward f. Invalid features are logged and
// ignored without any state change.
func (c *Controller) FocusFeature(f geo.Feature) (uint64, error) {
	if err := f.Validate(); err != nil {
		monitoring.Logf("[Camera] ignoring focus request: %v", err)
		return 0, err
	}
	c.load()
	to := Pose{
		Latitude:  f.Latitude(),
		Longitude: f.Longitude(),
		Zoom:      motion.Clamp(c.cfg.FocusZoom, c.cfg.MinZoom, c.cfg.MaxZoom),
		Pitch:     motion.Clamp(c.cfg.FocusPitch, c.cfg.MinPitch, c.cfg.MaxPitch),
		Bearing:   motion.NormalizeBearing(c.cfg.FocusBearing),
	}
	c.setPinLocked(false)
	tok := c.begin(FeatureFocus, c.pose, to, c.cfg.FocusDuration)
	c.script.FeatureID = f.ID
	monitoring.Logf("[Camera] focusing feature %q (%s) token=%d", f.ID, f.Name, tok)
	return tok, nil
}

// BeginInitialFraming jumps to the overview pose and flies to the default
// framing.
func (c *Controller) BeginInitialFraming() uint64 {
	c.load()
	from := c.overviewPose()
	c.pose = from
	return c.begin(InitialFraming, from, c.framingPose(), c.cfg.FramingDuration)
}

// Revert clears the selection and flies back to the default framing.
func (c *Controller) Revert() uint64 {
	c.load()
	c.setSelection("")
	c.setPinLocked(false)
	return c.begin(Revert, c.pose, c.framingPose(), c.cfg.RevertDuration)
}

func (c *Controller) begin(kind ScriptKind, from, to Pose, d time.Duration) uint64 {
	if c.script != nil {
		monitoring.Debugf("[Camera] %s token=%d superseded", c.script.Kind, c.script.Token)
	}
	c.token++
	c.script = &Script{
		Kind:     kind,
		Token:    c.token,
		From:     from,
		To:       to,
		Duration: d,
		Hold:     c.cfg.TransitionHold,
	}
	c.gesture = nil
	c.scroll = scrollState{}
	c.external = nil
	c.vel = Velocity{}
	c.zoomVel = 0
	c.ambient.Reset()
	return c.token
}

// CompleteTransition finishes the transition identified by token. It reports
// false, and changes nothing, when the token is no longer current.
func (c *Controller) CompleteTransition(token uint64) bool {
	s := c.script
	if s == nil || token != c.token || s.Token != token {
		monitoring.Debugf("[Camera] discarding stale transition completion token=%d current=%d", token, c.token)
		return false
	}
	c.script = nil
	c.pose = s.To
	c.vel = Velocity{}
	c.snapshotTarget()

	switch s.Kind {
	case FeatureFocus:
		c.pinPose = s.To
		c.setSelection(s.FeatureID)
		c.setPinLocked(true)
	default:
		c.ambient.Reset()
	}
	monitoring.Logf("[Camera] %s complete token=%d", s.Kind, token)
	return true
}

// CancelTransition abandons the running transition at its current pose.
func (c *Controller) CancelTransition() {
	if c.script == nil {
		return
	}
	monitoring.Debugf("[Camera] %s token=%d cancelled", c.script.Kind, c.script.Token)
	c.script = nil
	c.token++
	c.snapshotTarget()
}

func (c *Controller) overviewPose() Pose {
	return Pose{
		Latitude:  c.cfg.CenterLatitude,
		Longitude: c.cfg.CenterLongitude,
		Zoom:      motion.Clamp(c.cfg.OverviewZoom, c.cfg.MinZoom, c.cfg.MaxZoom),
		Pitch:     motion.Clamp(c.cfg.OverviewPitch, c.cfg.MinPitch, c.cfg.MaxPitch),
		Bearing:   motion.NormalizeBearing(c.cfg.OverviewBearing),
	}
}

func (c *Controller) framingPose() Pose {
	return Pose{
		Latitude:  c.cfg.CenterLatitude,
		Longitude: c.cfg.CenterLongitude,
		Zoom:      motion.Clamp(c.cfg.FramingZoom, c.cfg.MinZoom, c.cfg.MaxZoom),
		Pitch:     motion.Clamp(c.cfg.FramingPitch, c.cfg.MinPitch, c.cfg.MaxPitch),
		Bearing:   motion.NormalizeBearing(c.cfg.FramingBearing),
	}
}

// ---- renderer ----

// ErrNonFinitePose is returned when the renderer reports an unusable pose.
var ErrNonFinitePose = errors.New("non-finite pose")

// SyncRenderer records the pose the renderer actually displayed. While the
// renderer reports it is moving on its own, ticks adopt that pose instead of
// running a motion rule; the final report becomes the resting target.
func (c *Controller) SyncRenderer(p Pose, moving bool) error {
	if !p.Finite() {
		return fmt.Errorf("renderer pose %+v: %w", p, ErrNonFinitePose)
	}
	if c.script != nil {
		return nil
	}
	if moving {
		c.external = &p
		return nil
	}
	if c.external != nil {
		c.external = nil
		c.pose = p
		c.snapshotTarget()
	}
	return nil
}

// ---- selection ----

func (c *Controller) setSelection(id string) {
	if c.selection.SelectedID == id {
		return
	}
	c.selection.SelectedID = id
	if c.hooks.SelectionChanged != nil {
		c.hooks.SelectionChanged(id)
	}
}

func (c *Controller) setPinLocked(locked bool) {
	if c.selection.PinLocked == locked {
		return
	}
	c.selection.PinLocked = locked
	if locked {
		c.vel = Velocity{}
		c.ambient.Reset()
	}
	if c.hooks.PinLockChanged != nil {
		c.hooks.PinLockChanged(locked)
	}
}

// ClearSelection drops the focused feature and releases the pin.
func (c *Controller) ClearSelection() {
	c.setPinLocked(false)
	c.setSelection("")
}

func near(a, b Pose, eps float64) bool {
	return math.Abs(a.Latitude-b.Latitude) < eps &&
		math.Abs(a.Longitude-b.Longitude) < eps &&
		math.Abs(a.Zoom-b.Zoom) < eps &&
		math.Abs(a.Pitch-b.Pitch) < eps &&
		math.Abs(motion.BearingDelta(a.Bearing, b.Bearing)) < eps
}
