// Package loop drives the camera controller at a fixed frame rate on a
// single goroutine. Every other goroutine talks to the controller by posting
// commands, which run in arrival order before the next tick.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/monitoring"
	"github.com/banshee-data/mapcam/internal/timeutil"
)

var (
	// ErrQueueFull is returned when the command queue cannot take more work.
	ErrQueueFull = errors.New("command queue full")
	// ErrStopped is returned for commands posted after the runner exited.
	ErrStopped = errors.New("runner stopped")
)

// Config holds runner settings.
type Config struct {
	// FrameInterval is the nominal tick period. When Settings is set the
	// frame_rate coefficient overrides it on every frame.
	FrameInterval time.Duration

	// MaxDelta bounds the dt passed to a single tick.
	MaxDelta time.Duration

	// QueueSize is the capacity of the command queue.
	QueueSize int

	// Settings optionally supplies a live frame rate.
	Settings camera.Settings
}

// DefaultConfig returns a 60 fps configuration.
func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / 60,
		MaxDelta:      100 * time.Millisecond,
		QueueSize:     256,
	}
}

// State is the snapshot published after every frame.
type State struct {
	camera.Status
	Time time.Time `json:"time"`
}

// Observer receives every published state on the loop goroutine. It must not
// block.
type Observer func(State)

// Runner owns a camera.Controller.
type Runner struct {
	cfg   Config
	ctrl  *camera.Controller
	clock timeutil.Clock
	cmds  chan func(*camera.Controller)

	state     atomic.Pointer[State]
	observers []Observer
	obsMu     sync.Mutex

	interval time.Duration
	timer    *timeutil.FrameTimer

	running atomic.Bool
	stopped atomic.Bool
	frames  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a runner for ctrl. A nil clock means the real clock.
func New(ctrl *camera.Controller, clock timeutil.Clock, cfg Config) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	def := DefaultConfig()
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if cfg.MaxDelta <= 0 {
		cfg.MaxDelta = def.MaxDelta
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	r := &Runner{
		cfg:      cfg,
		ctrl:     ctrl,
		clock:    clock,
		cmds:     make(chan func(*camera.Controller), cfg.QueueSize),
		interval: cfg.FrameInterval,
	}
	r.interval = r.currentInterval()
	r.timer = timeutil.NewFrameTimer(clock, r.interval, cfg.MaxDelta)
	r.publish()
	return r
}

// AddObserver registers fn for every published state.
func (r *Runner) AddObserver(fn Observer) {
	r.obsMu.Lock()
	r.observers = append(r.observers, fn)
	r.obsMu.Unlock()
}

// Post queues fn to run on the loop goroutine before the next tick.
func (r *Runner) Post(fn func(*camera.Controller)) error {
	if r.stopped.Load() {
		return ErrStopped
	}
	select {
	case r.cmds <- fn:
		return nil
	default:
		n := r.dropped.Add(1)
		monitoring.Logf("[Loop] command queue full, dropped command (total dropped: %d)", n)
		return ErrQueueFull
	}
}

// Do runs fn on the loop goroutine and waits for its result.
func (r *Runner) Do(ctx context.Context, fn func(*camera.Controller) error) error {
	done := make(chan error, 1)
	if err := r.Post(func(c *camera.Controller) { done <- fn(c) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for camera command: %w", ctx.Err())
	}
}

// State returns the most recent published snapshot.
func (r *Runner) State() State {
	return *r.state.Load()
}

// Frames returns the number of frames processed.
func (r *Runner) Frames() uint64 {
	return r.frames.Load()
}

// Run ticks until ctx is cancelled. The ticker keeps firing while the
// controller is hidden; hidden frames only drain commands.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("runner already running")
	}
	defer r.running.Store(false)
	defer r.stopped.Store(true)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	monitoring.Logf("[Loop] frame loop started at %v per frame", r.interval)

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("[Loop] frame loop stopped after %d frames", r.frames.Load())
			return nil
		case <-ticker.C():
			r.step()
			if next := r.currentInterval(); next != r.interval {
				monitoring.Logf("[Loop] frame interval changed %v -> %v", r.interval, next)
				r.interval = next
				ticker.Reset(next)
			}
		}
	}
}

// Step runs one frame synchronously. It must not be called while Run is
// active; headless tools drive the runner this way.
func (r *Runner) Step() State {
	r.step()
	return r.State()
}

func (r *Runner) step() {
	r.drain()
	if !r.ctrl.Visible() {
		// No catch-up on return.
		r.timer.Restart()
		r.publish()
		return
	}
	r.ctrl.Tick(r.timer.Delta())
	r.frames.Add(1)
	r.publish()
}

func (r *Runner) drain() {
	for {
		select {
		case fn := <-r.cmds:
			fn(r.ctrl)
		default:
			return
		}
	}
}

func (r *Runner) publish() {
	st := &State{Status: r.ctrl.Status(), Time: r.clock.Now()}
	r.state.Store(st)

	r.obsMu.Lock()
	obs := r.observers
	r.obsMu.Unlock()
	for _, fn := range obs {
		fn(*st)
	}
}

func (r *Runner) currentInterval() time.Duration {
	if r.cfg.Settings == nil {
		return r.cfg.FrameInterval
	}
	fps := r.cfg.Settings.Snapshot().FrameRate
	if fps <= 0 {
		return r.cfg.FrameInterval
	}
	return time.Duration(float64(time.Second) / fps)
}
