package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/timeutil"
	"github.com/banshee-data/mapcam/internal/trace"
)

// step is one scripted frame: an optional input followed by a tick.
type step func(c *camera.Controller)

// scenario builds the per-frame inputs for a run of n frames.
type scenario func(s settingsView, n int) ([]step, error)

type settingsView struct {
	lat, lng float64
}

var scenarios = map[string]scenario{
	"drag":  dragScenario,
	"flick": flickScenario,
	"wheel": wheelScenario,
	"focus": focusScenario,
	"idle":  idleScenario,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func idleScenario(_ settingsView, n int) ([]step, error) {
	return make([]step, n), nil
}

// dragScenario rotates slowly for half a second and releases without
// velocity.
func dragScenario(_ settingsView, n int) ([]step, error) {
	steps := make([]step, n)
	steps[0] = func(c *camera.Controller) { c.PointerDown(400, 300, camera.ButtonPrimary) }
	for i := 1; i < 30 && i < n; i++ {
		x := 400 + float64(i)*4
		steps[i] = func(c *camera.Controller) { c.PointerMove(x, 300) }
	}
	if n > 30 {
		steps[30] = func(c *camera.Controller) { c.PointerUp(516, 300) }
	}
	return steps, nil
}

// flickScenario releases a fast horizontal drag so inertia carries the
// bearing.
func flickScenario(_ settingsView, n int) ([]step, error) {
	steps := make([]step, n)
	steps[0] = func(c *camera.Controller) { c.PointerDown(200, 300, camera.ButtonPrimary) }
	for i := 1; i < 8 && i < n; i++ {
		x := 200 + float64(i)*40
		steps[i] = func(c *camera.Controller) { c.PointerMove(x, 300) }
	}
	if n > 8 {
		steps[8] = func(c *camera.Controller) { c.PointerUp(520, 300) }
	}
	return steps, nil
}

// wheelScenario scrolls out in a burst of wheel events.
func wheelScenario(_ settingsView, n int) ([]step, error) {
	steps := make([]step, n)
	for i := 0; i < 20 && i < n; i += 2 {
		steps[i] = func(c *camera.Controller) { c.Wheel(120) }
	}
	return steps, nil
}

// focusScenario selects a feature just off the region centre, then reverts
// halfway through the run.
func focusScenario(s settingsView, n int) ([]step, error) {
	f := geo.Feature{
		ID:          "trace-focus",
		Name:        "Trace focus",
		Coordinates: orb.Point{s.lng + 0.004, s.lat + 0.002},
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	steps := make([]step, n)
	steps[0] = func(c *camera.Controller) { _, _ = c.PickFeature(f) }
	if n > 1 {
		steps[n/2] = func(c *camera.Controller) { c.Revert() }
	}
	return steps, nil
}

// run drives the controller headlessly on a mock clock and records every
// frame.
func run(ctrl *camera.Controller, steps []step, frameInterval time.Duration, rec *trace.Recorder) error {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	cfg := loop.DefaultConfig()
	cfg.FrameInterval = frameInterval
	cfg.QueueSize = 4
	runner := loop.New(ctrl, clock, cfg)
	runner.AddObserver(rec.Observe)

	for i, s := range steps {
		if s != nil {
			if err := runner.Post(s); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
		runner.Step()
		clock.Advance(frameInterval)
	}
	return nil
}
