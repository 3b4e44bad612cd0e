// Package trace records per-frame camera samples and renders them as PNG
// plots or an interactive HTML chart for tuning the motion model.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/loop"
)

// DefaultCapacity holds about one minute of frames at 60 fps.
const DefaultCapacity = 3600

// Sample is one recorded frame.
type Sample struct {
	Frame uint64          `json:"frame"`
	Time  time.Time       `json:"time"`
	Mode  camera.Mode     `json:"mode"`
	Pose  camera.Pose     `json:"pose"`
	Vel   camera.Velocity `json:"velocity"`
}

// Recorder keeps the most recent samples in a fixed-size ring.
type Recorder struct {
	mu      sync.Mutex
	runID   string
	buf     []Sample
	next    int
	full    bool
	enabled bool
}

// NewRecorder creates an enabled recorder. capacity <= 0 means DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		runID:   uuid.NewString(),
		buf:     make([]Sample, capacity),
		enabled: true,
	}
}

// RunID identifies the current recording. Reset starts a new one.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// SetEnabled pauses or resumes recording.
func (r *Recorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
}

// Observe is a loop.Observer. Hidden frames are skipped, as are repeats of
// the same frame number.
func (r *Recorder) Observe(st loop.State) {
	if !st.Visible {
		return
	}
	r.Record(Sample{
		Frame: st.Frame,
		Time:  st.Time,
		Mode:  st.Mode,
		Pose:  st.Pose,
		Vel:   st.Velocity,
	})
}

// Record appends s, overwriting the oldest sample when full.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	if last, ok := r.lastLocked(); ok && last.Frame == s.Frame {
		return
	}
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *Recorder) lastLocked() (Sample, bool) {
	if !r.full && r.next == 0 {
		return Sample{}, false
	}
	i := (r.next - 1 + len(r.buf)) % len(r.buf)
	return r.buf[i], true
}

// Len returns the number of samples held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Samples returns the held samples, oldest first.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Sample(nil), r.buf[:r.next]...)
	}
	out := make([]Sample, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Reset drops all samples and starts a new run.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.next = 0
	r.full = false
	r.runID = uuid.NewString()
}

// Summary describes a recording.
type Summary struct {
	RunID       string         `json:"run_id"`
	Samples     int            `json:"samples"`
	FirstFrame  uint64         `json:"first_frame"`
	LastFrame   uint64         `json:"last_frame"`
	ModeFrames  map[string]int `json:"mode_frames"`
	Transitions int            `json:"mode_transitions"`
	Final       camera.Pose    `json:"final_pose"`
}

// Summarize counts frames per mode and mode changes.
func (r *Recorder) Summarize() Summary {
	samples := r.Samples()
	sum := Summary{
		RunID:      r.RunID(),
		Samples:    len(samples),
		ModeFrames: make(map[string]int),
	}
	for i, s := range samples {
		sum.ModeFrames[s.Mode.String()]++
		if i > 0 && samples[i-1].Mode != s.Mode {
			sum.Transitions++
		}
	}
	if n := len(samples); n > 0 {
		sum.FirstFrame = samples[0].Frame
		sum.LastFrame = samples[n-1].Frame
		sum.Final = samples[n-1].Pose
	}
	return sum
}
