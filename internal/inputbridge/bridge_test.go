package inputbridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

// directSink applies commands immediately.
type directSink struct {
	c    *camera.Controller
	full bool
}

func (s *directSink) Post(fn func(*camera.Controller)) error {
	if s.full {
		return errors.New("queue full")
	}
	fn(s.c)
	return nil
}

func newSink() *directSink {
	return &directSink{c: camera.NewController(camera.StaticSettings(config.DefaultSmoothness()), camera.Hooks{})}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		wantErr error
	}{
		{"pointer down", `{"type":"pointer_down","x":1,"y":2,"button":"right"}`,
			Event{Type: PointerDown, X: 1, Y: 2, Button: "right"}, nil},
		{"wheel", `{"type":"wheel","delta_y":-120}`, Event{Type: Wheel, DeltaY: -120}, nil},
		{"pinch", `{"type":"touch_start","points":[[0,0],[100,0]]}`,
			Event{Type: TouchStart, Points: [][2]float64{{0, 0}, {100, 0}}}, nil},
		{"not json", `pointer_down 1 2`, Event{}, ErrMalformedEvent},
		{"missing type", `{"x":1}`, Event{}, ErrMalformedEvent},
		{"unknown type", `{"type":"teleport"}`, Event{}, ErrUnknownEvent},
		{"bad button", `{"type":"pointer_down","button":"thumb"}`, Event{}, ErrMalformedEvent},
		{"three touches", `{"type":"touch_move","points":[[0,0],[1,1],[2,2]]}`, Event{}, ErrMalformedEvent},
		{"pick without id", `{"type":"pick"}`, Event{}, ErrMalformedEvent},
		{"visibility without flag", `{"type":"visibility"}`, Event{}, ErrMalformedEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.line))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDragStartsDragging(t *testing.T) {
	s := newSink()
	b := New(s, "test")

	require.NoError(t, b.Handle([]byte(`{"type":"pointer_down","x":100,"y":100}`)))
	require.NoError(t, b.Handle([]byte(`{"type":"pointer_move","x":160,"y":100}`)))
	assert.Equal(t, camera.ModeDragging, s.c.Mode())

	require.NoError(t, b.Handle([]byte(`{"type":"pointer_up","x":160,"y":100}`)))
	assert.NotEqual(t, camera.ModeDragging, s.c.Mode())
}

func TestApplyWheelAndVisibility(t *testing.T) {
	s := newSink()
	b := New(s, "test")

	require.NoError(t, b.Handle([]byte(`{"type":"wheel","delta_y":200}`)))
	assert.Equal(t, camera.ModeScroll, s.c.Mode())

	require.NoError(t, b.Handle([]byte(`{"type":"visibility","visible":false}`)))
	assert.False(t, s.c.Visible())
}

func TestHandleCounters(t *testing.T) {
	s := newSink()
	b := New(s, "test")

	require.NoError(t, b.Handle([]byte("   ")))
	require.NoError(t, b.Handle([]byte(`{"type":"hover","x":0.5,"y":0.5}`)))
	assert.Error(t, b.Handle([]byte(`{"type":"nope"}`)))

	s.full = true
	assert.Error(t, b.Handle([]byte(`{"type":"hover","x":0.1,"y":0.1}`)))

	assert.Equal(t, Stats{Applied: 1, Rejected: 1, Dropped: 1}, b.Stats())
}

func TestRunSkipsBadLinesUntilEOF(t *testing.T) {
	s := newSink()
	b := New(s, "test")

	input := strings.Join([]string{
		`{"type":"pointer_down","x":10,"y":10}`,
		`garbage`,
		``,
		`{"type":"pointer_move","x":80,"y":10}`,
		`{"type":"pointer_up","x":80,"y":10}`,
	}, "\n")

	err := b.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 3, Rejected: 1}, b.Stats())
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newSink()
	b := New(s, "test")

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, pr) }()

	_, err := pw.Write([]byte(`{"type":"wheel","delta_y":10}` + "\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return b.Stats().Applied == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsReadError(t *testing.T) {
	b := New(newSink(), "test")
	pr, pw := io.Pipe()
	pw.CloseWithError(errors.New("port unplugged"))
	err := b.Run(context.Background(), pr)
	assert.ErrorContains(t, err, "port unplugged")
}

func TestPortOptions(t *testing.T) {
	mode, err := PortOptions{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 115200, DataBits: 8, StopBits: serial.OneStopBit, Parity: serial.NoParity}, mode)

	mode, err = PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)

	for _, bad := range []PortOptions{{DataBits: 9}, {StopBits: 3}, {Parity: "mark"}} {
		_, err := bad.Normalize()
		assert.Error(t, err, "%+v", bad)
	}

	_, err = OpenSerial("/dev/does-not-exist", PortOptions{})
	assert.Error(t, err)
}
