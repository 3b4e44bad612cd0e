package stream

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

type featureMap map[string]geo.Feature

func (m featureMap) Feature(_ context.Context, id string) (geo.Feature, error) {
	f, ok := m[id]
	if !ok {
		return geo.Feature{}, geo.ErrFeatureNotFound
	}
	return f, nil
}

var testFeatures = featureMap{
	"ramp": {ID: "ramp", Name: "Boat ramp", Coordinates: orb.Point{-84.81, 33.61}},
	"bad":  {ID: "bad", Coordinates: orb.Point{math.NaN(), 33.61}},
}

type harness struct {
	pub    *Publisher
	runner *loop.Runner
	client *Client
}

func newHarness(t *testing.T, cfg Config, withReporter bool) *harness {
	t.Helper()
	ctrl := camera.NewController(camera.StaticSettings(config.DefaultSmoothness()), camera.Hooks{})
	runner := loop.New(ctrl, nil, loop.Config{FrameInterval: 5 * time.Millisecond})

	pub := NewPublisher(cfg)
	var reporter Reporter
	if withReporter {
		reporter = CameraReporter{Runner: runner, Features: testFeatures}
	}

	lis := bufconn.Listen(1 << 20)
	require.NoError(t, pub.Serve(lis, NewServer(pub, reporter)))
	t.Cleanup(pub.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runner.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{pub: pub, runner: runner, client: NewClient(conn)}
}

func TestSubscribeReceivesFrames(t *testing.T) {
	h := newHarness(t, Config{}, false)
	h.runner.AddObserver(h.pub.Observe)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := h.client.Subscribe(ctx, nil)
	require.NoError(t, err)

	frame, err := stream.Recv()
	require.NoError(t, err)

	fields := frame.GetFields()
	assert.Contains(t, []string{"ambient", "settle"}, fields["mode"].GetStringValue())
	assert.True(t, fields["visible"].GetBoolValue())
	assert.Positive(t, fields["frame"].GetNumberValue())

	p, err := DecodeFramePose(frame)
	require.NoError(t, err)
	def := config.DefaultSmoothness()
	assert.InDelta(t, def.CenterLatitude, p.Latitude, def.BoundaryRadius)
	assert.InDelta(t, def.CenterLongitude, p.Longitude, 2*def.BoundaryRadius)
}

func TestSubscribeDecimation(t *testing.T) {
	h := newHarness(t, Config{ClientBuffer: 64}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"every_n": 3})
	require.NoError(t, err)
	stream, err := h.client.Subscribe(ctx, req)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.pub.Stats().ClientCount == 1 },
		2*time.Second, 5*time.Millisecond)

	for i := 1; i <= 7; i++ {
		h.pub.Observe(loop.State{Status: camera.Status{Frame: uint64(i)}, Time: time.Unix(0, 0)})
	}

	var got []float64
	for range 3 {
		frame, err := stream.Recv()
		require.NoError(t, err)
		got = append(got, frame.GetFields()["frame"].GetNumberValue())
	}
	assert.Equal(t, []float64{1, 4, 7}, got)
}

func TestSubscribeTooManyClients(t *testing.T) {
	h := newHarness(t, Config{MaxClients: 1}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.client.Subscribe(ctx, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.pub.Stats().ClientCount == 1 },
		2*time.Second, 5*time.Millisecond)

	second, err := h.client.Subscribe(ctx, nil)
	require.NoError(t, err)
	_, err = second.Recv()
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestReportPickStartsFocus(t *testing.T) {
	h := newHarness(t, Config{}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := h.client.Report(ctx, PickReport("ramp"))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["ok"].GetBoolValue())

	require.Eventually(t, func() bool {
		tr := h.runner.State().Transition
		return tr != nil && tr.Kind == camera.FeatureFocus && tr.FeatureID == "ramp"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReportPickInsideTapFliesOnRelease(t *testing.T) {
	h := newHarness(t, Config{}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, h.runner.Do(ctx, func(c *camera.Controller) error {
		c.PointerDown(50, 50, camera.ButtonPrimary)
		return nil
	}))
	_, err := h.client.Report(ctx, PickReport("ramp"))
	require.NoError(t, err)
	require.NoError(t, h.runner.Do(ctx, func(c *camera.Controller) error {
		assert.Equal(t, camera.ModeDragging, c.Mode())
		c.PointerUp(50, 50)
		return nil
	}))

	require.Eventually(t, func() bool {
		tr := h.runner.State().Transition
		return tr != nil && tr.Kind == camera.FeatureFocus && tr.FeatureID == "ramp"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReportErrors(t *testing.T) {
	h := newHarness(t, Config{}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name string
		req  *structpb.Struct
		code codes.Code
	}{
		{"unknown feature", PickReport("nope"), codes.NotFound},
		{"invalid feature", PickReport("bad"), codes.InvalidArgument},
		{"missing feature id", PickReport(""), codes.InvalidArgument},
		{"unknown type", &structpb.Struct{Fields: map[string]*structpb.Value{
			"type": structpb.NewStringValue("teleport"),
		}}, codes.InvalidArgument},
		{"pose missing", &structpb.Struct{Fields: map[string]*structpb.Value{
			"type": structpb.NewStringValue("realized"),
		}}, codes.InvalidArgument},
		{"non-finite pose", RealizedReport(camera.Pose{Latitude: math.Inf(1), Zoom: 16}, false), codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Report(ctx, tt.req)
			assert.Equal(t, tt.code, status.Code(err), "err = %v", err)
		})
	}

	// None of the rejected reports may start a transition.
	var token uint64
	require.NoError(t, h.runner.Do(ctx, func(c *camera.Controller) error {
		token = c.Token()
		return nil
	}))
	assert.Zero(t, token)
}

func TestReportRealizedAdoptsPose(t *testing.T) {
	h := newHarness(t, Config{}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	def := config.DefaultSmoothness()
	want := camera.Pose{
		Latitude:  def.CenterLatitude + 0.001,
		Longitude: def.CenterLongitude,
		Zoom:      17,
		Pitch:     40,
		Bearing:   30,
	}
	_, err := h.client.Report(ctx, RealizedReport(want, true))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got := h.runner.State().Pose
		return math.Abs(got.Zoom-want.Zoom) < 1e-9 && math.Abs(got.Bearing-want.Bearing) < 1e-9
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReportWithoutReporter(t *testing.T) {
	h := newHarness(t, Config{}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.client.Report(ctx, PickReport("ramp"))
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestEncodeState(t *testing.T) {
	st := loop.State{
		Status: camera.Status{
			Frame:          42,
			Mode:           camera.ModeTransitionLocked,
			Pose:           camera.Pose{Latitude: 1, Longitude: 2, Zoom: 15, Pitch: 30, Bearing: -90},
			Selection:      camera.Selection{SelectedID: "ramp"},
			ScrollProgress: 0.25,
			Transition:     &camera.ScriptStatus{Kind: camera.Revert, Token: 7, Progress: 0.5},
			Visible:        true,
		},
		Time: time.Unix(1, 500),
	}
	frame, err := encodeState(st)
	require.NoError(t, err)

	fields := frame.GetFields()
	assert.Equal(t, float64(42), fields["frame"].GetNumberValue())
	assert.Equal(t, float64(1_000_000_500), fields["time_ns"].GetNumberValue())
	assert.Equal(t, "transition_locked", fields["mode"].GetStringValue())
	assert.Equal(t, "ramp", fields["selected_id"].GetStringValue())
	assert.Equal(t, 0.25, fields["scroll_progress"].GetNumberValue())

	tr := fields["transition"].GetStructValue().GetFields()
	assert.Equal(t, "revert", tr["kind"].GetStringValue())
	assert.Equal(t, float64(7), tr["token"].GetNumberValue())

	p, err := DecodeFramePose(frame)
	require.NoError(t, err)
	assert.Equal(t, st.Pose, p)
}

func TestDecodePoseRejectsWrongTypes(t *testing.T) {
	pose, err := structpb.NewStruct(map[string]any{
		"latitude": 1, "longitude": 2, "zoom": "high", "pitch": 0, "bearing": 0,
	})
	require.NoError(t, err)
	_, err = decodePose(structpb.NewStructValue(pose))
	assert.ErrorContains(t, err, "pose.zoom must be a number")

	_, err = decodePose(structpb.NewStringValue("pose"))
	assert.ErrorContains(t, err, "must be an object")
}

func TestPublisherStopIsIdempotent(t *testing.T) {
	pub := NewPublisher(Config{})
	lis := bufconn.Listen(1 << 16)
	require.NoError(t, pub.Serve(lis, NewServer(pub, nil)))
	assert.Error(t, pub.Serve(lis, NewServer(pub, nil)))
	pub.Stop()
	pub.Stop()
	assert.False(t, pub.Stats().Running)
	// Publishing after stop is a no-op.
	pub.Publish(&structpb.Struct{})
	assert.Zero(t, pub.Stats().FrameCount)
}
