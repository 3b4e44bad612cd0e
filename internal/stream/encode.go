package stream

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/loop"
)

func poseMap(p camera.Pose) map[string]any {
	return map[string]any{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"zoom":      p.Zoom,
		"pitch":     p.Pitch,
		"bearing":   p.Bearing,
	}
}

// encodeState converts a published loop state into a frame message.
func encodeState(st loop.State) (*structpb.Struct, error) {
	m := map[string]any{
		"frame":           float64(st.Frame),
		"time_ns":         float64(st.Time.UnixNano()),
		"mode":            st.Mode.String(),
		"pose":            poseMap(st.Pose),
		"selected_id":     st.Selection.SelectedID,
		"pin_locked":      st.Selection.PinLocked,
		"scroll_progress": st.ScrollProgress,
		"visible":         st.Visible,
	}
	if tr := st.Transition; tr != nil {
		m["transition"] = map[string]any{
			"kind":     tr.Kind.String(),
			"token":    float64(tr.Token),
			"progress": tr.Progress,
		}
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", st.Frame, err)
	}
	return s, nil
}

// decodePose reads a pose object. Every component is required.
func decodePose(v *structpb.Value) (camera.Pose, error) {
	obj := v.GetStructValue()
	if obj == nil {
		return camera.Pose{}, fmt.Errorf("pose must be an object")
	}
	fields := obj.GetFields()
	num := func(name string) (float64, error) {
		f, ok := fields[name]
		if !ok {
			return 0, fmt.Errorf("pose.%s is required", name)
		}
		if _, isNum := f.GetKind().(*structpb.Value_NumberValue); !isNum {
			return 0, fmt.Errorf("pose.%s must be a number", name)
		}
		return f.GetNumberValue(), nil
	}
	var (
		p   camera.Pose
		err error
	)
	if p.Latitude, err = num("latitude"); err != nil {
		return p, err
	}
	if p.Longitude, err = num("longitude"); err != nil {
		return p, err
	}
	if p.Zoom, err = num("zoom"); err != nil {
		return p, err
	}
	if p.Pitch, err = num("pitch"); err != nil {
		return p, err
	}
	if p.Bearing, err = num("bearing"); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeFramePose extracts the pose from a frame message.
func DecodeFramePose(frame *structpb.Struct) (camera.Pose, error) {
	return decodePose(frame.GetFields()["pose"])
}

// PickReport builds a pick report message.
func PickReport(featureID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":       structpb.NewStringValue("pick"),
		"feature_id": structpb.NewStringValue(featureID),
	}}
}

// RealizedReport builds a realized-pose report message.
func RealizedReport(p camera.Pose, moving bool) *structpb.Struct {
	pose, _ := structpb.NewStruct(poseMap(p))
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":   structpb.NewStringValue("realized"),
		"pose":   structpb.NewStructValue(pose),
		"moving": structpb.NewBoolValue(moving),
	}}
}
