package stream

import (
	"context"
	"fmt"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// FeatureLookup resolves a feature id. *poi.Store satisfies it.
type FeatureLookup interface {
	Feature(ctx context.Context, id string) (geo.Feature, error)
}

// CameraReporter routes renderer reports to a camera owned by a loop.Runner.
type CameraReporter struct {
	Runner   *loop.Runner
	Features FeatureLookup
}

// Pick hands a resolved feature to the camera. A pick inside a gesture flies
// to the feature when the gesture ends as a tap; otherwise the fly-to starts
// at once. Unknown or malformed features are logged and leave the camera
// unchanged.
func (r CameraReporter) Pick(ctx context.Context, featureID string) error {
	f, err := r.Features.Feature(ctx, featureID)
	if err != nil {
		monitoring.Logf("[Stream] pick %q ignored: %v", featureID, err)
		return err
	}
	return r.Runner.Do(ctx, func(c *camera.Controller) error {
		_, err := c.PickFeature(f)
		return err
	})
}

// Realized forwards the renderer's displayed pose. It does not wait for the
// next frame.
func (r CameraReporter) Realized(_ context.Context, p camera.Pose, moving bool) error {
	if !p.Finite() {
		return fmt.Errorf("realized pose %+v: %w", p, camera.ErrNonFinitePose)
	}
	return r.Runner.Post(func(c *camera.Controller) {
		if err := c.SyncRenderer(p, moving); err != nil {
			monitoring.Logf("[Stream] realized pose rejected: %v", err)
		}
	})
}
