// Command motion-trace replays a scripted input scenario through the camera
// controller without a renderer and writes pose plots, an interactive chart
// and a JSON summary of the run.
//
// Tuning comes from the built-in defaults, a JSON file, or a running mapcam
// server, so a parameter change can be checked offline before it is applied
// to a kiosk.
//
// Usage:
//
//	go run ./cmd/tools/motion-trace [flags]
//
// Flags:
//
//	-scenario    drag, flick, focus, idle or wheel (default: flick)
//	-frames      Number of frames to simulate (default: 300)
//	-config      Smoothness tuning JSON (optional)
//	-params-url  Fetch tuning from a running server, e.g. http://kiosk:8080/api/camera/params
//	-out         Output directory (default: motion-trace)
//	-label       Output file prefix (default: scenario name)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/httputil"
	"github.com/banshee-data/mapcam/internal/security"
	"github.com/banshee-data/mapcam/internal/trace"
)

func main() {
	name := flag.String("scenario", "flick", "scenario to run: "+strings.Join(scenarioNames(), ", "))
	frames := flag.Int("frames", 300, "number of frames to simulate")
	configFile := flag.String("config", "", "smoothness tuning JSON file")
	paramsURL := flag.String("params-url", "", "fetch tuning from a running server's /api/camera/params")
	outDir := flag.String("out", "motion-trace", "output directory")
	label := flag.String("label", "", "output file prefix (default: scenario name)")
	flag.Parse()

	if *frames < 1 {
		log.Fatalf("-frames must be positive, got %d", *frames)
	}
	build, ok := scenarios[*name]
	if !ok {
		log.Fatalf("Unknown scenario %q (want one of %s)", *name, strings.Join(scenarioNames(), ", "))
	}

	params, err := loadParams(*configFile, *paramsURL)
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}
	snap := params.Snapshot()

	steps, err := build(settingsView{lat: snap.CenterLatitude, lng: snap.CenterLongitude}, *frames)
	if err != nil {
		log.Fatalf("Failed to build scenario: %v", err)
	}

	rec := trace.NewRecorder(*frames)
	ctrl := camera.NewController(params, camera.Hooks{})
	if err := run(ctrl, steps, params.Config().GetFrameInterval(), rec); err != nil {
		log.Fatalf("Scenario failed: %v", err)
	}

	prefix := *name
	if *label != "" {
		prefix = security.SanitizeFilename(*label)
	}
	if err := writeOutputs(*outDir, prefix, rec); err != nil {
		log.Fatalf("Failed to write outputs: %v", err)
	}
}

// loadParams builds the tuning store from defaults, then a file, then a
// remote server's current values.
func loadParams(configFile, paramsURL string) (*config.Store, error) {
	cfg := config.DefaultSmoothnessConfig()
	if configFile != "" {
		loaded, err := config.LoadSmoothnessConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		log.Printf("Loaded tuning from %s", configFile)
	}
	params, err := config.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if paramsURL == "" {
		return params, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var remote json.RawMessage
	if err := httputil.GetJSON(ctx, httputil.NewStandardClient(nil), paramsURL, &remote); err != nil {
		return nil, err
	}
	if err := params.Apply(remote); err != nil {
		return nil, fmt.Errorf("remote tuning rejected: %w", err)
	}
	log.Printf("Applied tuning from %s", paramsURL)
	return params, nil
}

func writeOutputs(dir, name string, rec *trace.Recorder) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	samples := rec.Samples()

	files, err := trace.SavePlots(samples, dir, name)
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Printf("✓ Created: %s", f)
	}

	chartPath := filepath.Join(dir, name+".html")
	f, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := trace.RenderChart(f, samples, name); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("✓ Created: %s", chartPath)

	sum := rec.Summarize()
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	summaryPath := filepath.Join(dir, name+"-summary.json")
	if err := os.WriteFile(summaryPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	log.Printf("✓ Created: %s", summaryPath)
	log.Printf("%d frames, %d mode changes, final zoom %.2f", sum.Samples, sum.Transitions, sum.Final.Zoom)
	return nil
}
