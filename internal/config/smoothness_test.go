package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultSmoothnessConfig(t *testing.T) {
	cfg := DefaultSmoothnessConfig()

	if cfg.BoundaryRadius == nil || *cfg.BoundaryRadius != 0.03 {
		t.Errorf("Expected BoundaryRadius 0.03, got %v", cfg.BoundaryRadius)
	}
	if cfg.AmbientEnabled == nil || *cfg.AmbientEnabled != true {
		t.Errorf("Expected AmbientEnabled true, got %v", cfg.AmbientEnabled)
	}
	if cfg.FocusDuration == nil || *cfg.FocusDuration != "2.5s" {
		t.Errorf("Expected FocusDuration '2.5s', got %v", cfg.FocusDuration)
	}

	if diff := cmp.Diff(DefaultSmoothness(), cfg.Resolve()); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	if cfg.GetRestingZoom() != 16 {
		t.Errorf("GetRestingZoom() = %f, want 16", cfg.GetRestingZoom())
	}
	if cfg.GetFrameInterval() != time.Second/60 {
		t.Errorf("GetFrameInterval() = %v, want %v", cfg.GetFrameInterval(), time.Second/60)
	}
}

func TestEmptyConfigResolvesToDefaults(t *testing.T) {
	if diff := cmp.Diff(DefaultSmoothness(), EmptySmoothnessConfig().Resolve()); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	cfg, err := LoadSmoothnessConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("Failed to load defaults file: %v", err)
	}
	if diff := cmp.Diff(DefaultSmoothness(), cfg.Resolve()); diff != "" {
		t.Errorf("defaults file drifted from built-in defaults (-want +got):\n%s", diff)
	}
}

func TestLoadSmoothnessConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "inertia_damping": 0.8,
  "ambient_enabled": false,
  "focus_duration": "1s"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSmoothnessConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	r := cfg.Resolve()
	if r.InertiaDamping != 0.8 {
		t.Errorf("InertiaDamping = %v, want 0.8", r.InertiaDamping)
	}
	if r.AmbientEnabled {
		t.Errorf("AmbientEnabled = true, want false")
	}
	if r.FocusDuration != time.Second {
		t.Errorf("FocusDuration = %v, want 1s", r.FocusDuration)
	}
	// Omitted fields keep defaults.
	if r.RestingZoom != 16 {
		t.Errorf("RestingZoom = %v, want default 16", r.RestingZoom)
	}
}

func TestLoadSmoothnessConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "missing.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"invalid value", write("invalid.json", `{"inertia_damping": 1.5}`), "inertia_damping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSmoothnessConfig(tt.path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *SmoothnessConfig
		wantErr bool
	}{
		{"defaults", DefaultSmoothnessConfig(), false},
		{"empty", EmptySmoothnessConfig(), false},
		{"damping at one", &SmoothnessConfig{AmbientDamping: ptrFloat64(1)}, true},
		{"zero smoothing", &SmoothnessConfig{IdleSmoothing: ptrFloat64(0)}, true},
		{"negative radius", &SmoothnessConfig{BoundaryRadius: ptrFloat64(-1)}, true},
		{"inverted zoom", &SmoothnessConfig{MinZoom: ptrFloat64(18), MaxZoom: ptrFloat64(14)}, true},
		{"inverted against default", &SmoothnessConfig{MinZoom: ptrFloat64(21)}, true},
		{"pitch over 90", &SmoothnessConfig{MaxPitch: ptrFloat64(95)}, true},
		{"bad duration", &SmoothnessConfig{FocusDuration: ptrString("soon")}, true},
		{"negative duration", &SmoothnessConfig{TransitionHold: ptrString("-1s")}, true},
		{"bad frame rate", &SmoothnessConfig{FrameRate: ptrFloat64(0)}, true},
		{"bad curve", &SmoothnessConfig{PitchCurveZoomLow: ptrFloat64(18)}, true},
		{"bad center", &SmoothnessConfig{CenterLatitude: ptrFloat64(100)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeDoesNotMutateOriginal(t *testing.T) {
	base := DefaultSmoothnessConfig()

	merged, err := base.Merge([]byte(`{"inertia_damping": 0.5}`))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if *merged.InertiaDamping != 0.5 {
		t.Errorf("merged InertiaDamping = %v, want 0.5", *merged.InertiaDamping)
	}
	if *base.InertiaDamping != 0.92 {
		t.Errorf("base InertiaDamping mutated to %v", *base.InertiaDamping)
	}

	if _, err := base.Merge([]byte(`{"inertia_dampng": 0.5}`)); err == nil {
		t.Errorf("expected unknown field to be rejected")
	}
}
