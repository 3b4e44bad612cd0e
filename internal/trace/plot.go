package trace

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("no samples recorded")

type series struct {
	name  string
	unit  string
	file  string
	color color.Color
	value func(Sample) float64
}

var poseSeries = []series{
	{"Zoom", "zoom level", "zoom.png", color.RGBA{R: 31, G: 119, B: 180, A: 255}, func(s Sample) float64 { return s.Pose.Zoom }},
	{"Pitch", "degrees", "pitch.png", color.RGBA{R: 255, G: 127, B: 14, A: 255}, func(s Sample) float64 { return s.Pose.Pitch }},
	{"Bearing", "degrees", "bearing.png", color.RGBA{R: 44, G: 160, B: 44, A: 255}, func(s Sample) float64 { return s.Pose.Bearing }},
	{"Mode", "priority", "mode.png", color.RGBA{R: 148, G: 103, B: 189, A: 255}, func(s Sample) float64 { return float64(s.Mode) }},
}

// SavePlots writes one PNG per pose component into dir and returns the file
// paths.
func SavePlots(samples []Sample, dir, title string) ([]string, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var files []string
	for _, s := range poseSeries {
		pts := make(plotter.XYs, 0, len(samples))
		for _, sm := range samples {
			pts = append(pts, plotter.XY{X: float64(sm.Frame), Y: s.value(sm)})
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s - %s", title, s.name)
		p.X.Label.Text = "Frame"
		p.Y.Label.Text = s.unit

		line, err := plotter.NewLine(pts)
		if err != nil {
			return files, err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		path := filepath.Join(dir, s.file)
		if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return files, fmt.Errorf("save %s plot: %w", s.name, err)
		}
		files = append(files, path)
	}
	return files, nil
}
