package trace

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderChart writes an HTML page with zoom, pitch and bearing against frame
// number, plus a mode strip.
func RenderChart(w io.Writer, samples []Sample, subtitle string) error {
	x := make([]string, len(samples))
	for i, s := range samples {
		x[i] = strconv.FormatUint(s.Frame, 10)
	}

	pose := charts.NewLine()
	pose.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Camera Trace", Theme: "dark", Width: "100%", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: "Camera Pose", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
	)
	pose.SetXAxis(x)
	for _, s := range poseSeries[:3] {
		data := make([]opts.LineData, len(samples))
		for i, sm := range samples {
			data[i] = opts.LineData{Value: s.value(sm)}
		}
		pose.AddSeries(s.name, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}

	modes := charts.NewLine()
	modes.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "240px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mode", Subtitle: fmt.Sprintf("%d samples", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	modes.SetXAxis(x)
	data := make([]opts.LineData, len(samples))
	for i, sm := range samples {
		data[i] = opts.LineData{Value: int(sm.Mode), Name: sm.Mode.String()}
	}
	modes.AddSeries("mode", data, charts.WithLineChartOpts(opts.LineChart{Step: true, ShowSymbol: opts.Bool(false)}))

	page := components.NewPage()
	page.AddCharts(pose, modes)
	return page.Render(w)
}
