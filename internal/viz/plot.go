package viz

import "github.com/guptarohit/asciigraph"

// Plot renders one series as a terminal line chart.
func Plot(series []float64, caption string, height int) string {
	if len(series) == 0 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

// PlotMany renders several series in one chart, one color per series.
func PlotMany(series [][]float64, caption string, height int) string {
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.SkyBlue, asciigraph.Tomato, asciigraph.Gold),
	)
}
