package export

import (
	"fmt"
	"strings"
)

var palette = []string{
	"#00ff00", "#00bfff", "#ff6347", "#ffd700",
	"#da70d6", "#7fffd4", "#ff8c00", "#adff2f",
}

// TrajectoryToSVG renders the XY projection of every particle's path as an
// SVG polyline, with a dot at the final position. states follow the
// flattened [positions | velocities] layout.
func TrajectoryToSVG(particles int, states [][]float64, width, height int) string {
	if particles < 1 || len(states) < 2 {
		return ""
	}

	minX, maxX := states[0][0], states[0][0]
	minY, maxY := states[0][1], states[0][1]
	for _, st := range states {
		for i := 0; i < particles; i++ {
			x, y := st[3*i], st[3*i+1]
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	toScreen := func(x, y float64) (float64, float64) {
		sx := (x - minX) / rangeX * float64(width)
		sy := float64(height) - (y-minY)/rangeY*float64(height)
		return sx, sy
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i := 0; i < particles; i++ {
		color := palette[i%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for k, st := range states {
			sx, sy := toScreen(st[3*i], st[3*i+1])
			if k == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", sx, sy))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", sx, sy))
			}
		}
		sb.WriteString("\"/>\n")

		fx, fy := toScreen(states[len(states)-1][3*i], states[len(states)-1][3*i+1])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, fx, fy, color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
