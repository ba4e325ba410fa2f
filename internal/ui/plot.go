package ui

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/papapumpkin/orbitflow/internal/orbit"
)

// Plot glyphs.
const (
	glyphCentral   = '@'
	glyphCollision = '*'
	glyphOverflow  = '#'
)

// Default plot size in character cells.
const (
	defaultPlotWidth  = 60
	defaultPlotHeight = 21
)

// bodyGlyph returns the path glyph of body i: 1-9, then a-z, then '#'.
func bodyGlyph(i int) rune {
	switch {
	case i < 9:
		return rune('1' + i)
	case i < 9+26:
		return rune('a' + i - 9)
	default:
		return glyphOverflow
	}
}

// Plot renders trajectories on a framed character grid centred on the
// central mass. Every body's path is drawn with its own glyph, collision
// steps are marked with '*' and the central mass with '@'. Both axes span the
// largest finite coordinate, so the scale is the same up and sideways in
// world units (not in cells). Non-positive sizes fall back to defaults.
func Plot(trajs []orbit.Trajectory, events []orbit.CollisionEvent, width, height int) string {
	if width <= 0 {
		width = defaultPlotWidth
	}
	if height <= 0 {
		height = defaultPlotHeight
	}

	extent := 0.0
	paths := make([][]r2.Vec, len(trajs))
	for i, t := range trajs {
		paths[i] = t.Positions()
		for _, p := range paths[i] {
			if finite(p) {
				extent = max(extent, math.Abs(p.X), math.Abs(p.Y))
			}
		}
	}
	if extent == 0 {
		extent = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	set := func(p r2.Vec, g rune) {
		if !finite(p) {
			return
		}
		col := int(math.Round((p.X/extent + 1) / 2 * float64(width-1)))
		row := int(math.Round((1 - (p.Y/extent+1)/2) * float64(height-1)))
		if col < 0 || col >= width || row < 0 || row >= height {
			return
		}
		grid[row][col] = g
	}

	for i, path := range paths {
		g := bodyGlyph(i)
		for _, p := range path {
			set(p, g)
		}
	}
	for _, ev := range events {
		if ev.I >= len(trajs) || ev.J >= len(trajs) {
			continue
		}
		for _, s := range ev.Steps {
			if s < len(trajs[ev.I]) && s < len(trajs[ev.J]) {
				mid := r2.Scale(0.5, r2.Add(trajs[ev.I][s].Pos, trajs[ev.J][s].Pos))
				set(mid, glyphCollision)
			}
		}
	}
	set(r2.Vec{}, glyphCentral)

	var sb strings.Builder
	border := "+" + strings.Repeat("-", width) + "+\n"
	sb.WriteString(border)
	for _, row := range grid {
		sb.WriteByte('|')
		sb.WriteString(string(row))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
