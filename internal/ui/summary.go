package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/orbitflow/internal/sweep"
)

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan: headings and borders
	colorAccent     = lipgloss.Color("#FFD700") // Gold: collisions
	colorSuccess    = lipgloss.Color("#00E676") // Green: clean runs
	colorDanger     = lipgloss.Color("#FF5252") // Red: failures
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray: labels
)

var (
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorMutedLight).
			Width(18)

	styleGood = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarn = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleBad  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
)

// driftWarn is the relative energy drift above which a run is highlighted.
const driftWarn = 0.01

// RunSummaryData holds the figures shown after a run.
type RunSummaryData struct {
	Scenario   string
	Kind       string
	RunID      string
	Seed       uint64
	Steps      int
	Dt         float64
	G          float64
	Bodies     int
	Perturbed  bool
	MaxDrift   float64
	Collisions int
	Elapsed    time.Duration
}

type field struct {
	label string
	value string
}

func renderBox(title string, fields []field) string {
	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, styleTitle.Render(title))
	for _, f := range fields {
		lines = append(lines, styleLabel.Render(f.label)+f.value)
	}
	return styleBox.Render(strings.Join(lines, "\n")) + "\n"
}

// RunBox renders the run summary as a bordered box.
func RunBox(d RunSummaryData) string {
	drift := fmt.Sprintf("%.3e", d.MaxDrift)
	if d.MaxDrift > driftWarn {
		drift = styleWarn.Render(drift)
	} else {
		drift = styleGood.Render(drift)
	}

	collisions := styleGood.Render("none")
	if d.Collisions > 0 {
		collisions = styleWarn.Render(fmt.Sprintf("%d pair(s)", d.Collisions))
	}

	perturbed := "off"
	if d.Perturbed {
		perturbed = fmt.Sprintf("on (seed %d)", d.Seed)
	}

	fields := []field{
		{"kind", d.Kind},
		{"bodies", fmt.Sprintf("%d", d.Bodies)},
		{"steps", fmt.Sprintf("%d × %g", d.Steps, d.Dt)},
		{"G", fmt.Sprintf("%g", d.G)},
		{"perturbation", perturbed},
		{"energy drift", drift},
		{"collisions", collisions},
	}
	if d.Elapsed > 0 {
		fields = append(fields, field{"elapsed", d.Elapsed.Round(time.Millisecond).String()})
	}
	if d.RunID != "" {
		fields = append(fields, field{"run", d.RunID})
	}
	return renderBox(d.Scenario, fields)
}

// SweepBox renders a sweep summary as a bordered box.
func SweepBox(s *sweep.Summary) string {
	failed := styleGood.Render("0")
	if s.Failed > 0 {
		failed = styleBad.Render(fmt.Sprintf("%d", s.Failed))
	}
	fields := []field{
		{"seeds", fmt.Sprintf("%d", len(s.Results))},
		{"completed", fmt.Sprintf("%d", s.Completed)},
		{"failed", failed},
		{"drift mean", fmt.Sprintf("%.3e", s.DriftMean)},
		{"drift std-dev", fmt.Sprintf("%.3e", s.DriftStdDev)},
		{"drift range", fmt.Sprintf("%.3e .. %.3e", s.DriftMin, s.DriftMax)},
		{"with collisions", fmt.Sprintf("%d", s.SeedsWithCollisions)},
		{"mean coll. steps", fmt.Sprintf("%.1f", s.MeanCollisionSteps)},
	}
	return renderBox("sweep: "+s.Scenario, fields)
}
