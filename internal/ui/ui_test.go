package ui

import (
	"errors"
	"io"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/papapumpkin/orbitflow/internal/ansi"
	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
	"github.com/papapumpkin/orbitflow/internal/sweep"
)

// captureStderr redirects os.Stderr to a pipe and returns the captured output
// with escape codes removed.
func captureStderr(fn func()) string {
	r, w, _ := os.Pipe()
	orig := os.Stderr
	os.Stderr = w

	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		done <- b
	}()

	fn()

	w.Close()
	os.Stderr = orig
	out := <-done
	r.Close()
	return ansi.Strip(string(out))
}

func assertContains(t *testing.T, output string, checks ...string) {
	t.Helper()
	for _, c := range checks {
		if !strings.Contains(output, c) {
			t.Errorf("expected output to contain %q, got:\n%s", c, output)
		}
	}
}

func TestRunStart(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.RunStart("two-planets", "system", 2, orbit.Params{G: 1, Steps: 500, Dt: 0.01})
	})
	assertContains(t, output, "▶ system", "two-planets", "2 body(ies)", "500 steps", "dt=0.01", "G=1")
}

func TestBannerAndArchived(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.Banner()
		p.Archived("0b7c1d2e-0000-4000-8000-000000000000")
	})
	assertContains(t, output, "ORBITFLOW", "archived as 0b7c1d2e-0000-4000-8000-000000000000")
}

func TestRunFailed_Singular(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.RunFailed("fall", &orbit.SingularError{Body: 1, Step: 7})
	})
	assertContains(t, output, "✗ fall", "body 2", "step 7")
}

func TestRunFailed_Generic(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.RunFailed("bad", errors.New("boom"))
	})
	assertContains(t, output, "✗ bad", "boom")
}

func TestCollisions(t *testing.T) {
	p := New()
	names := func(i int) string { return []string{"Inner", "Outer"}[i] }

	t.Run("none", func(t *testing.T) {
		output := captureStderr(func() { p.Collisions(nil, names) })
		assertContains(t, output, "no collisions")
	})

	t.Run("pairs", func(t *testing.T) {
		output := captureStderr(func() {
			p.Collisions([]orbit.CollisionEvent{{I: 0, J: 1, Steps: []int{4, 5, 9}}}, names)
		})
		assertContains(t, output, "1 colliding pair(s)", "Inner × Outer", "3 step(s), 4..9")
	})
}

func TestBodyTable(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.BodyTable([]spacetime.Row{{Name: "Central", Mass: 1e30, Distortion: 1.5e-5, Field: 0}})
	})
	assertContains(t, output, "bodies:", "distortion", "Central", "1e+30", "1.5e-05")
}

func TestScenarioChanged(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.ScenarioChanged(scenario.Change{Kind: scenario.ChangeRemoved, Path: "runs/pair.toml"})
	})
	assertContains(t, output, "removed", "runs/pair.toml")
}

func TestSweepProgressLine(t *testing.T) {
	tests := []struct {
		done, total, failed int
		want                string
	}{
		{0, 8, 0, "[sweep] 0/8 seeds"},
		{5, 8, 0, "[sweep] 5/8 seeds"},
		{8, 8, 2, "[sweep] 8/8 seeds | 2 failed"},
	}
	for _, tt := range tests {
		if got := SweepProgressLine(tt.done, tt.total, tt.failed); got != tt.want {
			t.Errorf("SweepProgressLine(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.failed, got, tt.want)
		}
	}
}

func TestRunBox(t *testing.T) {
	out := ansi.Strip(RunBox(RunSummaryData{
		Scenario:   "two-planets",
		Kind:       "system",
		RunID:      "0b7c",
		Seed:       42,
		Steps:      2000,
		Dt:         0.01,
		G:          1,
		Bodies:     2,
		Perturbed:  true,
		MaxDrift:   2.5e-4,
		Collisions: 1,
		Elapsed:    1500 * time.Millisecond,
	}))

	assertContains(t, out, "two-planets", "system", "2000 × 0.01", "on (seed 42)", "2.500e-04", "1 pair(s)", "1.5s", "0b7c")
	if !strings.Contains(out, "╭") {
		t.Errorf("expected a rounded border, got:\n%s", out)
	}
}

func TestRunBox_CleanRun(t *testing.T) {
	out := ansi.Strip(RunBox(RunSummaryData{Scenario: "solo", Kind: "orbit", Steps: 10, Dt: 0.1, Bodies: 1}))
	assertContains(t, out, "off", "none")
	if strings.Contains(out, "elapsed") || strings.Contains(out, "run ") {
		t.Errorf("zero elapsed and empty run ID should be omitted, got:\n%s", out)
	}
}

func TestSweepDone(t *testing.T) {
	p := New()
	output := captureStderr(func() {
		p.SweepDone(&sweep.Summary{
			Scenario:  "pair",
			Completed: 1,
			Failed:    1,
			Results: []sweep.SeedResult{
				{Seed: 1, Drift: 0.001},
				{Seed: 2, Err: &orbit.SingularError{Step: 3}},
			},
			DriftMean: 0.001,
		})
	})
	assertContains(t, output, "sweep: pair", "failed", "1.000e-03", "✗ seed 2")
}

func plotRows(t *testing.T, s string) []string {
	t.Helper()
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("plot too short:\n%s", s)
	}
	rows := make([]string, 0, len(lines)-2)
	for _, l := range lines[1 : len(lines)-1] {
		rows = append(rows, strings.TrimSuffix(strings.TrimPrefix(l, "|"), "|"))
	}
	return rows
}

func TestPlot_CentralAndBody(t *testing.T) {
	trajs := []orbit.Trajectory{{{Pos: r2.Vec{X: 1}}}}
	rows := plotRows(t, Plot(trajs, nil, 11, 5))

	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	if rows[2] != "     @    1" {
		t.Errorf("middle row = %q", rows[2])
	}
}

func TestPlot_CollisionMarker(t *testing.T) {
	trajs := []orbit.Trajectory{
		{{Pos: r2.Vec{X: -1, Y: 1}}},
		{{Pos: r2.Vec{X: 1, Y: 1}}},
	}
	events := []orbit.CollisionEvent{{I: 0, J: 1, Steps: []int{0}}}
	rows := plotRows(t, Plot(trajs, events, 11, 5))

	if rows[0] != "1    *    2" {
		t.Errorf("top row = %q", rows[0])
	}
}

func TestPlot_DefaultsAndDegenerateInput(t *testing.T) {
	trajs := []orbit.Trajectory{{{Pos: r2.Vec{X: math.NaN(), Y: 1}}, {Pos: r2.Vec{X: math.Inf(1)}}}}
	out := Plot(trajs, []orbit.CollisionEvent{{I: 0, J: 5, Steps: []int{0}}}, 0, 0)
	rows := plotRows(t, out)

	if len(rows) != defaultPlotHeight {
		t.Fatalf("rows = %d, want %d", len(rows), defaultPlotHeight)
	}
	if strings.Count(out, "@") != 1 {
		t.Errorf("expected a single central marker, got:\n%s", out)
	}
	if strings.Contains(out, "1") {
		t.Errorf("non-finite points should not be drawn, got:\n%s", out)
	}
}

func TestBodyGlyph(t *testing.T) {
	tests := []struct {
		i    int
		want rune
	}{
		{0, '1'},
		{8, '9'},
		{9, 'a'},
		{34, 'z'},
		{35, '#'},
	}
	for _, tt := range tests {
		if got := bodyGlyph(tt.i); got != tt.want {
			t.Errorf("bodyGlyph(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
}
