// Package ui provides stderr-based UI output for orbitflow: run progress
// lines, summary boxes, body tables and an ASCII trajectory plot.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/orbitflow/internal/ansi"
	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
	"github.com/papapumpkin/orbitflow/internal/sweep"
)

// Printer writes human-readable run output to stderr.
type Printer struct{}

// New returns a Printer.
func New() *Printer {
	return &Printer{}
}

// Banner prints the orbitflow header.
func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╔═══════════════════════════════════╗"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ║"+ansi.Reset+ansi.Bold+"  ORBITFLOW  "+ansi.Dim+"orbit integrator"+ansi.Reset+ansi.Bold+ansi.Cyan+"      ║"+ansi.Reset)
	fmt.Fprintln(os.Stderr, ansi.Bold+ansi.Cyan+"  ╚═══════════════════════════════════╝"+ansi.Reset)
	fmt.Fprintln(os.Stderr)
}

// Error prints msg as an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Info prints msg dimmed.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// RunStart announces a run before integration begins.
func (p *Printer) RunStart(name, kind string, bodies int, params orbit.Params) {
	fmt.Fprintf(os.Stderr, ansi.Blue+ansi.Bold+"▶ %s"+ansi.Reset+" %s"+ansi.Dim+" (%d body(ies), %d steps, dt=%g, G=%g)"+ansi.Reset+"\n",
		kind, name, bodies, params.Steps, params.Dt, params.G)
}

// RunFailed reports a run that could not complete. Singular configurations
// name the body and step.
func (p *Printer) RunFailed(name string, err error) {
	var se *orbit.SingularError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ %s"+ansi.Reset+" — body %d reached the central mass at step %d\n",
			name, se.Body+1, se.Step)
		return
	}
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ %s"+ansi.Reset+" — %v\n", name, err)
}

// Collisions lists every colliding pair with its first and last step.
func (p *Printer) Collisions(events []orbit.CollisionEvent, name func(int) string) {
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, ansi.Green+"✓ no collisions"+ansi.Reset)
		return
	}
	fmt.Fprintf(os.Stderr, ansi.Yellow+ansi.Bold+"⚠ %d colliding pair(s)"+ansi.Reset+"\n", len(events))
	for _, ev := range events {
		first, last := ev.Steps[0], ev.Steps[len(ev.Steps)-1]
		fmt.Fprintf(os.Stderr, "  "+ansi.Yellow+"• "+ansi.Reset+"%s × %s"+ansi.Dim+" %d step(s), %d..%d"+ansi.Reset+"\n",
			name(ev.I), name(ev.J), len(ev.Steps), first, last)
	}
}

// BodyTable prints the spacetime summary of every body.
func (p *Printer) BodyTable(rows []spacetime.Row) {
	fmt.Fprintln(os.Stderr, ansi.Bold+"bodies:"+ansi.Reset)
	fmt.Fprintf(os.Stderr, ansi.Dim+"  %-16s %12s %12s %12s"+ansi.Reset+"\n", "name", "mass", "distortion", "field")
	for _, r := range rows {
		fmt.Fprintf(os.Stderr, "  %-16s %12.4g %12.4g %12.4g\n", r.Name, r.Mass, r.Distortion, r.Field)
	}
}

// ScenarioChanged reports a watched scenario file event.
func (p *Printer) ScenarioChanged(c scenario.Change) {
	color := ansi.Cyan
	if c.Kind == scenario.ChangeRemoved {
		color = ansi.Dim
	}
	fmt.Fprintf(os.Stderr, "\n"+color+"◆ %s"+ansi.Reset+" %s\n", c.Kind, c.Path)
}

// Wrote reports an exported file.
func (p *Printer) Wrote(what, path string) {
	fmt.Fprintf(os.Stderr, ansi.Green+"✓ wrote %s"+ansi.Reset+" %s\n", what, path)
}

// Archived reports the archive ID of a saved run.
func (p *Printer) Archived(id string) {
	fmt.Fprintf(os.Stderr, ansi.Dim+"archived as %s"+ansi.Reset+"\n", id)
}

// SweepProgressLine formats the in-place sweep progress text.
func SweepProgressLine(done, total, failed int) string {
	line := fmt.Sprintf("[sweep] %d/%d seeds", done, total)
	if failed > 0 {
		line += fmt.Sprintf(" | %d failed", failed)
	}
	return line
}

// SweepProgress overwrites the current line with the sweep progress.
func (p *Printer) SweepProgress(done, total, failed int) {
	fmt.Fprintf(os.Stderr, "\r"+ansi.ClearLine+ansi.Cyan+"%s"+ansi.Reset, SweepProgressLine(done, total, failed))
}

// SweepDone ends the progress line and prints the aggregate figures.
func (p *Printer) SweepDone(s *sweep.Summary) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, SweepBox(s))
	if s.Failed == 0 {
		return
	}
	for _, r := range s.Results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  "+ansi.Red+"✗ seed %d"+ansi.Reset+" — %v\n", r.Seed, r.Err)
		}
	}
}

// Summary prints a run summary box.
func (p *Printer) Summary(d RunSummaryData) {
	fmt.Fprint(os.Stderr, RunBox(d))
}

// Plot prints an ASCII trajectory plot.
func (p *Printer) Plot(trajs []orbit.Trajectory, events []orbit.CollisionEvent, width, height int) {
	fmt.Fprint(os.Stderr, strings.TrimRight(Plot(trajs, events, width, height), "\n")+"\n")
}
