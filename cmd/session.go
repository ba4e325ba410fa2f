package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/papapumpkin/orbitflow/internal/archive"
	"github.com/papapumpkin/orbitflow/internal/config"
	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/telemetry"
	"github.com/papapumpkin/orbitflow/internal/ui"
)

// session bundles what a simulation command needs: config, printer, and the
// optional archive and telemetry sinks. Disabled sinks are nil.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	store   *archive.Store
	events  *telemetry.Emitter
}

// openSession opens the archive and a telemetry stream named after the
// command and the current time.
func openSession(ctx context.Context, cfg config.Config, stream string) (*session, error) {
	s := &session{cfg: cfg, printer: ui.New()}

	if cfg.Archive.Enabled {
		store, err := archive.Open(ctx, cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	if cfg.Telemetry.Enabled {
		name := stream + "-" + time.Now().UTC().Format("20060102T150405")
		em, err := telemetry.NewEmitter(telemetry.FileFor(cfg.Telemetry.Dir, name))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.events = em
	}
	return s, nil
}

// Close releases the archive and telemetry sinks.
func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("closing archive", "error", err)
		}
	}
	if err := s.events.Close(); err != nil {
		slog.Warn("closing telemetry", "error", err)
	}
}

func (s *session) emit(evt telemetry.Event) {
	if err := s.events.Emit(evt); err != nil {
		slog.Warn("telemetry write failed", "kind", evt.Kind, "error", err)
	}
}

// execute runs sc once, reports it, records it in the archive and emits its
// telemetry. It returns the outcome and the archive ID (empty when the
// archive is disabled).
func (s *session) execute(ctx context.Context, sc *scenario.Scenario) (*scenario.Outcome, string, error) {
	params := sc.Params()
	s.printer.RunStart(sc.Name, sc.Kind, len(sc.Bodies), params)
	s.emit(telemetry.Event{Kind: telemetry.KindRunStart, Scenario: sc.Name, Data: map[string]any{
		"kind":   sc.Kind,
		"steps":  params.Steps,
		"dt":     params.Dt,
		"g":      params.G,
		"seed":   sc.Seed,
		"bodies": len(sc.Bodies),
	}})

	start := time.Now()
	out, err := sc.Run()
	elapsed := time.Since(start)
	if err != nil {
		s.printer.RunFailed(sc.Name, err)
		var se *orbit.SingularError
		if errors.As(err, &se) {
			s.emit(telemetry.Event{Kind: telemetry.KindSingular, Scenario: sc.Name, Data: map[string]any{"body": se.Body, "step": se.Step}})
		} else {
			s.emit(telemetry.Event{Kind: telemetry.KindRunFailed, Scenario: sc.Name, Data: map[string]any{"error": err.Error()}})
		}
		return nil, "", err
	}
	slog.Debug("run finished", "scenario", sc.Name, "elapsed", elapsed, "drift", out.MaxDrift())

	var runID string
	if s.store != nil {
		saved, err := s.store.SaveRun(ctx, archive.FromOutcome(out, sc.UsesPerturbation()), out.Collisions)
		if err != nil {
			return out, "", fmt.Errorf("archiving run: %w", err)
		}
		runID = saved.ID.String()
		s.printer.Archived(runID)
	}

	for _, ev := range out.Collisions {
		s.emit(telemetry.Event{Kind: telemetry.KindCollision, RunID: runID, Scenario: sc.Name, Data: map[string]any{
			"i":     ev.I,
			"j":     ev.J,
			"first": ev.Steps[0],
			"steps": len(ev.Steps),
		}})
	}
	s.emit(telemetry.Event{Kind: telemetry.KindRunDone, RunID: runID, Scenario: sc.Name, Data: map[string]any{
		"drift":      out.MaxDrift(),
		"collisions": len(out.Collisions),
		"elapsed_ms": elapsed.Milliseconds(),
	}})

	s.printer.Summary(ui.RunSummaryData{
		Scenario:   sc.Name,
		Kind:       sc.Kind,
		RunID:      runID,
		Seed:       sc.Seed,
		Steps:      params.Steps,
		Dt:         params.Dt,
		G:          params.G,
		Bodies:     len(out.Trajectories),
		Perturbed:  sc.UsesPerturbation(),
		MaxDrift:   out.MaxDrift(),
		Collisions: len(out.Collisions),
		Elapsed:    elapsed,
	})
	return out, runID, nil
}

// outPath resolves an export path against out_dir.
func (s *session) outPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.cfg.OutDir, path)
}

// writeFile creates path (and its directory) and hands it to write.
func (s *session) writeFile(what, path string, write func(io.Writer) error) error {
	path = s.outPath(path)
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", what, err)
	}
	s.printer.Wrote(what, path)
	return nil
}

// setupSignalContext returns a context cancelled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
