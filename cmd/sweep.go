package cmd

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/archive"
	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/sweep"
	"github.com/papapumpkin/orbitflow/internal/telemetry"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <scenario.toml>",
	Short: "Run a scenario across many seeds",
	Long: `Runs a scenario once per seed, in parallel, and summarises the spread of
energy drift and collisions. Only perturbed runs differ between seeds.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Int("seeds", 16, "number of seeds to run")
	sweepCmd.Flags().Uint64("base-seed", 1, "first seed; the others follow consecutively")
	sweepCmd.Flags().Int("parallel", 0, "maximum concurrent runs (default: number of CPUs)")
	sweepCmd.Flags().Bool("archive-runs", false, "record every seed's run in the archive")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("seeds")
	base, _ := cmd.Flags().GetUint64("base-seed")
	parallel, _ := cmd.Flags().GetInt("parallel")
	archiveRuns, _ := cmd.Flags().GetBool("archive-runs")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	if !sc.UsesPerturbation() {
		slog.Warn("scenario has no perturbation; every seed gives the same result", "scenario", sc.Name)
	}

	sess, err := openSession(cmd.Context(), cfg, "sweep")
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := setupSignalContext(sess.printer)
	defer cancel()
	sess.printer.Banner()

	var (
		mu   sync.Mutex
		done int
	)
	seeds := sweep.Seeds(base, n)
	sess.printer.SweepProgress(0, len(seeds), 0)
	summary, err := sweep.Run(ctx, sc, sweep.Options{
		Seeds:    seeds,
		Parallel: parallel,
		Observe: func(out *scenario.Outcome) {
			var runID string
			if archiveRuns && sess.store != nil {
				saved, err := sess.store.SaveRun(ctx, archive.FromOutcome(out, sc.UsesPerturbation()), out.Collisions)
				if err != nil {
					slog.Warn("archiving sweep run failed", "seed", out.Seed, "error", err)
				} else {
					runID = saved.ID.String()
				}
			}
			sess.emit(telemetry.Event{Kind: telemetry.KindRunDone, RunID: runID, Scenario: sc.Name, Data: map[string]any{
				"seed":       out.Seed,
				"drift":      out.MaxDrift(),
				"collisions": len(out.Collisions),
			}})

			mu.Lock()
			done++
			sess.printer.SweepProgress(done, len(seeds), 0)
			mu.Unlock()
		},
	})
	if err != nil {
		return err
	}

	sess.printer.SweepProgress(len(seeds), len(seeds), summary.Failed)
	sess.printer.SweepDone(summary)
	sess.emit(telemetry.Event{Kind: telemetry.KindSweepDone, Scenario: sc.Name, Data: map[string]any{
		"seeds":          len(seeds),
		"completed":      summary.Completed,
		"failed":         summary.Failed,
		"drift_mean":     summary.DriftMean,
		"drift_stddev":   summary.DriftStdDev,
		"with_collision": summary.SeedsWithCollisions,
	}})
	if summary.Completed == 0 {
		return fmt.Errorf("sweep: every seed failed")
	}
	return nil
}
