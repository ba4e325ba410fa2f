package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/telemetry"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-run scenario files whenever they change",
	Long: `Runs every .toml scenario in a directory, then watches the directory and
re-runs a scenario each time its file is saved. Failing scenarios are reported
and watching continues. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("initial", true, "run every scenario once before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: %s is not a directory", dir)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd.Context(), cfg, "watch")
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := setupSignalContext(sess.printer)
	defer cancel()
	sess.printer.Banner()

	if initial, _ := cmd.Flags().GetBool("initial"); initial {
		files, err := scenarioFiles(dir)
		if err != nil {
			return err
		}
		for _, path := range files {
			runScenarioFile(ctx, sess, path)
		}
	}

	w, err := scenario.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Stop()
	sess.printer.Info(fmt.Sprintf("watching %s for scenario changes", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			sess.printer.ScenarioChanged(change)
			sess.emit(telemetry.Event{Kind: telemetry.KindScenarioReload, Data: map[string]any{
				"path":   change.Path,
				"change": change.Kind.String(),
			}})
			if change.Kind == scenario.ChangeModified {
				runScenarioFile(ctx, sess, change.Path)
			}
		}
	}
}

// scenarioFiles lists the scenario files in dir in name order.
func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && scenario.IsScenarioFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// runScenarioFile loads and runs one scenario, reporting failures without
// stopping the watch loop.
func runScenarioFile(ctx context.Context, sess *session, path string) {
	sc, err := scenario.Load(path)
	if err != nil {
		sess.printer.Error(err.Error())
		return
	}
	out, _, err := sess.execute(ctx, sc)
	if err != nil {
		slog.Debug("scenario failed", "path", path, "error", err)
		return
	}
	if sc.Kind == scenario.KindSystem {
		sess.printer.Collisions(out.Collisions, sc.BodyName)
	}
}
