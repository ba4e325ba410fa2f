package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/export"
	"github.com/papapumpkin/orbitflow/internal/scenario"
)

var systemCmd = &cobra.Command{
	Use:   "system [scenario.toml]",
	Short: "Integrate a planetary system and detect collisions",
	Long: `Integrates every body of a scenario on a circular-orbit seed around the
central mass, then reports every pair of bodies that came closer than the sum
of their sizes.

Without a scenario file the built-in two-planet example is used. The "flux"
model adds a fixed 1e-6 random acceleration to every step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSystem,
}

func init() {
	addIntegrationFlags(systemCmd)
	systemCmd.Flags().String("model", "", "spacetime model: classic or flux")
	systemCmd.Flags().String("collisions-csv", "", "write collision steps to this CSV file")
	systemCmd.Flags().String("table-csv", "", "write the body table to this CSV file")
	rootCmd.AddCommand(systemCmd)
}

// loadScenarioArg loads the scenario named by args, or the built-in example.
func loadScenarioArg(args []string) (*scenario.Scenario, error) {
	if len(args) == 0 {
		return scenario.Example(), nil
	}
	return scenario.Load(args[0])
}

// applyScenarioFlags applies explicitly set CLI flag values to a scenario.
func applyScenarioFlags(cmd *cobra.Command, sc *scenario.Scenario) {
	f := cmd.Flags()
	if f.Changed("units") {
		sc.Units, _ = f.GetString("units")
	}
	if f.Changed("g") {
		sc.G, _ = f.GetFloat64("g")
	}
	if f.Changed("central-mass") {
		sc.CentralMass, _ = f.GetFloat64("central-mass")
	}
	if f.Changed("steps") {
		sc.Steps, _ = f.GetInt("steps")
	}
	if f.Changed("dt") {
		sc.Dt, _ = f.GetFloat64("dt")
	}
	if f.Changed("seed") {
		sc.Seed, _ = f.GetUint64("seed")
	}
	if f.Lookup("model") != nil && f.Changed("model") {
		sc.Model, _ = f.GetString("model")
	}
}

func runSystem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := loadScenarioArg(args)
	if err != nil {
		return err
	}
	applyScenarioFlags(cmd, sc)
	if err := sc.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, "system")
	if err != nil {
		return err
	}
	defer sess.Close()

	out, _, err := sess.execute(ctx, sc)
	if err != nil {
		return err
	}
	sess.printer.Collisions(out.Collisions, sc.BodyName)
	rows := sc.BodyTable()
	sess.printer.BodyTable(rows)

	if path, _ := cmd.Flags().GetString("collisions-csv"); path != "" {
		if err := sess.writeFile("collisions CSV", path, func(w io.Writer) error {
			return export.WriteCollisions(w, out.Collisions)
		}); err != nil {
			return err
		}
	}
	if path, _ := cmd.Flags().GetString("table-csv"); path != "" {
		if err := sess.writeFile("body table CSV", path, func(w io.Writer) error {
			return export.WriteBodyTable(w, rows)
		}); err != nil {
			return err
		}
	}
	return finishRun(cmd, sess, out)
}
