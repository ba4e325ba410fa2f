package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/config"
	"github.com/papapumpkin/orbitflow/internal/export"
	"github.com/papapumpkin/orbitflow/internal/scenario"
)

var orbitCmd = &cobra.Command{
	Use:   "orbit",
	Short: "Integrate a single body around the central mass",
	Long: `Integrates one body that starts at (1, 0) with velocity (0, 1).

Every acceleration can be perturbed by Gaussian noise scaled by --perturbation;
the noise is reproducible from --seed. Values not given as flags come from the
config file or ORBITFLOW_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runOrbit,
}

func init() {
	addIntegrationFlags(orbitCmd)
	orbitCmd.Flags().Float64("body-mass", 0, "mass of the orbiting body")
	orbitCmd.Flags().Float64("perturbation", 0, "std-dev scale of the random acceleration (0 disables it)")
	orbitCmd.Flags().String("energy-csv", "", "write the energy series to this CSV file")
	rootCmd.AddCommand(orbitCmd)
}

// addIntegrationFlags registers the flags shared by orbit and system.
func addIntegrationFlags(cmd *cobra.Command) {
	cmd.Flags().String("units", "", "unit system: si or natural")
	cmd.Flags().Float64("g", 0, "gravitational constant (overrides --units)")
	cmd.Flags().Float64("central-mass", 0, "mass of the central body")
	cmd.Flags().Int("steps", 0, "number of integration steps")
	cmd.Flags().Float64("dt", 0, "time step")
	cmd.Flags().Uint64("seed", 0, "seed of the perturbation generator")
	cmd.Flags().String("trajectory-csv", "", "write trajectories to this CSV file")
	cmd.Flags().Bool("plot", false, "print an ASCII plot of the trajectories")
	cmd.Flags().Int("plot-width", 60, "plot width in columns")
	cmd.Flags().Int("plot-height", 21, "plot height in rows")
}

// applyFlagOverrides applies explicitly set CLI flag values to the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("units") {
		cfg.Units, _ = f.GetString("units")
	}
	if f.Changed("g") {
		cfg.G, _ = f.GetFloat64("g")
	}
	if f.Changed("central-mass") {
		cfg.CentralMass, _ = f.GetFloat64("central-mass")
	}
	if f.Changed("steps") {
		cfg.Steps, _ = f.GetInt("steps")
	}
	if f.Changed("dt") {
		cfg.Dt, _ = f.GetFloat64("dt")
	}
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetUint64("seed")
	}
	if f.Lookup("body-mass") != nil && f.Changed("body-mass") {
		cfg.BodyMass, _ = f.GetFloat64("body-mass")
	}
	if f.Lookup("perturbation") != nil && f.Changed("perturbation") {
		cfg.Perturbation, _ = f.GetFloat64("perturbation")
	}
}

// orbitScenario describes a single-body run from the config. G is resolved
// from the unit system here so the scenario carries the value actually used.
func orbitScenario(cfg config.Config) (*scenario.Scenario, error) {
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	return &scenario.Scenario{
		Name:         "orbit",
		Kind:         scenario.KindOrbit,
		Units:        cfg.Units,
		G:            p.G,
		CentralMass:  cfg.CentralMass,
		Steps:        p.Steps,
		Dt:           p.Dt,
		Seed:         cfg.Seed,
		Perturbation: cfg.Perturbation,
		Bodies:       []scenario.BodySpec{{Name: "Body", Mass: cfg.BodyMass}},
	}, nil
}

func runOrbit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, err := orbitScenario(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, "orbit")
	if err != nil {
		return err
	}
	defer sess.Close()

	out, _, err := sess.execute(ctx, sc)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("energy-csv"); path != "" {
		if err := sess.writeFile("energy CSV", path, func(w io.Writer) error {
			return export.WriteEnergy(w, out.Energies[0])
		}); err != nil {
			return err
		}
	}
	return finishRun(cmd, sess, out)
}

// finishRun writes the optional trajectory CSV and plot shared by orbit and system.
func finishRun(cmd *cobra.Command, sess *session, out *scenario.Outcome) error {
	if path, _ := cmd.Flags().GetString("trajectory-csv"); path != "" {
		if err := sess.writeFile("trajectory CSV", path, func(w io.Writer) error {
			return export.WriteTrajectories(w, out.Trajectories)
		}); err != nil {
			return err
		}
	}
	if plot, _ := cmd.Flags().GetBool("plot"); plot {
		width, _ := cmd.Flags().GetInt("plot-width")
		height, _ := cmd.Flags().GetInt("plot-height")
		sess.printer.Plot(out.Trajectories, out.Collisions, width, height)
	}
	return nil
}
