package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/archive"
	"github.com/papapumpkin/orbitflow/internal/export"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse the run archive",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one archived run and its collisions",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.PersistentFlags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	runsShowCmd.Flags().String("collisions-csv", "", "write the run's collision steps to this CSV file")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// openArchive opens the configured archive regardless of --no-archive.
func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return archive.Open(cmd.Context(), cfg.Archive.Path)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no archived runs")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
	return nil
}

// runsTable renders archived runs as a bordered table.
func runsTable(runs []archive.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID.String()[:8],
			r.CreatedAt.Local().Format(time.DateTime),
			r.Scenario,
			r.Kind,
			strconv.Itoa(r.Bodies),
			strconv.Itoa(r.Steps),
			fmt.Sprintf("%.3e", r.EnergyDrift),
			strconv.Itoa(r.CollisionPairs),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CREATED", "SCENARIO", "KIND", "BODIES", "STEPS", "DRIFT", "COLLISIONS").
		Rows(rows...).
		String()
}

// resolveRunID accepts a full UUID or a unique prefix of an archived run ID.
func resolveRunID(cmd *cobra.Command, store *archive.Store, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return uuid.Nil, err
	}
	var match uuid.UUID
	for _, r := range runs {
		if arg != "" && strings.HasPrefix(r.ID.String(), arg) {
			if match != uuid.Nil {
				return uuid.Nil, fmt.Errorf("run ID prefix %q is ambiguous", arg)
			}
			match = r.ID
		}
	}
	if match == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s", archive.ErrRunNotFound, arg)
	}
	return match, nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	id, err := resolveRunID(cmd, store, args[0])
	if err != nil {
		return err
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	events, err := store.Collisions(ctx, id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printRun(w, run)
	for _, ev := range events {
		fmt.Fprintf(w, "  body %d × body %d: %d step(s), first %d, last %d\n",
			ev.I+1, ev.J+1, len(ev.Steps), ev.Steps[0], ev.Steps[len(ev.Steps)-1])
	}

	if path, _ := cmd.Flags().GetString("collisions-csv"); path != "" {
		f, err := createFile(path)
		if err != nil {
			return err
		}
		if err := export.WriteCollisions(f, events); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}

func printRun(w io.Writer, r archive.Run) {
	fmt.Fprintf(w, "run:          %s\n", r.ID)
	fmt.Fprintf(w, "created:      %s\n", r.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "scenario:     %s (%s)\n", r.Scenario, r.Kind)
	fmt.Fprintf(w, "G:            %g\n", r.G)
	fmt.Fprintf(w, "central mass: %g\n", r.CentralMass)
	fmt.Fprintf(w, "steps:        %d × %g\n", r.Steps, r.Dt)
	fmt.Fprintf(w, "seed:         %d (perturbed: %v)\n", r.Seed, r.Perturbed)
	fmt.Fprintf(w, "bodies:       %d\n", r.Bodies)
	fmt.Fprintf(w, "energy drift: %.6e\n", r.EnergyDrift)
	fmt.Fprintf(w, "collisions:   %d pair(s)\n", r.CollisionPairs)
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := resolveRunID(cmd, store, args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteRun(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	return nil
}
