package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/scenario"
	"github.com/papapumpkin/orbitflow/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write an example scenario file",
	Long: `Writes the built-in two-planet scenario to a TOML file as a starting point.
A .toml extension is added when missing. Existing files are kept unless
--force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	initCmd.Flags().String("name", "", "scenario name (default: file name)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.HasSuffix(path, ".toml") {
		path += ".toml"
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	sc := scenario.Example()
	sc.Name = strings.TrimSuffix(filepath.Base(path), ".toml")
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		sc.Name = name
	}
	if err := scenario.Save(path, sc); err != nil {
		return err
	}
	ui.New().Wrote("scenario", path)
	return nil
}

// createFile creates path, making any missing parent directories.
func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}
