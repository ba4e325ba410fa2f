package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/orbitflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "orbitflow",
	Short: "Toy orbital mechanics around a fixed central mass",
	Long: `Orbitflow integrates bodies around a fixed central mass with a semi-implicit
Euler scheme. It runs single orbits and planetary systems, detects close
approaches between bodies, and keeps every run in a local archive.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .orbitflow.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("no-archive", false, "do not record runs in the archive")
	rootCmd.PersistentFlags().Bool("no-telemetry", false, "do not write telemetry events")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".orbitflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ORBITFLOW")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// setupLogging installs the default slog logger at the configured level.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := config.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("config loaded", "file", used)
	}
	return nil
}

// loadConfig decodes the config and applies the persistent flag overrides.
// Commands that integrate validate after applying their own flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Decode()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetBool("no-archive"); v {
		cfg.Archive.Enabled = false
	}
	if v, _ := cmd.Flags().GetBool("no-telemetry"); v {
		cfg.Telemetry.Enabled = false
	}
	return cfg, nil
}
