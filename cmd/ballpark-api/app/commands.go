// Package app provides the entry point for the ballpark-api application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/versions"
)

// NewRootCmd creates a new root command for the ballpark API.
// Each call builds a fresh command tree so flags never leak between invocations.
// When level is non-nil, --debug (or BALLPARK_DEBUG) lowers it to slog.LevelDebug.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:               "ballpark-api",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Baseball statistics dashboard API",
		Long: `ballpark-api serves season statistics for major league, minor league and
upcoming free agent players, with team, minimum-playing-time and player filters and
side by side metric comparisons.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level != nil && v.GetBool("debug") {
				level.Set(slog.LevelDebug)
				slog.Debug("Debug logging enabled")
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, built-in layout when empty)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory relative dataset paths are resolved against")

	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	for _, name := range []string{"debug", "config", "data-dir"} {
		if err := v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
	if err := v.BindEnv("data-dir", config.EnvPrefix+"_DATA_DIR"); err != nil {
		slog.Error("Error binding environment variable", "error", err)
	}

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newCompareCmd(v))
	rootCmd.AddCommand(newDatasetsCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			slog.Info("ballpark-api version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig reads the file named by --config, or the built-in layout when none is given,
// and applies --data-dir
func loadConfig(v *viper.Viper) (*config.Config, error) {
	configPath := v.GetString("config")
	dataDir := v.GetString("data-dir")

	if configPath == "" {
		cfg := config.Default()
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		slog.Info("Using built-in dashboard layout", "data_dir", cfg.GetDataDir())
		return cfg, nil
	}

	opts := []config.Option{config.WithConfigPath(configPath)}
	if dataDir != "" {
		opts = append(opts, config.WithDataDir(dataDir))
	}
	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Loaded configuration",
		"path", configPath,
		"datasets", len(cfg.Datasets),
		"tabs", len(cfg.Tabs),
		"data_dir", cfg.GetDataDir())
	return cfg, nil
}
