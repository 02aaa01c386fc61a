package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/registry"
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/service/inmemory"
	"github.com/stacklok/ballpark/internal/session"
)

const defaultRowLimit = 25

func newCompareCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Filter a panel's dataset and compare players from the terminal",
		Example: `  ballpark-api compare --panel mlb-batting --team NYY --min 300 \
    --name "Aaron Judge" --name "Juan Soto" --metric HR --metric RBI`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, v)
		},
	}

	cmd.Flags().String("panel", "", "Panel id (see the tabs of the configuration)")
	cmd.Flags().String("team", "", "Team to filter on, all teams when empty")
	cmd.Flags().Float64("min", 0, "Minimum value of the panel's threshold column, the panel default when unset")
	cmd.Flags().StringArray("name", nil, "Player to compare (repeatable)")
	cmd.Flags().StringSlice("metric", nil, "Numeric column to compare (repeatable or comma separated)")
	cmd.Flags().String("search", "", "Substring or glob narrowing the player list")
	cmd.Flags().Int("rows", defaultRowLimit, "Maximum filtered rows to print, 0 for all")
	if err := cmd.MarkFlagRequired("panel"); err != nil {
		slog.Error("Failed to mark panel flag as required", "error", err)
	}

	return cmd
}

func runCompare(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	panelID, _ := flags.GetString("panel")
	rows, _ := flags.GetInt("rows")

	state := session.PanelState{}
	state.Team, _ = flags.GetString("team")
	state.Names, _ = flags.GetStringArray("name")
	state.Metrics, _ = flags.GetStringSlice("metric")
	state.Search, _ = flags.GetString("search")
	if flags.Changed("min") {
		minimum, _ := flags.GetFloat64("min")
		if minimum < 0 {
			return fmt.Errorf("--min must not be negative")
		}
		state.Threshold = &minimum
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	svc, err := newOfflineService(cfg)
	if err != nil {
		return err
	}

	view, err := svc.GetPanel(cmd.Context(), panelID, state)
	if errors.Is(err, service.ErrPanelNotFound) {
		return fmt.Errorf("unknown panel %q: %w", panelID, err)
	}
	if err != nil {
		return err
	}

	return renderPanel(cmd.OutOrStdout(), view, rows)
}

// newOfflineService builds the dashboard service without telemetry for one-shot commands
func newOfflineService(cfg *config.Config) (service.DashboardService, error) {
	reg, err := registry.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset registry: %w", err)
	}
	return newOfflineServiceFor(cfg, reg)
}

func newOfflineServiceFor(cfg *config.Config, provider service.DatasetProvider) (service.DashboardService, error) {
	svc, err := inmemory.New(cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard service: %w", err)
	}
	return svc, nil
}
