package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/ballpark/internal/registry"
)

func newDatasetsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Load every configured dataset and print its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			reg, err := registry.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create dataset registry: %w", err)
			}
			if err := reg.Preload(cmd.Context()); err != nil {
				return err
			}

			svc, err := newOfflineServiceFor(cfg, reg)
			if err != nil {
				return err
			}
			infos, err := svc.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			return renderDatasets(cmd.OutOrStdout(), infos)
		},
	}
}
