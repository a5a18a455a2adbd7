package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/wire"
)

func provisionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the Cosmos database and container, or apply Postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if err := wire.Provision(cmd.Context(), cfg, log); err != nil {
				log.Error("provisioning failed", zap.String("store", cfg.Store.Driver), zap.Error(err))
				return err
			}
			log.Info("provisioning complete", zap.String("store", cfg.Store.Driver))
			return nil
		},
	}
}
