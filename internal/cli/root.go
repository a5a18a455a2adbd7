// Package cli is the wine-api command line: serve runs the HTTP API,
// provision prepares the configured document store.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/config"
	"github.com/envino/wine-api/internal/logger"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "wine-api",
		Short:        "Envino winery API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to a config file (default: config.toml in ., ./config or /app)")

	cmd.AddCommand(serveCmd(g), provisionCmd(g))
	return cmd
}

// setup loads configuration and builds the logger for a subcommand.
func (g *globals) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, err
	}
	log = log.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env))
	return cfg, log, nil
}
