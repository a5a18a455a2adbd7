package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/wire"
)

func serveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := wire.Build(ctx, cfg, log)
			if err != nil {
				log.Error("failed to build application", zap.Error(err))
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("HTTP server listening", zap.String("addr", app.Server.Addr))
				if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
				log.Info("shutdown signal received")
			case serveErr = <-errCh:
				if serveErr != nil {
					log.Error("HTTP server error", zap.Error(serveErr))
				}
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer shutdownCancel()

			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Error("shutdown error", zap.Error(err))
			}

			log.Info("wine-api server stopped")
			return serveErr
		},
	}
}
