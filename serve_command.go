package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"imageconverter/logger"
	"imageconverter/routes"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a loopback conversion endpoint that accepts locally issued tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Only the secret is needed; release the store so other
			// commands can open it while the server runs.
			provider, err := ctx.identityProvider(nil)
			if err != nil {
				ctx.close()
				return err
			}
			convertCfg := routes.ConvertConfig{
				Secret:    provider.Secret(),
				Issuer:    provider.Issuer(),
				ClockSkew: 30 * time.Second,
			}
			if err := ctx.close(); err != nil {
				return err
			}

			bind := cfg.Server.Bind
			if bindFlag != "" {
				bind = bindFlag
			}
			srv := &http.Server{
				Addr:              bind,
				Handler:           routes.NewMux(convertCfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("Loopback conversion endpoint listening on http://%s/convert", bind)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-cmd.Context().Done():
				logger.Info("Shutting down loopback endpoint")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (defaults to server.bind)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(routes.BuildInfo())
		},
	}
}
