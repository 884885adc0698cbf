package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MeloTTS HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			svc, err := openService(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := server.New(cfg.Server, svc)
			if providers != nil {
				srv = srv.WithMetrics(providers.Metrics)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	return cmd
}
