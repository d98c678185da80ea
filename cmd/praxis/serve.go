package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"praxis/internal/config"
	"praxis/internal/logging"
	"praxis/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Exposes query, chat, and document ingestion over HTTP with API key
auth, per-tier rate limits, and Prometheus metrics on /metrics. Shuts
down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := newClient()
		if err != nil {
			return err
		}
		pipeline, err := newPipeline(st, client)
		if err != nil {
			return err
		}

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		s := server.New(cfg.Server, pipeline, client, st, cfg.Memory.WindowSize)

		// API keys and rate limits follow config file edits without a
		// restart.
		stopWatch, err := config.Watch(configPath, func(c *config.Config) {
			s.ApplyConfig(c.Server)
		})
		if err != nil {
			logging.Get(logging.CategoryConfig).Warnw("config watch disabled", "err", err)
		} else {
			defer stopWatch()
		}

		return s.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}
