package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/internal/logging"
	"github.com/yourusername/shopfront/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		current := *vc.Get()
		cfg := &current
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		vc.Subscribe(func(next *configs.Config) {
			a.applyConfig(next, atomicLevel, logging.Named(logger, "config"))
		})

		srv, err := server.New(cfg.Server, cfg.Metrics, server.Deps{
			Products:      a.products,
			Carts:         a.carts,
			Auth:          a.auth,
			Sessions:      a.sessions,
			ResponseCache: a.responses,
			Metrics:       a.metrics,
			Gatherer:      a.registry,
			Logger:        logging.Named(logger, "http"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting shopfront",
			zap.String("addr", cfg.Server.Addr),
			zap.String("catalog", cfg.Catalog.BaseURL),
			zap.String("store", cfg.Store.Backend),
			zap.Bool("mirror_writes", cfg.Catalog.MirrorWrites))
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}
