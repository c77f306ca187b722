package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"govspend/internal/amqp"
	"govspend/internal/cli"
	apphttp "govspend/internal/http"
	applog "govspend/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	rt, err := cli.Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	srv := apphttp.NewServer(":"+cfg.Port, rt.Service, apphttp.Options{
		Backend:      rt.Service.Backend(),
		ViewCacheTTL: cfg.CacheTTL,
		RateLimit:    cfg.RateLimitPerMinute,
		Logger:       logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting govspend server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"amqp_enabled", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.AMQPEnabled() {
		g.Go(func() error {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				logger.Warn("AMQP unavailable, continuing without dataset notifications", applog.FieldError, err)
				return nil
			}
			defer client.Close()

			err = client.ConsumeDatasetUpdates(gctx, func(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
				logger.InfoContext(ctx, "Dataset updated", "source", msg.Source, "timestamp", msg.Timestamp)
				rt.Service.Invalidate()
				srv.InvalidateViews()
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
