package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dragcal/internal/ics"
	appLog "dragcal/internal/log"
	"dragcal/internal/refresh"
	"dragcal/internal/store"
	"dragcal/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP drag host with scheduled feed refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// --listen overrides the config file if provided.
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"refresh", cfg.RefreshCron,
				"horizon_days", cfg.HorizonDays,
				"backfill_days", cfg.BackfillDays,
				"ics_count", len(cfg.ICS),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st := store.New(0)
			pipeline := refresh.NewPipeline(cfg, ics.NewFetcher(cfg.CacheDir, nil), st)
			sched, err := refresh.NewScheduler(cfg.RefreshCron, cfg.Location(), pipeline)
			if err != nil {
				return err
			}
			if _, err := sched.RunNow(ctx); err != nil {
				// Serve anyway; the next tick may succeed.
				appLog.Error("initial refresh failed", err)
			}
			sched.Start()

			srv := web.NewServer(cfg, st)
			srv.SetRefresher(sched)
			httpSrv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				appLog.Info("signal received, shutting down")
			case err := <-errCh:
				if err != nil {
					_ = sched.Stop(context.Background())
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				appLog.Error("http shutdown failed", err)
			}
			if err := sched.Stop(shutdownCtx); err != nil {
				appLog.Error("scheduler stop failed", err)
			}
			appLog.Info("dragcal exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
