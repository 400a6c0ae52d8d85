package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-admin/internal/dashboard"
	"github.com/noah-isme/gema-admin/internal/observability"
)

func newWatchCommand(app func() *App) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch <resource>",
		Short: "Keep a resource page fresh on a schedule and on remote mutations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}
			return a.watch(cmd.Context(), args[0], schedule)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec for periodic refresh (default from watch.schedule)")
	return cmd
}

func (a *App) watch(ctx context.Context, resource, schedule string) error {
	b, err := a.binding(resource)
	if err != nil {
		return err
	}
	logger := a.logger.With().Str("component", "watch").Str("resource", resource).Logger()

	broadcaster, err := a.broadcaster(ctx)
	if err != nil {
		return fmt.Errorf("connect mutation fan-out: %w", err)
	}
	if err := broadcaster.Start(ctx); err != nil {
		return fmt.Errorf("subscribe to mutations: %w", err)
	}

	p := b.newPage(broadcaster, dashboard.NewLogNotifier(a.logger), a.logger)
	defer p.Close()

	p.Watch(ctx)
	if err := p.Mount(ctx); err != nil {
		return err
	}
	if err := a.print(p.Output()); err != nil {
		return err
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		result := p.Refresh(ctx)
		if err := result.Err(); err != nil {
			logger.Warn().Err(err).Msg("scheduled refresh failed")
			return
		}
		if err := a.print(p.Output()); err != nil {
			logger.Warn().Err(err).Msg("failed to print refreshed page")
		}
	}); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	if a.cfg.MetricsAddr != "" {
		metrics := observability.NewMetricsApp(a.cfg.AppName)
		go func() {
			if err := metrics.Listen(a.cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			if err := metrics.ShutdownWithTimeout(5 * time.Second); err != nil {
				logger.Warn().Err(err).Msg("metrics shutdown failed")
			}
		}()
		logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("serving metrics")
	}

	logger.Info().Str("schedule", schedule).Bool("fan_out", broadcaster != nil).Msg("watching")
	<-ctx.Done()
	logger.Info().Msg("watch stopped")
	return nil
}
