package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/leadrelay/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run harvests on the configured schedule",
	Long:  `Keeps running and triggers a harvest on every tick of scheduler.schedule (six-field cron, seconds first). A tick that arrives while a run is still in progress is skipped.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.SchedulerService.Start(ctx, config.Scheduler.Schedule, config.Scheduler.RunOnStart); err != nil {
		return err
	}

	logger.Info().
		Str("schedule", config.Scheduler.Schedule).
		Msg("Scheduler running - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")

	return application.SchedulerService.Stop()
}
