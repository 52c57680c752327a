package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/leadrelay/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one harvest and exit",
	Long:  `Logs into the portal, collects every lead newer than the stored cursor, delivers them to the webhook and advances the cursor. Exits non-zero if any step fails.`,
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	application, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := application.Pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d new records, delivered=%t, cursor=%s\n",
		result.RunID, result.Records, result.Delivered, result.NewCursor)
	return nil
}
