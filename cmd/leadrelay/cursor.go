package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/leadrelay/internal/app"
	"github.com/ternarybob/leadrelay/internal/models"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset the stored cursor",
}

var cursorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored last_created_at watermark",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewCursorOnly(config, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		watermark, err := application.CursorService.Load(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), watermark)
		return nil
	},
}

var cursorResetYes bool

var cursorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Rewind the cursor so the next run re-delivers everything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cursorResetYes {
			return fmt.Errorf("refusing to reset cursor without --yes")
		}

		application, err := app.NewCursorOnly(config, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.CursorService.Reset(context.Background()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cursor reset to %s\n", models.EpochWatermark)
		return nil
	},
}

func init() {
	cursorResetCmd.Flags().BoolVar(&cursorResetYes, "yes", false, "Confirm the reset")

	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
}
