package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"SlangHarvester/internal/infrastructure/telegram"
)

// NewHarvestCmd creates the harvest command, which runs a single cycle and exits.
func NewHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Run one harvest cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			application, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.HarvestOnce(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), telegram.FormatReport(report, err))
			return err
		},
	}
}
