package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDedupeCmd creates the dedupe maintenance command.
func NewDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove rows sharing word, title and explanation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			removed, err := application.Dedupe(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate definitions\n", removed)
			return nil
		},
	}
}
