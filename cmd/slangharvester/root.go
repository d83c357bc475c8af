package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SlangHarvester/internal/app"
	"SlangHarvester/internal/config"
	"SlangHarvester/internal/logging"
)

// NewRootCmd creates the root command for SlangHarvester.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slangharvester",
		Short: "Harvest slang definitions into a local dictionary",
		Long: `SlangHarvester walks every alphabetical tab of an online slang dictionary,
extracts the definitions that readers voted up, and keeps them in a local
SQLite database that can be queried word by word.

Configuration comes from an optional YAML file (SLANG_HARVESTER_CONFIG),
a .env file and environment variables; the flags below override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringP("database", "d", "", "Path to the SQLite definition database")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewLookupCmd())
	cmd.AddCommand(NewDedupeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		if err := os.Setenv("SLANG_HARVESTER_CONFIG", path); err != nil {
			return config.Config{}, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg := config.Load()

	database, err := cmd.Flags().GetString("database")
	if err != nil {
		return config.Config{}, err
	}
	if database != "" {
		cfg.Database.Path = database
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openApp builds the application for a subcommand. The caller closes it.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.Application, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return app.New(ctx, cfg, logger)
}
