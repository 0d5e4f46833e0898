package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catalog/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Catalog stores instrument records and their documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg, &jsonOutput),
		newHealthCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newRecordsCmd(cfg, &jsonOutput),
		newSeedCmd(cfg, &jsonOutput),
		newFilesCmd(cfg, &jsonOutput),
		newPurgeCmd(cfg, &jsonOutput),
		newGCCmd(cfg, &jsonOutput),
	)

	return cmd
}
