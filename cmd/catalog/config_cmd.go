package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"catalog/internal/config"
)

// Keys whose values are byte counts.
var byteSizeKeys = map[string]struct{}{
	"storage.quota_bytes":          {},
	"storage.chunk_size":           {},
	"uploads.max_bytes":            {},
	"uploads.multipart_max_memory": {},
	"uploads.max_json_bytes":       {},
}

func newConfigCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration",
	}

	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg, jsonOutput),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Args:  requireExactlyArgs(1, "a config key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsAllowedKey(key) {
				return fmt.Errorf("unknown key: %s (allowed: %s)", key, strings.Join(config.AllowedKeys(), ", "))
			}
			value, err := cfg.Get(key)
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every effective config value",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(config.AllowedKeys()))
			for _, key := range config.AllowedKeys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
			}
			if *jsonOutput {
				return writeJSON(values)
			}
			for _, key := range config.AllowedKeys() {
				_ = writePlain("%s\n", formatConfigLine(key, values[key]))
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Args:  requireExactlyArgs(2, "a config key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			var path string
			var err error
			if global {
				path, err = config.GlobalPath()
			} else {
				path, err = config.ProjectPath()
			}
			if err != nil {
				return err
			}

			if err := config.SetKey(path, key, value); err != nil {
				return err
			}
			return writePlain("%s: %s\n", path, formatConfigLine(key, value))
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to global config (~/.catalog.toml)")
	return cmd
}

// formatConfigLine renders key = value, adding a readable size for byte keys.
func formatConfigLine(key, value string) string {
	line := key + " = " + value
	if _, ok := byteSizeKeys[key]; !ok {
		return line
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n == 0 {
		return line
	}
	return fmt.Sprintf("%s (%s)", line, humanize.IBytes(n))
}
