package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
	"catalog/internal/models"
)

func newRecordsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "records", Short: "Manage instrument records"}
	cmd.AddCommand(
		newRecordsListCmd(cfg, jsonOutput),
		newRecordsPutCmd(cfg, jsonOutput),
		newRecordsDeleteCmd(cfg, jsonOutput),
	)
	return cmd
}

func newRecordsListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every record ordered by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				instruments, err := client.ListInstruments(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(instruments)
				}
				return writeInstrumentList(instruments)
			})
		},
	}
}

func newRecordsPutCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file.json|->",
		Short: "Create or replace a record from a JSON document",
		Args:  requireExactlyArgs(1, "a JSON file (or - for stdin) is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInstrument(args[0])
			if err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				stored, err := client.UpsertInstrument(cmd.Context(), in)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(stored)
				}
				return writePlain("stored %s\n", formatInstrumentLine(stored))
			})
		},
	}
}

func newRecordsDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records by id",
		Args:  requireRecordIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseRecordIDs(args)
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				results := make([]api.DeleteResponse, 0, len(ids))
				for _, id := range ids {
					resp, err := client.DeleteInstrument(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("delete %d: %w", id, err)
					}
					results = append(results, resp)
					if !*jsonOutput {
						var deleted int64
						if resp.Deleted != nil {
							deleted = *resp.Deleted
						}
						_ = writePlain("%d: deleted %d\n", id, deleted)
					}
				}
				if *jsonOutput {
					return writeJSON(results)
				}
				return nil
			})
		},
	}
}

func readInstrument(path string) (models.Instrument, error) {
	var in models.Instrument
	data, err := readInput(path)
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
