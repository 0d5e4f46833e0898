package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"catalog/internal/models"
)

func requireAtLeastArgs(min int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min {
			return errors.New(message)
		}
		return nil
	}
}

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

// requireRecordIDs accepts one or more positive integer record ids.
func requireRecordIDs(cmd *cobra.Command, args []string) error {
	if err := requireAtLeastArgs(1, "at least one record id is required")(cmd, args); err != nil {
		return err
	}
	_, err := parseRecordIDs(args)
	return err
}

func parseRecordIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	seen := make(map[int64]struct{}, len(args))
	for _, raw := range args {
		id, err := models.ParseInstrumentID(raw)
		if err != nil {
			return nil, fmt.Errorf("record id %q: %w", raw, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
