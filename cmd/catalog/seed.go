package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"catalog/internal/api"
	"catalog/internal/config"
	"catalog/internal/models"
)

const seedListKey = "instruments"

func newSeedCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file|->",
		Short: "Load bootstrap records into an empty catalog",
		Long:  "Reads a YAML or JSON list of records (or a document with an instruments list) and inserts it only when the catalog is empty.",
		Args:  requireExactlyArgs(1, "a seed file (or - for stdin) is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			records, err := parseSeedDocument(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if err := models.ValidateSeed(records); err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SeedInstruments(cmd.Context(), records)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if !resp.Seeded {
					return writePlain("catalog already holds %d records; nothing seeded\n", resp.Count)
				}
				return writePlain("seeded %d records\n", resp.Count)
			})
		},
	}
}

// parseSeedDocument accepts YAML or JSON. The top level is either a list of
// records or a mapping holding that list under "instruments".
func parseSeedDocument(data []byte) ([]models.Instrument, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	switch value := doc.(type) {
	case nil:
		return nil, errors.New("seed document is empty")
	case []any:
	case map[string]any:
		list, ok := value[seedListKey]
		if !ok {
			return nil, fmt.Errorf("seed document has no %q list", seedListKey)
		}
		doc = list
	default:
		return nil, errors.New("seed document must be a list of records")
	}

	// Records go through their JSON form so field validation matches the API.
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var records []models.Instrument
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, err
	}
	return records, nil
}
