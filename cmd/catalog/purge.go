package main

import (
	"errors"

	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
)

func newPurgeCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every record and every stored file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("purge deletes all records and files; pass --yes to confirm")
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Purge(cmd.Context())
				if err != nil && resp.Error == "" {
					return err
				}

				if *jsonOutput {
					if writeErr := writeJSON(resp); writeErr != nil {
						return writeErr
					}
					return err
				}

				_ = writePlain("records deleted: %d\n", resp.RecordsDeleted)
				_ = writePlain("files deleted: %d\n", resp.BlobsDeleted)
				if resp.BlobsFailed > 0 {
					_ = writePlain("files failed: %d\n", resp.BlobsFailed)
				}
				if resp.OrphanChunksDeleted > 0 {
					_ = writePlain("orphan chunks deleted: %d\n", resp.OrphanChunksDeleted)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
