package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database contents and capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("db_path: %s\n", cfg.DBPath)
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("instruments: %d\n", resp.Instruments)
				_ = writePlain("blobs: %d (%s)\n", resp.Blobs, humanize.IBytes(uint64(max(resp.BlobBytes, 0))))
				_ = writePlain("database_size: %s\n", humanize.IBytes(uint64(max(resp.PageSize*resp.PageCount, 0))))
				if resp.QuotaBytes > 0 {
					_ = writePlain("quota: %s\n", humanize.IBytes(uint64(resp.QuotaBytes)))
				}
				return nil
			})
		},
	}
	return cmd
}
