package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
)

func newGCCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Reclaim chunks left by interrupted uploads",
		Long:  "Reports orphan chunks older than the configured grace period. Nothing is deleted unless --apply is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GC(cmd.Context(), api.GCRequest{DryRun: !apply})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}

				verb := "would delete"
				if !resp.DryRun {
					verb = "deleted"
				}
				return writePlain("%s %d chunks from %d files (%s)\n", verb, resp.Chunks, resp.Files, humanize.IBytes(uint64(max(resp.Bytes, 0))))
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete orphan chunks instead of reporting them")
	return cmd
}
