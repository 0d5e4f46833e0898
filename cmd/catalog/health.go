package main

import (
	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
)

func newHealthCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("status: %s\ndatabase: %s\n", resp.Status, resp.DBState)
			})
		},
	}
}
