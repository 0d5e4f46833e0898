package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"catalog/internal/api"
	"catalog/internal/config"
)

func newFilesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "files", Short: "Manage stored files"}
	cmd.AddCommand(
		newFilesListCmd(cfg, jsonOutput),
		newFilesPutCmd(cfg, jsonOutput),
		newFilesGetCmd(cfg, jsonOutput),
		newFilesRmCmd(cfg, jsonOutput),
	)
	return cmd
}

func newFilesListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				files, err := client.ListFiles(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(files)
				}
				return writeFileList(files)
			})
		},
	}
}

func newFilesPutCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var name string
	var contentType string

	cmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Upload a file",
		Args:  requireExactlyArgs(1, "a file path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(path)
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(name))
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UploadFile(cmd.Context(), name, contentType, f)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeUpload(resp)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "file name sent to the server (default: base name of path)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: guessed from the extension)")
	return cmd
}

func newFilesGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Download a file by storage name",
		Args:  requireExactlyArgs(1, "a storage name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var w io.Writer = os.Stdout
			toStdout := outPath == "" || outPath == "-"
			if !toStdout {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return withClient(cfg, func(client *api.Client) error {
				contentType, n, err := client.DownloadFile(cmd.Context(), name, w)
				if err != nil {
					if !toStdout {
						_ = os.Remove(outPath)
					}
					return err
				}
				if toStdout {
					return nil
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"name": name, "path": outPath, "bytes": n, "contentType": contentType})
				}
				return writePlain("wrote %s to %s (%s)\n", humanize.IBytes(uint64(n)), outPath, contentType)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to this path instead of stdout")
	return cmd
}

func newFilesRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete files by id",
		Args:  requireAtLeastArgs(1, "at least one file id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				results := make([]api.DeleteResponse, 0, len(args))
				for _, id := range args {
					if err := client.DeleteFile(cmd.Context(), id); err != nil {
						return fmt.Errorf("delete %s: %w", id, err)
					}
					results = append(results, api.DeleteResponse{Success: true, ID: id})
					if !*jsonOutput {
						_ = writePlain("deleted %s\n", id)
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
