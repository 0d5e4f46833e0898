package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catalog/internal/blobstore"
	"catalog/internal/config"
	"catalog/internal/server"
	"catalog/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the catalog API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL, cfg.AllowRemote)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger.Info("opening database", "path", cfg.DBPath, "quota_bytes", cfg.Storage.QuotaBytes)
			st, err := store.OpenWithRetry(ctx, cfg.DBPath, store.Options{QuotaBytes: cfg.Storage.QuotaBytes}, uint64(cfg.Storage.OpenRetries))
			if err != nil {
				return err
			}
			defer st.Close()

			blobs := blobstore.NewChunkedStore(st, cfg.Storage.ChunkSize).
				WithLogger(slog.Default().With("component", "blobstore"))

			srv := server.New(addr, st, blobs, logger)
			srv.Configure(server.Options{
				MaxUploadBytes:     cfg.Uploads.MaxBytes,
				MultipartMaxMemory: cfg.Uploads.MultipartMaxMemory,
				MaxJSONBytes:       cfg.Uploads.MaxJSONBytes,
				GCGrace:            cfg.GCGraceDuration(),
			})
			return srv.Run(ctx)
		},
	}
}
