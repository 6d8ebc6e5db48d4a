package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/pipeline"
	"github.com/divyekant/docportal/internal/server"
	"github.com/divyekant/docportal/pkg/docportal"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API, the PDFs and the chat relay",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Address to listen on (default :8950)")
	cmd.Flags().String("docs-dir", "", "Documents directory (overrides config)")
	cmd.Flags().String("catalog", "", "Catalog file (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	processFlags(cmd, &cfg)

	if err := catalog.Bootstrap(cfg.CatalogPath); err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := slog.Default()
	opts := server.Options{
		CatalogPath: cfg.CatalogPath,
		DocsDir:     cfg.DocsDir,
		Logger:      logger,
	}

	var srv *server.Server
	relay, err := docportal.NewRelay(ctx, cfg, func(id int) (catalog.Entry, bool) { return srv.Lookup(id) }, logger)
	if err != nil {
		// The catalog stays browsable without a model backend.
		fmt.Printf("%swarning:%s chat and ingest disabled: %v\n", yellow, reset, err)
	} else {
		opts.Relay = relay
		opts.Ingest = func(ctx context.Context, progress func(string, int, int)) (*pipeline.Result, error) {
			return docportal.Ingest(ctx, cfg, logger, progress)
		}
	}

	srv = server.New(opts)
	fmt.Printf("%s%sdocportal server%s starting on %s\n", bold, cyan, reset, cfg.Addr)
	return srv.Start(ctx, cfg.Addr)
}
