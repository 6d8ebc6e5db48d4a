package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/divyekant/docportal/internal/catalog"
)

func catalogCmdGroup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the document catalog",
	}
	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogValidateCmd())
	return cmd
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [catalog.json]",
		Short: "List cataloged documents",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalogList,
	}
}

func catalogPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.CatalogPath, nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	path, err := catalogPath(cmd, args)
	if err != nil {
		return err
	}
	entries, err := catalog.Load(path)
	if err != nil {
		return err
	}

	writeOutput(cmd, entries, func() {
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No documents cataloged.")
			return
		}
		fmt.Fprintf(out, "%s%s%d document(s)%s in %s\n\n", bold, cyan, len(entries), reset, path)
		for _, e := range entries {
			fmt.Fprintf(out, "  %s%3d%s  %s  (%d pages, %s)\n", bold, e.ID, reset, e.Title, e.PageCount, formatBytes(e.Size))
			fmt.Fprintf(out, "       %s\n", truncateText(e.Summary, 100))
		}
	})
	return nil
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog.json]",
		Short: "Check a catalog file against the catalog schema",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalogValidate,
	}
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path, err := catalogPath(cmd, args)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if err := catalog.Validate(data); err != nil {
		writeOutput(cmd, map[string]any{"path": path, "valid": false, "error": err.Error()}, func() {
			printError("%v", err)
		})
		return err
	}
	writeOutput(cmd, map[string]any{"path": path, "valid": true}, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s %s is valid\n", green, reset, path)
	})
	return nil
}
