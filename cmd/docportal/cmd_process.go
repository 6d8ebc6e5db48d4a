package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divyekant/docportal/internal/config"
	"github.com/divyekant/docportal/internal/pipeline"
	"github.com/divyekant/docportal/pkg/docportal"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Extract, summarize and catalog every PDF in the documents directory",
		Args:  cobra.NoArgs,
		RunE:  runProcess,
	}
	cmd.Flags().String("docs-dir", "", "Documents directory (overrides config)")
	cmd.Flags().String("catalog", "", "Catalog file to write (overrides config)")
	cmd.Flags().String("on-summary-error", "", "What a failed summary does to the run: abort (default) or skip")
	cmd.Flags().Duration("delay", 0, "Summary spacing (overrides config)")
	cmd.Flags().String("pacing", "", "How summaries are spaced: fixed (pause after each file, default) or bucket")
	cmd.Flags().String("publish", "", "Also upload the catalog to this gs:// URI")
	return cmd
}

// processFlags folds command-line overrides into cfg.
func processFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("docs-dir"); v != "" {
		cfg.DocsDir = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}
	if v, _ := cmd.Flags().GetString("on-summary-error"); v != "" {
		cfg.OnSummaryError = v
	}
	if v, _ := cmd.Flags().GetString("pacing"); v != "" {
		cfg.Pacing = v
	}
	if cmd.Flags().Changed("delay") {
		cfg.Delay, _ = cmd.Flags().GetDuration("delay")
	}
	if v, _ := cmd.Flags().GetString("publish"); v != "" {
		cfg.PublishURI = v
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	processFlags(cmd, &cfg)

	if err := config.Validate(cfg); err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) {
			printError("%s", cerr.Error())
		}
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	jsonMode, _ := cmd.Flags().GetBool("json")
	showProgress := !quiet && !jsonMode

	spinIdx := 0
	startTime := time.Now()
	progressFn := func(file string, done, total int) {
		if !showProgress {
			return
		}
		frame := spinnerFrames[spinIdx%len(spinnerFrames)]
		spinIdx++
		if done >= total {
			fmt.Printf("\r%s✓%s %s [%d/%d]\n", green, reset, truncateText(file, 48), done, total)
		} else {
			fmt.Printf("\r%s%s%s %s [%d/%d]", cyan, frame, reset, truncateText(file, 48), done, total)
		}
	}

	if showProgress {
		fmt.Printf("%s%sdocportal processing %s%s\n", bold, cyan, cfg.DocsDir, reset)
		fmt.Printf("  catalog: %s\n", cfg.CatalogPath)
		fmt.Printf("  on summary error: %s\n\n", cfg.OnSummaryError)
	}

	result, err := docportal.Ingest(cmd.Context(), cfg, nil, progressFn)
	if result == nil {
		return fmt.Errorf("process failed: %w", err)
	}

	elapsed := time.Since(startTime)
	writeOutput(cmd, processSummary(result, elapsed), func() {
		fmt.Println()
		fmt.Printf("%s%s=== Summary ===%s\n", bold, green, reset)
		fmt.Printf("  found:      %d\n", result.Candidates)
		fmt.Printf("  cataloged:  %d\n", len(result.Entries))
		fmt.Printf("  skipped:    %d\n", len(result.Skipped))
		fmt.Printf("  no summary: %d\n", len(result.SummaryFailures))
		if result.Published {
			fmt.Printf("  published:  %s\n", cfg.PublishURI)
		}
		fmt.Printf("  elapsed:    %s\n", elapsed.Round(time.Millisecond))

		if len(result.Errors) > 0 {
			fmt.Printf("\n%s%sWarnings:%s\n", bold, yellow, reset)
			for i, e := range result.Errors {
				if i >= 10 {
					fmt.Printf("  ... and %d more\n", len(result.Errors)-10)
					break
				}
				fmt.Printf("  - %v\n", e)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}
	return nil
}

func processSummary(r *pipeline.Result, elapsed time.Duration) map[string]any {
	errs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e.Error()
	}
	return map[string]any{
		"candidates":       r.Candidates,
		"entries":          len(r.Entries),
		"skipped":          r.Skipped,
		"summary_failures": r.SummaryFailures,
		"published":        r.Published,
		"errors":           errs,
		"elapsed_ms":       elapsed.Milliseconds(),
	}
}
