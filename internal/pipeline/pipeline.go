// Package pipeline builds the document catalog: it discovers PDFs in the
// documents directory, extracts each one, asks the summarizer for a synopsis,
// and writes the catalog file. Files are processed one at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/extract"
)

// DefaultDelay is the pause after each summarized file.
const DefaultDelay = time.Second

// Policy decides what a summarization failure does to the run.
type Policy string

const (
	// PolicyAbort stops the run, replaces the catalog with [] and returns
	// the error. Entries gathered so far are discarded. This is the default.
	PolicyAbort Policy = "abort"
	// PolicySkip logs the failure, drops that file and keeps going.
	PolicySkip Policy = "skip"
)

// ParsePolicy accepts "abort", "skip" or "" (abort).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("pipeline: unknown summary failure policy %q (want skip or abort)", s)
}

// Pacing decides how summary calls are spaced out.
type Pacing string

const (
	// PacingFixed pauses for Delay after each file that reached the
	// summarizer. This is the default.
	PacingFixed Pacing = "fixed"
	// PacingBucket waits on a token bucket (one token per Delay, burst 1)
	// before each summary call, so time spent summarizing counts toward
	// the interval.
	PacingBucket Pacing = "bucket"
)

// ParsePacing accepts "fixed", "bucket" or "" (fixed).
func ParsePacing(s string) (Pacing, error) {
	switch Pacing(strings.ToLower(strings.TrimSpace(s))) {
	case "", PacingFixed:
		return PacingFixed, nil
	case PacingBucket:
		return PacingBucket, nil
	}
	return "", fmt.Errorf("pipeline: unknown pacing %q (want fixed or bucket)", s)
}

// Summarizer produces a one-sentence synopsis of a document's text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Publisher pushes a finished catalog file somewhere else.
type Publisher interface {
	Publish(ctx context.Context, path string) error
}

// ExtractFunc extracts one PDF. extract.Extract is the default.
type ExtractFunc func(path string) (*extract.Document, error)

// Config holds everything a run needs.
type Config struct {
	DocsDir        string
	CatalogPath    string
	Summarizer     Summarizer
	Extract        ExtractFunc                        // optional, defaults to extract.Extract
	Delay          time.Duration                      // summary spacing; <= 0 disables
	Pacing         Pacing                             // defaults to PacingFixed
	OnSummaryError Policy                             // defaults to PolicyAbort
	Publisher      Publisher                          // optional
	ProgressFn     func(file string, done, total int) // optional progress callback
	Logger         *slog.Logger                       // optional, defaults to slog.Default()
}

// Result describes a finished run.
type Result struct {
	Candidates      int
	Entries         []catalog.Entry
	Skipped         []string // extraction or stat failures
	SummaryFailures []string // only populated under PolicySkip
	Published       bool
	Errors          []error
}

// Run executes one catalog build:
//  1. Bootstrap: create the documents directory
//  2. Discover: list *.pdf files (case-insensitive, non-recursive)
//  3. Process: stat, extract, summarize each file in order, paced by Delay
//  4. Write: save the catalog and optionally publish it
//
// On an aborted run the catalog is rewritten as [] before the error is
// returned, so the file on disk is always a valid JSON array.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Summarizer == nil {
		return nil, errors.New("pipeline: no summarizer configured")
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("pipeline: no catalog path configured")
	}
	if cfg.Extract == nil {
		cfg.Extract = extract.Extract
	}
	if cfg.OnSummaryError == "" {
		cfg.OnSummaryError = PolicyAbort
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := cfg.ProgressFn
	if progress == nil {
		progress = func(string, int, int) {}
	}

	// ── Bootstrap ──────────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.DocsDir, 0o755); err != nil {
		return nil, fail(cfg.CatalogPath, fmt.Errorf("pipeline: create documents dir: %w", err), logger)
	}

	// ── Discover ───────────────────────────────────────────────────────
	files, err := Discover(cfg.DocsDir)
	if err != nil {
		return nil, fail(cfg.CatalogPath, err, logger)
	}

	result := &Result{Candidates: len(files), Entries: []catalog.Entry{}}
	if len(files) == 0 {
		logger.Info("pipeline: no PDF files found", "dir", cfg.DocsDir)
		if err := catalog.WriteEmpty(cfg.CatalogPath); err != nil {
			return nil, err
		}
		return result, nil
	}
	logger.Info("pipeline: found PDF files", "count", len(files), "dir", cfg.DocsDir)

	// ── Process ────────────────────────────────────────────────────────
	var limiter *rate.Limiter
	if cfg.Pacing == PacingBucket && cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, fail(cfg.CatalogPath, fmt.Errorf("pipeline: interrupted: %w", err), logger)
		}
		flog := logger.With("file", name)
		path := filepath.Join(cfg.DocsDir, name)

		info, err := os.Stat(path)
		if err != nil {
			flog.Error("pipeline: stat failed, skipping", "error", err)
			result.Skipped = append(result.Skipped, name)
			result.Errors = append(result.Errors, err)
			progress(name, i+1, len(files))
			continue
		}

		doc, err := cfg.Extract(path)
		if err != nil {
			flog.Error("pipeline: extraction failed, skipping", "error", err)
			result.Skipped = append(result.Skipped, name)
			result.Errors = append(result.Errors, err)
			progress(name, i+1, len(files))
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fail(cfg.CatalogPath, fmt.Errorf("pipeline: interrupted: %w", err), logger)
			}
		}

		summary, err := cfg.Summarizer.Summarize(ctx, doc.Text)
		if err != nil {
			if cfg.OnSummaryError == PolicyAbort || ctx.Err() != nil {
				return nil, fail(cfg.CatalogPath, fmt.Errorf("pipeline: summarize %s: %w", name, err), logger)
			}
			flog.Error("pipeline: summary failed, skipping", "error", err)
			result.SummaryFailures = append(result.SummaryFailures, name)
			result.Errors = append(result.Errors, err)
		} else {
			entry := newEntry(len(result.Entries)+1, name, info, doc, summary)
			result.Entries = append(result.Entries, entry)
			flog.Info("pipeline: processed", "id", entry.ID, "pages", entry.PageCount)
		}
		progress(name, i+1, len(files))

		if limiter == nil {
			if err := pause(ctx, cfg.Delay); err != nil {
				return nil, fail(cfg.CatalogPath, fmt.Errorf("pipeline: interrupted: %w", err), logger)
			}
		}
	}

	// ── Write ──────────────────────────────────────────────────────────
	if err := catalog.Save(cfg.CatalogPath, result.Entries); err != nil {
		return nil, err
	}
	logger.Info("pipeline: catalog written", "path", cfg.CatalogPath, "entries", len(result.Entries))

	if cfg.Publisher != nil {
		if err := cfg.Publisher.Publish(ctx, cfg.CatalogPath); err != nil {
			return result, fmt.Errorf("pipeline: publish: %w", err)
		}
		result.Published = true
	}
	return result, nil
}

// Discover lists the PDF files directly inside dir, matching the extension
// case-insensitively. Names come back in directory order (sorted).
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read documents dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) == ".pdf" {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// pause waits d after a file that reached the summarizer. It returns early
// with ctx's error when the run is canceled.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newEntry(id int, name string, info os.FileInfo, doc *extract.Document, summary string) catalog.Entry {
	return catalog.Entry{
		ID:           id,
		Title:        catalog.Title(name),
		Category:     catalog.DefaultCategory,
		Summary:      summary,
		URL:          catalog.DocumentURL(name),
		LastModified: info.ModTime(),
		Size:         info.Size(),
		Author:       doc.Author,
		CreationDate: doc.CreationDate,
		PageCount:    doc.PageCount,
		Producer:     doc.Producer,
		TextContent:  doc.Text,
	}
}

// fail writes an empty catalog and returns cause. A failure to write the
// fallback is logged; cause is still what the caller sees.
func fail(catalogPath string, cause error, logger *slog.Logger) error {
	if err := catalog.WriteEmpty(catalogPath); err != nil {
		logger.Error("pipeline: could not write empty catalog", "path", catalogPath, "error", err)
	}
	logger.Error("pipeline: run failed", "error", cause)
	return cause
}
