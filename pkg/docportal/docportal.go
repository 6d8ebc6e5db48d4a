// Package docportal provides a thin Go SDK for building the document catalog
// and chatting about catalog documents. It wraps the internal packages with a
// stable API and is also what the docportal CLI is wired through.
package docportal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/chat"
	"github.com/divyekant/docportal/internal/config"
	"github.com/divyekant/docportal/internal/llm"
	"github.com/divyekant/docportal/internal/pipeline"
	"github.com/divyekant/docportal/internal/summarize"
)

// relayTimeout bounds a single chat round trip.
const relayTimeout = 2 * time.Minute

// NewProvider builds the LLM provider selected by cfg. model overrides the
// provider's default when set; timeout of zero means none.
func NewProvider(ctx context.Context, cfg config.Config, model string, timeout time.Duration) (llm.Provider, error) {
	return llm.NewProvider(ctx, cfg.LLMProvider, llm.ProviderOptions{
		Options: llm.Options{
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.LLMBaseURL,
			Model:         model,
			MaxConcurrent: cfg.MaxConcurrent,
			IsOAuth:       config.IsOAuthToken(cfg.APIKey),
			Timeout:       timeout,
		},
		GCPProject: cfg.GCPProject,
		GCPRegion:  cfg.GCPRegion,
	})
}

// Ingest runs one catalog build with everything taken from cfg. progress
// may be nil.
func Ingest(ctx context.Context, cfg config.Config, logger *slog.Logger, progress func(file string, done, total int)) (*pipeline.Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	policy, err := pipeline.ParsePolicy(cfg.OnSummaryError)
	if err != nil {
		return nil, err
	}
	pacing, err := pipeline.ParsePacing(cfg.Pacing)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(ctx, cfg, cfg.SummaryModel, 0)
	if err != nil {
		return nil, err
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	pcfg := pipeline.Config{
		DocsDir:        cfg.DocsDir,
		CatalogPath:    cfg.CatalogPath,
		Summarizer:     summarize.New(provider, cfg.SummaryModel, cfg.SummaryMaxTokens),
		Delay:          cfg.Delay,
		Pacing:         pacing,
		OnSummaryError: policy,
		ProgressFn:     progress,
		Logger:         logger,
	}
	if cfg.PublishURI != "" {
		pub, err := catalog.NewPublisher(ctx, cfg.PublishURI)
		if err != nil {
			return nil, err
		}
		defer pub.Close()
		pcfg.Publisher = pub
	}
	return pipeline.Run(ctx, pcfg)
}

// NewRelay builds a chat relay from cfg. lookup may be nil.
func NewRelay(ctx context.Context, cfg config.Config, lookup chat.Lookup, logger *slog.Logger) (*chat.Relay, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	provider, err := NewProvider(ctx, cfg, cfg.ChatModel, relayTimeout)
	if err != nil {
		return nil, err
	}
	opts := []chat.Option{}
	if lookup != nil {
		opts = append(opts, chat.WithLookup(lookup))
	}
	if logger != nil {
		opts = append(opts, chat.WithLogger(logger))
	}
	return chat.New(provider, cfg.ChatModel, opts...), nil
}

// ProcessOptions overrides configuration for a single Process call. Zero
// values keep what the environment and config file say.
type ProcessOptions struct {
	DocsDir        string
	CatalogPath    string
	OnSummaryError string // "abort" (default) or "skip"
	Progress       func(file string, done, total int)
}

// ProcessResult summarizes a Process call.
type ProcessResult struct {
	Candidates      int
	Entries         int
	Skipped         []string
	SummaryFailures []string
	Published       bool
}

// Process builds the catalog using the environment, .env and docportal.yaml
// for settings.
func Process(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.DocsDir != "" {
		cfg.DocsDir = opts.DocsDir
	}
	if opts.CatalogPath != "" {
		cfg.CatalogPath = opts.CatalogPath
	}
	if opts.OnSummaryError != "" {
		cfg.OnSummaryError = opts.OnSummaryError
	}

	result, err := Ingest(ctx, cfg, nil, opts.Progress)
	if result == nil {
		return nil, err
	}
	return &ProcessResult{
		Candidates:      result.Candidates,
		Entries:         len(result.Entries),
		Skipped:         result.Skipped,
		SummaryFailures: result.SummaryFailures,
		Published:       result.Published,
	}, err
}

// Turn is one prior chat message.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Chat sends message about the catalog document with the given id and
// returns the assistant's reply.
func Chat(ctx context.Context, documentID int, message string, history []Turn) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	lookup := func(id int) (catalog.Entry, bool) {
		entries, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return catalog.Entry{}, false
		}
		return catalog.Find(entries, id)
	}
	relay, err := NewRelay(ctx, cfg, lookup, nil)
	if err != nil {
		return "", err
	}

	turns := make([]chat.Turn, len(history))
	for i, h := range history {
		turns[i] = chat.Turn{Role: strings.ToLower(h.Role), Content: h.Content}
	}
	return relay.Send(ctx, chat.Request{DocumentID: documentID, Message: message, History: turns})
}

func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("docportal: %w", err)
	}
	return cfg, nil
}
