// Package config resolves docportal settings from the environment, an
// optional .env file and an optional YAML overlay file.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the overlay file name looked up in the working directory.
const DefaultConfigFile = "docportal.yaml"

type Config struct {
	DocsDir          string
	CatalogPath      string
	LLMProvider      string
	APIKey           string
	LLMBaseURL       string
	SummaryModel     string
	ChatModel        string
	SummaryMaxTokens int
	Delay            time.Duration
	Pacing           string
	OnSummaryError   string
	MaxConcurrent    int
	Addr             string
	PublishURI       string
	GCPProject       string
	GCPRegion        string
}

// persistedConfig is the YAML shape of the overlay file.
type persistedConfig struct {
	DocsDir          string `yaml:"docs_dir,omitempty"`
	CatalogPath      string `yaml:"catalog_path,omitempty"`
	LLMProvider      string `yaml:"llm_provider,omitempty"`
	APIKey           string `yaml:"llm_api_key,omitempty"`
	LLMBaseURL       string `yaml:"llm_base_url,omitempty"`
	SummaryModel     string `yaml:"summary_model,omitempty"`
	ChatModel        string `yaml:"chat_model,omitempty"`
	SummaryMaxTokens int    `yaml:"summary_max_tokens,omitempty"`
	Delay            string `yaml:"delay,omitempty"`
	Pacing           string `yaml:"pacing,omitempty"`
	OnSummaryError   string `yaml:"on_summary_error,omitempty"`
	MaxConcurrent    int    `yaml:"max_concurrent,omitempty"`
	Addr             string `yaml:"addr,omitempty"`
	PublishURI       string `yaml:"publish_uri,omitempty"`
	GCPProject       string `yaml:"gcp_project,omitempty"`
	GCPRegion        string `yaml:"gcp_region,omitempty"`
}

// ConfigPath is the YAML overlay file. Empty disables the overlay.
var ConfigPath = DefaultConfigFile

// Error reports an invalid or missing setting.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Msg)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are given) into the process environment. Missing files are ignored and
// variables that are already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from the environment, then applies the overlay at
// ConfigPath (only non-empty values override). A missing overlay is fine; a
// malformed one is an error.
func Load() (Config, error) {
	cfg := Config{
		DocsDir:          envOr("DOCPORTAL_DOCS_DIR", "public/documents"),
		CatalogPath:      envOr("DOCPORTAL_CATALOG", "src/data/documents.json"),
		LLMProvider:      envOr("LLM_PROVIDER", "anthropic"),
		APIKey:           envOr("LLM_API_KEY", os.Getenv("ANTHROPIC_API_KEY")),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		SummaryModel:     os.Getenv("DOCPORTAL_SUMMARY_MODEL"),
		ChatModel:        os.Getenv("DOCPORTAL_CHAT_MODEL"),
		SummaryMaxTokens: envOrInt("DOCPORTAL_SUMMARY_MAX_TOKENS", 1000),
		Delay:            envOrDuration("DOCPORTAL_DELAY", time.Second),
		Pacing:           envOr("DOCPORTAL_PACING", "fixed"),
		OnSummaryError:   envOr("DOCPORTAL_ON_SUMMARY_ERROR", "abort"),
		MaxConcurrent:    envOrInt("DOCPORTAL_MAX_CONCURRENT", 10),
		Addr:             envOr("DOCPORTAL_ADDR", ":8950"),
		PublishURI:       os.Getenv("DOCPORTAL_PUBLISH_URI"),
		GCPProject:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPRegion:        envOr("GOOGLE_CLOUD_REGION", "us-central1"),
	}

	if ConfigPath == "" {
		return cfg, nil
	}
	saved, err := loadPersistedConfig(ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := mergeConfig(&cfg, saved); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to ConfigPath as YAML. The file may hold an API key, so it
// is only readable by the owner.
func Save(cfg Config) error {
	if ConfigPath == "" {
		return nil
	}
	data, err := yaml.Marshal(toPersisted(cfg))
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(ConfigPath, data, 0o600)
}

// Validate checks that cfg is usable. The first problem found is returned
// as an *Error.
func Validate(cfg Config) error {
	switch cfg.LLMProvider {
	case "anthropic", "openai", "openrouter":
		if cfg.APIKey == "" {
			return &Error{Key: "llm_api_key", Msg: "not set (export ANTHROPIC_API_KEY or LLM_API_KEY)"}
		}
	case "ollama":
	case "vertex":
		if cfg.GCPProject == "" {
			return &Error{Key: "gcp_project", Msg: "required for the vertex provider (export GOOGLE_CLOUD_PROJECT)"}
		}
	default:
		return &Error{Key: "llm_provider", Msg: fmt.Sprintf("unknown provider %q", cfg.LLMProvider)}
	}

	switch strings.ToLower(cfg.OnSummaryError) {
	case "", "skip", "abort":
	default:
		return &Error{Key: "on_summary_error", Msg: fmt.Sprintf("%q is not skip or abort", cfg.OnSummaryError)}
	}
	switch strings.ToLower(cfg.Pacing) {
	case "", "fixed", "bucket":
	default:
		return &Error{Key: "pacing", Msg: fmt.Sprintf("%q is not fixed or bucket", cfg.Pacing)}
	}
	if cfg.Delay < 0 {
		return &Error{Key: "delay", Msg: "must not be negative"}
	}
	if cfg.SummaryMaxTokens <= 0 {
		return &Error{Key: "summary_max_tokens", Msg: "must be positive"}
	}
	if cfg.DocsDir == "" {
		return &Error{Key: "docs_dir", Msg: "must not be empty"}
	}
	if cfg.CatalogPath == "" {
		return &Error{Key: "catalog_path", Msg: "must not be empty"}
	}
	if cfg.PublishURI != "" && !strings.HasPrefix(cfg.PublishURI, "gs://") {
		return &Error{Key: "publish_uri", Msg: "must be a gs:// URI"}
	}
	return nil
}

// Keys lists the setting names accepted by Get and Set.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a setting by its YAML key.
func Get(cfg Config, key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", &Error{Key: key, Msg: "unknown setting"}
	}
	return f.get(&cfg), nil
}

// Set parses value and assigns it to the setting named key.
func Set(cfg *Config, key, value string) error {
	f, ok := fields[key]
	if !ok {
		return &Error{Key: key, Msg: "unknown setting"}
	}
	if err := f.set(cfg, value); err != nil {
		return &Error{Key: key, Msg: err.Error()}
	}
	return nil
}

// IsSecret reports whether a setting should be masked when printed.
func IsSecret(key string) bool {
	return key == "llm_api_key"
}

func IsOAuthToken(key string) bool {
	return len(key) > 0 && strings.HasPrefix(key, "sk-ant-oat01-")
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func intField(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%q is not an integer", v)
			}
			*p(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"docs_dir":           stringField(func(c *Config) *string { return &c.DocsDir }),
	"catalog_path":       stringField(func(c *Config) *string { return &c.CatalogPath }),
	"llm_provider":       stringField(func(c *Config) *string { return &c.LLMProvider }),
	"llm_api_key":        stringField(func(c *Config) *string { return &c.APIKey }),
	"llm_base_url":       stringField(func(c *Config) *string { return &c.LLMBaseURL }),
	"summary_model":      stringField(func(c *Config) *string { return &c.SummaryModel }),
	"chat_model":         stringField(func(c *Config) *string { return &c.ChatModel }),
	"summary_max_tokens": intField(func(c *Config) *int { return &c.SummaryMaxTokens }),
	"on_summary_error":   stringField(func(c *Config) *string { return &c.OnSummaryError }),
	"pacing":             stringField(func(c *Config) *string { return &c.Pacing }),
	"max_concurrent":     intField(func(c *Config) *int { return &c.MaxConcurrent }),
	"addr":               stringField(func(c *Config) *string { return &c.Addr }),
	"publish_uri":        stringField(func(c *Config) *string { return &c.PublishURI }),
	"gcp_project":        stringField(func(c *Config) *string { return &c.GCPProject }),
	"gcp_region":         stringField(func(c *Config) *string { return &c.GCPRegion }),
	"delay": {
		get: func(c *Config) string { return c.Delay.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%q is not a duration", v)
			}
			c.Delay = d
			return nil
		},
	},
}

func toPersisted(cfg Config) persistedConfig {
	return persistedConfig{
		DocsDir:          cfg.DocsDir,
		CatalogPath:      cfg.CatalogPath,
		LLMProvider:      cfg.LLMProvider,
		APIKey:           cfg.APIKey,
		LLMBaseURL:       cfg.LLMBaseURL,
		SummaryModel:     cfg.SummaryModel,
		ChatModel:        cfg.ChatModel,
		SummaryMaxTokens: cfg.SummaryMaxTokens,
		Delay:            cfg.Delay.String(),
		Pacing:           cfg.Pacing,
		OnSummaryError:   cfg.OnSummaryError,
		MaxConcurrent:    cfg.MaxConcurrent,
		Addr:             cfg.Addr,
		PublishURI:       cfg.PublishURI,
		GCPProject:       cfg.GCPProject,
		GCPRegion:        cfg.GCPRegion,
	}
}

func loadPersistedConfig(path string) (persistedConfig, error) {
	var p persistedConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return p, nil
}

func mergeConfig(cfg *Config, p persistedConfig) error {
	overlay := map[string]string{
		"docs_dir":         p.DocsDir,
		"catalog_path":     p.CatalogPath,
		"llm_provider":     p.LLMProvider,
		"llm_api_key":      p.APIKey,
		"llm_base_url":     p.LLMBaseURL,
		"summary_model":    p.SummaryModel,
		"chat_model":       p.ChatModel,
		"delay":            p.Delay,
		"on_summary_error": p.OnSummaryError,
		"pacing":           p.Pacing,
		"addr":             p.Addr,
		"publish_uri":      p.PublishURI,
		"gcp_project":      p.GCPProject,
		"gcp_region":       p.GCPRegion,
	}
	if p.SummaryMaxTokens != 0 {
		overlay["summary_max_tokens"] = strconv.Itoa(p.SummaryMaxTokens)
	}
	if p.MaxConcurrent != 0 {
		overlay["max_concurrent"] = strconv.Itoa(p.MaxConcurrent)
	}
	for _, key := range Keys() {
		if v := overlay[key]; v != "" {
			if err := Set(cfg, key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
