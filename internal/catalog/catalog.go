// Package catalog defines the document catalog the portal serves and the
// on-disk JSON file it lives in.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCategory is assigned to every entry; there is no classifier.
const DefaultCategory = "Uncategorized"

// URLPrefix is the path the server mounts the documents directory under.
const URLPrefix = "/documents/"

// Entry is one processed document.
type Entry struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Summary      string    `json:"summary"`
	URL          string    `json:"url"`
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
	Author       string    `json:"author"`
	CreationDate *string   `json:"creationDate"`
	PageCount    int       `json:"pageCount"`
	Producer     string    `json:"producer"`
	TextContent  string    `json:"textContent"`
}

// Title derives a display title from a file name: the extension is dropped
// and underscores become spaces.
func Title(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return strings.ReplaceAll(base, "_", " ")
}

// DocumentURL is the relative URL a file name is served under.
func DocumentURL(fileName string) string {
	return URLPrefix + fileName
}

// Find returns the entry with the given id.
func Find(entries []Entry, id int) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Load reads and validates a catalog file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Save writes entries as a pretty-printed JSON array, creating the parent
// directory when needed. A nil slice is written as []. The file is replaced
// atomically so readers never see a partial catalog.
func Save(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".documents-*.json")
	if err != nil {
		return fmt.Errorf("catalog: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("catalog: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("catalog: replace: %w", err)
	}
	return nil
}

// WriteEmpty replaces the catalog with an empty list.
func WriteEmpty(path string) error {
	return Save(path, nil)
}

// Bootstrap makes sure the catalog's directory exists and that a catalog
// file is present, writing an empty one if it is missing. An existing
// catalog is left untouched.
func Bootstrap(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("catalog: stat: %w", err)
	}
	return WriteEmpty(path)
}
