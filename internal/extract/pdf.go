// Package extract turns a PDF file into normalized text plus the handful of
// Info-dictionary fields the catalog records. It also leaves a plain-text
// sidecar next to every source document it reads.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Unknown is recorded for author and producer when the Info dictionary lacks them.
const Unknown = "Unknown"

// Document is the result of a successful extraction.
type Document struct {
	Text         string
	Author       string
	Producer     string
	CreationDate *string // nil when absent or unparseable
	PageCount    int
	SidecarPath  string
}

// ExtractionError reports why a single file could not be extracted.
type ExtractionError struct {
	Path string
	Op   string // "read", "parse", "sidecar"
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", filepath.Base(e.Path), e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract reads the PDF at path fully into memory, pulls its text and metadata,
// and writes the normalized text to the sidecar file. Every failure is
// returned as an *ExtractionError.
func Extract(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Op: "read", Err: err}
	}

	doc, err := parse(data)
	if err != nil {
		return nil, &ExtractionError{Path: path, Op: "parse", Err: err}
	}

	doc.SidecarPath = SidecarPath(path)
	if err := os.WriteFile(doc.SidecarPath, []byte(doc.Text), 0o644); err != nil {
		return nil, &ExtractionError{Path: path, Op: "sidecar", Err: err}
	}
	return doc, nil
}

// SidecarPath returns the .txt path that sits next to a source document.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
}

// parse runs the PDF reader over an in-memory copy of the file. The reader
// panics on some malformed inputs, so the panic is converted to an error.
func parse(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	doc = &Document{
		Text:      NormalizeText(sb.String()),
		Author:    Unknown,
		Producer:  Unknown,
		PageCount: numPages,
	}

	info := r.Trailer().Key("Info")
	if !info.IsNull() {
		if v := strings.TrimSpace(info.Key("Author").Text()); v != "" {
			doc.Author = v
		}
		if v := strings.TrimSpace(info.Key("Producer").Text()); v != "" {
			doc.Producer = v
		}
		if v := info.Key("CreationDate"); !v.IsNull() {
			doc.CreationDate = NormalizeDate(v.Text())
		}
	}

	if n, err := countPages(data); err == nil && n > 0 {
		doc.PageCount = n
	}
	return doc, nil
}

var disableConfigDir sync.Once

// countPages asks pdfcpu for the page count from the page tree. pdfcpu
// repairs broken xref tables the ledongthuc reader cannot, so its answer wins
// when it has one.
func countPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("pdfcpu panicked: %v", r)
		}
	}()

	disableConfigDir.Do(func() { model.ConfigPath = "disable" })

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
