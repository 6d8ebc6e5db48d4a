package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildPDF writes a minimal single-font PDF with one page per entry in pages.
// info is the raw body of the Info dictionary, or "" for none. Object offsets
// in the xref table are computed from the generated bytes.
func buildPDF(pages []string, info string) []byte {
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")

	fontID := 3
	firstPage := 4
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			firstPage+2*i+1, fontID))
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	infoID := 0
	if info != "" {
		objs = append(objs, "<< "+info+" >>")
		infoID = len(objs)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := fmt.Sprintf("/Size %d /Root 1 0 R", len(objs)+1)
	if infoID != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoID)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestExtract_TextAndMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Quarterly_Report.pdf", buildPDF(
		[]string{"Hello World"},
		"/Author (Jane Doe) /Producer (docportal tests) /CreationDate (D:20240315123456-07'00')",
	))

	doc, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !strings.Contains(doc.Text, "Hello World") {
		t.Errorf("Text = %q, want it to contain %q", doc.Text, "Hello World")
	}
	if doc.Author != "Jane Doe" {
		t.Errorf("Author = %q, want %q", doc.Author, "Jane Doe")
	}
	if doc.Producer != "docportal tests" {
		t.Errorf("Producer = %q, want %q", doc.Producer, "docportal tests")
	}
	if doc.CreationDate == nil || *doc.CreationDate != "2024-03-15T12:34:56.000Z" {
		t.Errorf("CreationDate = %v, want 2024-03-15T12:34:56.000Z", doc.CreationDate)
	}
	if doc.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", doc.PageCount)
	}
}

func TestExtract_DefaultsWithoutInfo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.pdf", buildPDF([]string{"one", "two"}, ""))

	doc, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Author != Unknown || doc.Producer != Unknown {
		t.Errorf("Author/Producer = %q/%q, want %q", doc.Author, doc.Producer, Unknown)
	}
	if doc.CreationDate != nil {
		t.Errorf("CreationDate = %q, want nil", *doc.CreationDate)
	}
	if doc.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", doc.PageCount)
	}
}

func TestExtract_WritesSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Manual.PDF", buildPDF([]string{"Sidecar   text"}, ""))

	doc, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := filepath.Join(dir, "Manual.txt")
	if doc.SidecarPath != want {
		t.Errorf("SidecarPath = %q, want %q", doc.SidecarPath, want)
	}
	got, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(got) != doc.Text {
		t.Errorf("sidecar = %q, want %q", got, doc.Text)
	}

	// The source must be untouched.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file missing after extraction: %v", err)
	}
}

func TestExtract_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", []byte("this is not a pdf at all"))

	_, err := Extract(path)
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("error %T is not *ExtractionError", err)
	}
	if xerr.Op != "parse" {
		t.Errorf("Op = %q, want %q", xerr.Op, "parse")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("error %q should name the file", err.Error())
	}
	if _, statErr := os.Stat(filepath.Join(dir, "broken.txt")); !os.IsNotExist(statErr) {
		t.Error("no sidecar should be written for a file that failed to parse")
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.pdf"))

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
	if xerr.Op != "read" {
		t.Errorf("Op = %q, want %q", xerr.Op, "read")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("error should unwrap to os.ErrNotExist")
	}
}

func TestSidecarPath(t *testing.T) {
	cases := map[string]string{
		"/docs/a.pdf":         "/docs/a.txt",
		"/docs/B.PDF":         "/docs/B.txt",
		"/docs/my.report.pdf": "/docs/my.report.txt",
		"relative/notes.Pdf":  "relative/notes.txt",
	}
	for in, want := range cases {
		if got := SidecarPath(in); got != want {
			t.Errorf("SidecarPath(%q) = %q, want %q", in, got, want)
		}
	}
}
