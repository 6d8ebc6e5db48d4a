package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/divyekant/docportal/internal/catalog"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// isolateEnv clears settings that would leak in from the developer's shell.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"LLM_API_KEY", "ANTHROPIC_API_KEY", "LLM_PROVIDER", "LLM_BASE_URL",
		"DOCPORTAL_DOCS_DIR", "DOCPORTAL_CATALOG", "DOCPORTAL_PUBLISH_URI", "DOCPORTAL_DELAY",
		"DOCPORTAL_ON_SUMMARY_ERROR"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "docportal.yaml")
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "documents.json")
	entries := []catalog.Entry{{
		ID: 1, Title: "Field Guide", Category: catalog.DefaultCategory, Summary: "How to do fieldwork.",
		URL: "/documents/Field_Guide.pdf", Size: 2048, Author: "Unknown", Producer: "Unknown", PageCount: 4,
	}}
	if err := catalog.Save(path, entries); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_HelpExitsClean(t *testing.T) {
	if _, err := run(t, "--help"); err != nil {
		t.Fatalf("--help should not error: %v", err)
	}
}

func TestCLI_CatalogValidate(t *testing.T) {
	cfgPath := isolateEnv(t)
	path := writeCatalog(t)

	out, err := run(t, "--config", cfgPath, "--json", "catalog", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var resp map[string]any
	json.Unmarshal([]byte(out), &resp)
	if resp["valid"] != true {
		t.Errorf("response = %v", resp)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte(`[{"id":3}]`), 0o644)
	if _, err := run(t, "--config", cfgPath, "catalog", "validate", bad); err == nil {
		t.Error("invalid catalog should fail validation")
	}
}

func TestCLI_CatalogList(t *testing.T) {
	cfgPath := isolateEnv(t)
	path := writeCatalog(t)

	out, err := run(t, "--config", cfgPath, "catalog", "list", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Field Guide") || !strings.Contains(out, "2.0 KB") {
		t.Errorf("output = %q", out)
	}

	t.Setenv("DOCPORTAL_CATALOG", path)
	out, err = run(t, "--config", cfgPath, "--json", "catalog", "list")
	if err != nil {
		t.Fatalf("list from config: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil || len(entries) != 1 {
		t.Errorf("json output = %q (%v)", out, err)
	}
}

func TestCLI_ConfigSetGet(t *testing.T) {
	cfgPath := isolateEnv(t)

	if _, err := run(t, "--config", cfgPath, "config", "set", "delay", "3s"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := run(t, "--config", cfgPath, "config", "set", "llm_api_key", "sk-ant-REDACTED"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	out, err := run(t, "--config", cfgPath, "--json", "config", "get")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var values map[string]string
	json.Unmarshal([]byte(out), &values)
	if values["delay"] != "3s" {
		t.Errorf("delay = %q", values["delay"])
	}
	if values["llm_api_key"] != "sk-ant-a****mnop" {
		t.Errorf("api key should be redacted, got %q", values["llm_api_key"])
	}

	if _, err := run(t, "--config", cfgPath, "config", "set", "delay", "soon"); err == nil {
		t.Error("invalid duration should fail")
	}
	if _, err := run(t, "--config", cfgPath, "config", "get", "nope"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestCLI_ProcessRequiresAPIKey(t *testing.T) {
	cfgPath := isolateEnv(t)
	root := t.TempDir()
	catalogPath := filepath.Join(root, "documents.json")

	_, err := run(t, "--config", cfgPath, "-q", "process",
		"--docs-dir", filepath.Join(root, "documents"), "--catalog", catalogPath)
	if err == nil {
		t.Fatal("process without an API key should fail")
	}
	if _, statErr := os.Stat(catalogPath); statErr == nil {
		t.Error("catalog should not be written when startup fails")
	}
}

func TestCLI_ProcessSkipsCorruptFile(t *testing.T) {
	cfgPath := isolateEnv(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"A summary."}]}`))
	}))
	defer api.Close()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("LLM_BASE_URL", api.URL)

	root := t.TempDir()
	docsDir := filepath.Join(root, "documents")
	os.MkdirAll(docsDir, 0o755)
	os.WriteFile(filepath.Join(docsDir, "broken.pdf"), []byte("not a pdf"), 0o644)
	catalogPath := filepath.Join(root, "data", "documents.json")

	out, err := run(t, "--config", cfgPath, "--json", "process",
		"--docs-dir", docsDir, "--catalog", catalogPath, "--delay", "0s")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	var summary map[string]any
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("output not JSON: %q", out)
	}
	if summary["candidates"] != float64(1) || summary["entries"] != float64(0) {
		t.Errorf("summary = %v", summary)
	}
	data, _ := os.ReadFile(catalogPath)
	if string(data) != "[]" {
		t.Errorf("catalog = %q, want []", data)
	}
}

// onePagePDF returns a minimal well-formed PDF whose only page shows text.
func onePagePDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 5 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestCLI_ProcessSummaryFailureFailsRun(t *testing.T) {
	cfgPath := isolateEnv(t)
	var calls int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer api.Close()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("LLM_BASE_URL", api.URL)

	root := t.TempDir()
	docsDir := filepath.Join(root, "documents")
	os.MkdirAll(docsDir, 0o755)
	os.WriteFile(filepath.Join(docsDir, "Field_Guide.pdf"), onePagePDF("Fieldwork basics"), 0o644)
	catalogPath := filepath.Join(root, "data", "documents.json")
	if err := catalog.Save(catalogPath, []catalog.Entry{{ID: 1, Title: "stale", URL: "/documents/stale.pdf"}}); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "--config", cfgPath, "-q", "process", "--docs-dir", docsDir, "--catalog", catalogPath)
	if err == nil {
		t.Fatal("process should exit non-zero when a summary fails")
	}
	if calls != 1 {
		t.Errorf("summary endpoint called %d times, want 1", calls)
	}
	data, _ := os.ReadFile(catalogPath)
	if string(data) != "[]" {
		t.Errorf("catalog = %q, want []", data)
	}
}

func TestCLI_ChatBadID(t *testing.T) {
	cfgPath := isolateEnv(t)
	if _, err := run(t, "--config", cfgPath, "chat", "zero", "hello"); err == nil {
		t.Error("non-numeric id should fail")
	}
}

func TestCLI_ChatUnknownDocument(t *testing.T) {
	cfgPath := isolateEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("DOCPORTAL_CATALOG", writeCatalog(t))

	if _, err := run(t, "--config", cfgPath, "chat", "7", "hello"); err == nil {
		t.Error("unknown document should fail")
	}
}

func TestHelpers(t *testing.T) {
	if got := truncateText("line one\nline two", 8); got != "line one..." {
		t.Errorf("truncateText = %q", got)
	}
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("formatBytes(512) = %q", got)
	}
	if got := formatBytes(3 * 1024 * 1024); got != "3.0 MB" {
		t.Errorf("formatBytes(3MiB) = %q", got)
	}
	if got := redactKey("short"); got != "****" {
		t.Errorf("redactKey(short) = %q", got)
	}
}
