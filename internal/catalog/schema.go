package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed catalog.schema.json
var schemaJSON string

const schemaURL = "https://docportal.local/catalog.schema.json"

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
)

func loadSchema() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		loadErr = err
		return
	}
	schema, loadErr = c.Compile(schemaURL)
}

// Validate checks raw catalog JSON against the catalog schema and verifies
// that ids run 1..n in order.
func Validate(data []byte) error {
	once.Do(loadSchema)
	if loadErr != nil {
		return fmt.Errorf("catalog: load schema: %w", loadErr)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("catalog: invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("catalog: schema: %w", err)
	}

	items, _ := v.([]any)
	for i, item := range items {
		obj, _ := item.(map[string]any)
		id, _ := obj["id"].(float64)
		if int(id) != i+1 {
			return fmt.Errorf("catalog: entry %d has id %v, want %d", i, obj["id"], i+1)
		}
	}
	return nil
}
