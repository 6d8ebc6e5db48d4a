package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	data, _ := json.Marshal(sampleEntries())
	if err := Validate(data); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := Validate([]byte("[]")); err != nil {
		t.Errorf("empty catalog should be valid: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "invalid JSON"},
		{"object not array", `{}`, "schema"},
		{"missing fields", `[{"id":1}]`, "schema"},
		{"bad url", `[{"id":1,"title":"t","category":"c","summary":"s","url":"http://x","lastModified":"2024-01-01T00:00:00Z","size":1,"author":"a","creationDate":null,"pageCount":1,"producer":"p","textContent":""}]`, "schema"},
		{"id gap", `[{"id":2,"title":"t","category":"c","summary":"s","url":"/documents/a.pdf","lastModified":"2024-01-01T00:00:00Z","size":1,"author":"a","creationDate":null,"pageCount":1,"producer":"p","textContent":""}]`, "want 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate([]byte(tc.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should contain %q", err, tc.want)
			}
		})
	}
}
