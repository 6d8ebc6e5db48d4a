package catalog

import "testing"

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://portal-assets/data/documents.json")
	if err != nil {
		t.Fatalf("ParseGCSURI: %v", err)
	}
	if bucket != "portal-assets" || object != "data/documents.json" {
		t.Errorf("got bucket=%q object=%q", bucket, object)
	}
}

func TestParseGCSURI_Invalid(t *testing.T) {
	for _, uri := range []string{
		"",
		"s3://bucket/key",
		"gs://",
		"gs://bucket",
		"gs://bucket/",
		"gs://bucket/dir/",
		"gs:///object",
	} {
		if _, _, err := ParseGCSURI(uri); err == nil {
			t.Errorf("ParseGCSURI(%q) should fail", uri)
		}
	}
}
