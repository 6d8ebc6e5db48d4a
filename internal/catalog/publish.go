package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Publisher copies a finished catalog file to a Google Cloud Storage object so
// a statically hosted front end can read it.
type Publisher struct {
	client *storage.Client
	bucket string
	object string
}

// ParseGCSURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("catalog: %q is not a gs:// URI", uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("catalog: %q must name a bucket and an object", uri)
	}
	return bucket, object, nil
}

// NewPublisher creates a Publisher for a gs:// target.
func NewPublisher(ctx context.Context, target string, opts ...option.ClientOption) (*Publisher, error) {
	bucket, object, err := ParseGCSURI(target)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("catalog: create storage client: %w", err)
	}
	return &Publisher{client: client, bucket: bucket, object: object}, nil
}

// Target returns the gs:// URI the publisher writes to.
func (p *Publisher) Target() string {
	return "gs://" + p.bucket + "/" + p.object
}

// Close releases the storage client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Publish uploads the catalog file at path, overwriting the remote object.
func (p *Publisher) Publish(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog: open for publish: %w", err)
	}
	defer f.Close()

	w := p.client.Bucket(p.bucket).Object(p.object).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("catalog: upload %s: %w", p.Target(), err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 403 {
			return fmt.Errorf("catalog: no write permission on %s: %w", p.Target(), err)
		}
		return fmt.Errorf("catalog: finalize upload %s: %w", p.Target(), err)
	}

	slog.Info("catalog: published", "target", p.Target())
	return nil
}
