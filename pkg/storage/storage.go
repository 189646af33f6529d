// Package storage publishes rendered posters. The renderer always writes to a
// local directory; a Publisher decides where the file is made available
// afterwards. Local keeps it where it is while GCS mirrors it into a Google
// Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Publisher makes a locally rendered poster available and returns its
// location.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// Local leaves posters on the local filesystem.
type Local struct{}

// Publish returns the absolute form of localPath after checking the file
// exists.
func (Local) Publish(_ context.Context, localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("publish %s: %w", localPath, err)
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return localPath, nil
	}
	return abs, nil
}

// GCS uploads posters to a Google Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCS creates a GCS publisher. When credentialsFile is empty application
// default credentials are used.
func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// Publish uploads the file and returns its gs:// URL.
func (g *GCS) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := ObjectName(g.prefix, localPath)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "image/png"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	log.WithFields(log.Fields{"bucket": g.bucket, "object": name}).Info("poster uploaded")
	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName joins prefix and the file's base name into an object key.
func ObjectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}
