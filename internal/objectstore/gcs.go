package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"google.golang.org/api/googleapi"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// GCS stores objects in a single Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string

	// PublicBaseURL defaults to https://storage.googleapis.com.
	PublicBaseURL string
}

func NewGCS(client *storage.Client, bucket string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("gcs client is nil")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket is empty")
	}

	return &GCS{
		client:        client,
		bucket:        bucket,
		PublicBaseURL: defaultPublicBaseURL,
	}, nil
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obj.Attrs[%s]: %w", path, err)
	}
	return true, nil
}

func (g *GCS) Download(ctx context.Context, path string) ([]byte, int64, error) {
	r, err := g.object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, 0, domain.NotFound("path", path+" does not exist")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("obj.NewReader[%s]: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("io.ReadAll[%s]: %w", path, err)
	}

	return data, r.Attrs.Generation, nil
}

func (g *GCS) Upload(ctx context.Context, path string, data []byte, contentType string, cond port.Precondition) (int64, error) {
	obj := g.object(path)
	if cond.Enabled {
		if cond.Generation == 0 {
			obj = obj.If(storage.Conditions{DoesNotExist: true})
		} else {
			obj = obj.If(storage.Conditions{GenerationMatch: cond.Generation})
		}
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-store"
	// cart documents are small, upload them in a single request
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("w.Write[%s]: %w", path, err)
	}

	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			log.Printf("[objectstore] precondition failed bucket=%q object=%q generation=%d", g.bucket, path, cond.Generation)
			return 0, &domain.Error{
				Kind: domain.KindConflict,
				Op:   "objectstore.Upload",
				Msg:  path + " was modified concurrently",
				Err:  err,
			}
		}
		return 0, fmt.Errorf("w.Close[%s]: %w", path, err)
	}

	return w.Attrs().Generation, nil
}

func (g *GCS) PublicURL(path string) string {
	base := strings.TrimRight(g.PublicBaseURL, "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	return base + "/" + g.bucket + "/" + escapePath(path)
}

func (g *GCS) object(path string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(strings.TrimLeft(path, "/"))
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusPreconditionFailed
	}
	return false
}

func escapePath(path string) string {
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
