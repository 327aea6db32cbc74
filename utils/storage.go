package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ImageStore wraps the GCS client and bucket. It is constructed once at
// startup and injected into the handlers that accept uploads.
type ImageStore struct {
	client *storage.Client
	bucket string
}

func NewImageStore(ctx context.Context) (*ImageStore, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is not set")
	}

	var opts []option.ClientOption
	if credentialsPath := os.Getenv("CREDENTIALS_FILE_LOCATION"); credentialsPath != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &ImageStore{client: client, bucket: bucket}, nil
}

func (s *ImageStore) Close() error {
	return s.client.Close()
}

// UploadImage stores one image under prefix/slug and returns its public URL.
func (s *ImageStore) UploadImage(ctx context.Context, prefix, slug string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}
	objectName := fmt.Sprintf("%s/%s/%d-%s%s", prefix, slug, time.Now().UTC().Unix(), uuid.New().String(), ext)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(ext)
	}
	if ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

// UploadImages stores between 1 and 4 images and returns their public URLs.
func (s *ImageStore) UploadImages(ctx context.Context, prefix, slug string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) < 1 || len(files) > 4 {
		return nil, fmt.Errorf("images must be 1 to 4")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		u, err := s.UploadImage(ctx, prefix, slug, fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// DeleteObjects removes objects best-effort, returning the first error.
func (s *ImageStore) DeleteObjects(ctx context.Context, objectNames []string) error {
	var firstErr error
	for _, obj := range objectNames {
		if obj == "" {
			continue
		}
		err := s.client.Bucket(s.bucket).Object(obj).Delete(ctx)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}

// ObjectName extracts the object name from one of the two public URL styles.
func (s *ImageStore) ObjectName(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimPrefix(u.Path, "/")

	// style 1: storage.googleapis.com/<bucket>/<object>
	if host == "storage.googleapis.com" {
		prefix := s.bucket + "/"
		if !strings.HasPrefix(path, prefix) {
			return "", fmt.Errorf("url bucket mismatch")
		}
		return strings.TrimPrefix(path, prefix), nil
	}

	// style 2: <bucket>.storage.googleapis.com/<object>
	if host == strings.ToLower(s.bucket)+".storage.googleapis.com" {
		if path == "" {
			return "", fmt.Errorf("missing object path")
		}
		return path, nil
	}

	return "", fmt.Errorf("not a gcs public url")
}
