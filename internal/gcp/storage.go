package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
)

// downloadTokenKey is the object metadata key Firebase Storage reads its
// download tokens from.
const downloadTokenKey = "firebaseStorageDownloadTokens"

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ImageStore keeps ficha images in a single Cloud Storage bucket and hands
// out Firebase download URLs for them.
type ImageStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewImageStore(client *storage.Client, bucketName string) *ImageStore {
	return &ImageStore{bucket: client.Bucket(bucketName), bucketName: bucketName}
}

// Upload writes data to objectName only if it doesn't already exist.
func (s *ImageStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	writer := s.bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{downloadTokenKey: uuid.NewString()}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return apperrors.Transient("upload", err, fmt.Sprintf("failed to write gs://%s/%s", s.bucketName, objectName))
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return apperrors.Conflict("upload", "object %s already exists", objectName)
		}
		return apperrors.Transient("upload", err, fmt.Sprintf("failed to finalize gs://%s/%s", s.bucketName, objectName))
	}
	return nil
}

// URL returns the token-bearing download URL of an uploaded object.
func (s *ImageStore) URL(ctx context.Context, objectName string) (string, error) {
	attrs, err := s.bucket.Object(objectName).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", apperrors.NotFound("imageURL", "object %s not found", objectName)
	}
	if err != nil {
		return "", apperrors.Transient("imageURL", err, "failed to read object attributes")
	}

	token := attrs.Metadata[downloadTokenKey]
	if i := strings.IndexByte(token, ','); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return "", apperrors.Transient("imageURL", nil, fmt.Sprintf("object %s has no download token", objectName))
	}
	return DownloadURL(s.bucketName, objectName, token), nil
}

// Delete removes an object. A missing object counts as deleted.
func (s *ImageStore) Delete(ctx context.Context, objectName string) error {
	err := s.bucket.Object(objectName).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return nil
	}
	slog.Warn("Failed to delete image object.", "bucket", s.bucketName, "object", objectName, "error", err)
	return apperrors.Transient("deleteImage", err, "failed to delete object")
}

func (s *ImageStore) PathFromURL(rawURL string) (string, error) {
	return ObjectPathFromURL(rawURL)
}

// DownloadURL builds the Firebase Storage download URL for an object.
func DownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectName), url.QueryEscape(token))
}

// ObjectPathFromURL extracts the object name from any of the URL forms an
// image reference may take: a Firebase download URL, gs://bucket/path, or
// https://storage.googleapis.com/bucket/path.
func ObjectPathFromURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("empty image url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}

	var name string
	switch {
	case u.Scheme == "gs":
		name = strings.TrimPrefix(u.Path, "/")
	case u.Host == "firebasestorage.googleapis.com":
		// The object name is a single escaped segment after /o/.
		escaped := u.EscapedPath()
		i := strings.Index(escaped, "/o/")
		if i < 0 {
			return "", fmt.Errorf("no object segment in %q", rawURL)
		}
		if name, err = url.PathUnescape(escaped[i+3:]); err != nil {
			return "", fmt.Errorf("unescape object name: %w", err)
		}
	case u.Host == "storage.googleapis.com":
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) == 2 {
			name = parts[1]
		}
	default:
		return "", fmt.Errorf("unrecognized storage url %q", rawURL)
	}

	if name == "" {
		return "", fmt.Errorf("no object name in %q", rawURL)
	}
	return name, nil
}
