package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// firebaseImageStore implements ImageStore over a Cloud Storage bucket
// obtained through the Firebase Storage client.
type firebaseImageStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	logger     *zap.Logger
}

// NewFirebaseImageStore creates an ImageStore backed by the given bucket.
func NewFirebaseImageStore(bucket *gcs.BucketHandle, bucketName string, logger *zap.Logger) ImageStore {
	if bucket == nil || bucketName == "" {
		panic("firebaseImageStore: bucket handle and bucket name are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &firebaseImageStore{bucket: bucket, bucketName: bucketName, logger: logger}
}

// Upload writes the image bytes and returns the Firebase download URL.
func (s *firebaseImageStore) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	if objectPath == "" {
		return "", errors.New("objectPath cannot be empty for Upload operation")
	}
	if len(data) == 0 {
		return "", errors.New("image data is empty")
	}

	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := bytes.NewReader(data).WriteTo(w); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload object '%s': %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload of '%s': %w", objectPath, err)
	}

	return downloadURL(s.bucketName, objectPath), nil
}

// Delete removes the object referenced by a download URL.
func (s *firebaseImageStore) Delete(ctx context.Context, imageURL string) error {
	objectPath, err := objectPathFromURL(imageURL)
	if err != nil {
		return err
	}
	if err := s.bucket.Object(objectPath).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object '%s': %w", objectPath, err)
	}
	return nil
}

// downloadURL builds the public Firebase Storage download URL for an object.
func downloadURL(bucketName, objectPath string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		bucketName, url.PathEscape(objectPath))
}

// objectPathFromURL recovers the object path from a download URL produced by
// downloadURL.
func objectPathFromURL(imageURL string) (string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image URL '%s': %w", imageURL, err)
	}
	const marker = "/o/"
	idx := strings.Index(parsed.EscapedPath(), marker)
	if idx < 0 {
		return "", fmt.Errorf("image URL '%s' does not reference a storage object", imageURL)
	}
	escaped := parsed.EscapedPath()[idx+len(marker):]
	objectPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("failed to decode object path from '%s': %w", imageURL, err)
	}
	if objectPath == "" {
		return "", fmt.Errorf("image URL '%s' has an empty object path", imageURL)
	}
	return objectPath, nil
}
