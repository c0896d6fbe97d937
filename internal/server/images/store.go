// Package images stores note images in S3-compatible object storage.
//
// A note references its image by storage key; clients fetch the bytes
// through a short-lived presigned URL.
package images

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the object storage used for note images.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// KeyPrefix starts every image key; it doubles as the URL path prefix under
// which images are served.
const KeyPrefix = "images/"

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpg":  "jpg",
	"image/jpeg": "jpeg",
}

// Extension returns the file extension for an accepted image content type.
func Extension(contentType string) (string, bool) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// NewKey returns a fresh storage key of the form images/yyyy/m/d/<uuid>.<ext>.
func NewKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("%s%d/%d/%d/%v.%s", KeyPrefix, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// IsKey reports whether s looks like a key produced by NewKey.
func IsKey(s string) bool {
	return strings.HasPrefix(s, KeyPrefix) && !strings.Contains(s, "..")
}
