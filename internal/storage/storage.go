// Package storage writes uploaded movie images to the configured disk and
// builds the public URLs clients use to fetch them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageDir is the folder every stored image lives under.
const ImageDir = "images"

// Disk stores blobs under a relative key such as "images/1700000000_x.jpg".
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
}

// NewImageKey returns a unique key for an upload, keeping the client's file
// extension lower-cased.  The unix prefix keeps listings roughly time ordered.
func NewImageKey(originalName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, "\\", "/")))
	if len(ext) > 10 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return fmt.Sprintf("%s/%d_%s%s", ImageDir, now.Unix(), uuid.NewString(), ext)
}

// PublicURL is APP_URL + "/storage/" + key.
func PublicURL(appURL, key string) string {
	return strings.TrimRight(appURL, "/") + "/storage/" + strings.TrimLeft(key, "/")
}

// URLBuilder turns stored keys into the URLs clients fetch.  ObjectBase,
// when set, points straight at the bucket (S3_PUBLIC_URL) and replaces
// APP_URL/storage.
type URLBuilder struct {
	AppURL     string
	ObjectBase string
}

func (b URLBuilder) URL(key string) string {
	if b.ObjectBase == "" {
		return PublicURL(b.AppURL, key)
	}
	return strings.TrimRight(b.ObjectBase, "/") + "/" + strings.TrimLeft(key, "/")
}
