package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var errBadKey = errors.New("storage: key escapes root")

// LocalDisk writes under Root.  The router serves Root at /storage.
type LocalDisk struct {
	Root string
}

func NewLocalDisk(root string) (*LocalDisk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalDisk{Root: root}, nil
}

func (d *LocalDisk) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	dst, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	// write to a temp file first so readers never see a partial image
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (d *LocalDisk) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", errBadKey
	}
	dst := filepath.Join(d.Root, clean)
	rel, err := filepath.Rel(d.Root, dst)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errBadKey
	}
	return dst, nil
}
