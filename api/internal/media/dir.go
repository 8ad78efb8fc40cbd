// Package media reads source images that were uploaded elsewhere.
package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"image-translator/api/internal/apperr"
)

// Source returns the bytes of a stored image.
type Source interface {
	Load(ctx context.Context, imageID string) ([]byte, error)
}

// Dir serves images from a local directory; the image id is the file name.
type Dir struct {
	Root string
}

func NewDir(root string) *Dir { return &Dir{Root: root} }

func (d *Dir) Load(ctx context.Context, imageID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(imageID)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, apperr.InvalidInput("invalid image id " + imageID)
	}
	b, err := os.ReadFile(filepath.Join(d.Root, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.NotFound("image", imageID)
	}
	if err != nil {
		return nil, apperr.Storage("read image", err)
	}
	return b, nil
}
