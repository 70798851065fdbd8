// Package media talks to the image host. Uploads return a URL reference
// that is later used, unchanged, to delete the image again.
package media

import (
	"context"
	"errors"
)

var ErrEmptyBlob = errors.New("media: empty blob")

// Blob is one uploaded file held in memory.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store uploads and deletes images. Delete must treat an already missing
// reference as success.
type Store interface {
	Upload(ctx context.Context, folder string, blob Blob) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Releaser schedules references for deletion without waiting on the result.
type Releaser interface {
	Release(refs ...string)
}
