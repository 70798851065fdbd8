// Package mediatest provides an in-memory media store for tests.
package mediatest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"shopcms/internal/media"
)

// Store records every upload and delete. Uploads of a blob whose filename
// is in FailUploads return that error; deletes of a ref in FailDeletes do too.
type Store struct {
	mu          sync.Mutex
	seq         int
	uploaded    []string
	deleted     []string
	live        map[string]bool
	FailUploads map[string]error
	FailDeletes map[string]error
}

func NewStore() *Store {
	return &Store{
		live:        make(map[string]bool),
		FailUploads: make(map[string]error),
		FailDeletes: make(map[string]error),
	}
}

func (s *Store) Upload(ctx context.Context, folder string, blob media.Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailUploads[blob.Filename]; ok {
		return "", err
	}
	if len(blob.Data) == 0 {
		return "", media.ErrEmptyBlob
	}

	s.seq++
	name := strings.TrimSuffix(blob.Filename, path.Ext(blob.Filename))
	ref := fmt.Sprintf("https://media.test/%s/%s-%d.jpg", folder, name, s.seq)
	s.uploaded = append(s.uploaded, ref)
	s.live[ref] = true
	return ref, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailDeletes[ref]; ok {
		return err
	}
	s.deleted = append(s.deleted, ref)
	delete(s.live, ref)
	return nil
}

// Uploaded returns every reference handed out, in upload order.
func (s *Store) Uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploaded...)
}

// Deleted returns every delete call, in call order.
func (s *Store) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// DeleteCount reports how many times ref was deleted.
func (s *Store) DeleteCount(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.deleted {
		if d == ref {
			n++
		}
	}
	return n
}

// Live returns references uploaded and not yet deleted, sorted.
func (s *Store) Live() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.live))
	for ref := range s.live {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Releaser deletes released references immediately, so tests can assert
// on the store right after the call returns.
type Releaser struct {
	Store media.Store
}

func (r Releaser) Release(refs ...string) {
	for _, ref := range refs {
		_ = r.Store.Delete(context.Background(), ref)
	}
}

// Blob builds a small fake JPEG blob.
func Blob(filename string) media.Blob {
	return media.Blob{
		Filename:    filename,
		ContentType: "image/jpeg",
		Data:        []byte("\xff\xd8\xff\xe0fake-" + filename),
	}
}
