// Package memstore is an in-memory files.Storage used for local development
// and tests.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/google/uuid"
)

var ErrNoSuchKey = errors.New("no such key")

type object struct {
	id          string
	data        []byte
	contentType string
	created     time.Time
	updated     time.Time
}

type Store struct {
	mu         sync.RWMutex
	objects    map[string]*object
	publicBase string
	now        func() time.Time
}

// New creates an empty store. publicBase prefixes public URLs.
func New(publicBase string) *Store {
	return &Store{
		objects:    make(map[string]*object),
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

func (s *Store) List(ctx context.Context, opts files.ListOptions) ([]files.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]files.Entry, 0, len(s.objects))
	for key, o := range s.objects {
		if !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		result = append(result, files.Entry{
			ID:        o.id,
			Name:      strings.TrimPrefix(key, opts.Prefix),
			Size:      int64(len(o.data)),
			MimeType:  o.contentType,
			CreatedAt: o.created,
			UpdatedAt: o.updated,
		})
	}
	s.mu.RUnlock()

	files.SortEntries(result, opts.SortBy, opts.Desc)
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.objects[key]; ok {
		o.data, o.contentType, o.updated = data, contentType, now
		return nil
	}
	s.objects[key] = &object{id: uuid.NewString(), data: data, contentType: contentType, created: now, updated: now}
	return nil
}

func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchKey, key)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), o.data...))), nil
}

func (s *Store) Remove(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + url.PathEscape(key)
}
