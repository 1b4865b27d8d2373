package files

import (
	"context"
	"io"
	"sort"
	"time"
)

type SortColumn string

const (
	SortByName      SortColumn = "name"
	SortByCreatedAt SortColumn = "created_at"
	SortByUpdatedAt SortColumn = "updated_at"
)

// ListOptions mirrors the backend list request.
type ListOptions struct {
	Prefix string
	Limit  int
	SortBy SortColumn
	Desc   bool
}

// Entry is a raw listing item. MimeType is empty when the backend has no
// metadata for the object; Size is 0 in the same case.
type Entry struct {
	ID        string
	Name      string
	Size      int64
	MimeType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Storage is the object storage contract. The bucket is bound when the
// implementation is constructed.
type Storage interface {
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, keys []string) error
	// PublicURL derives a shareable URL without a network call.
	PublicURL(key string) string
}

// Signer is implemented by stores able to mint time-limited private links.
type Signer interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Sink receives downloaded content under the file's display name.
type Sink interface {
	Save(name string, contentType string, r io.Reader) error
}

// SortEntries orders entries in place the way a backend list request with
// the same options would. Ties keep their name order.
func SortEntries(entries []Entry, by SortColumn, desc bool) {
	less := func(a, b Entry) bool {
		switch by {
		case SortByCreatedAt:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case SortByUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		}
		return a.Name < b.Name
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
