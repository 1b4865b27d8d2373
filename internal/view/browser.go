// Package view composes the file listing for presentation: layout mode,
// search filtering and per-entry actions.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/humanize"
	"github.com/dmitrijs2005/filedeck/internal/mimex"
	"github.com/dmitrijs2005/filedeck/internal/notify"
)

type Mode string

const (
	ModeGrid Mode = "grid"
	ModeList Mode = "list"
)

var ErrUnknownMode = errors.New("unknown view mode")

// ParseMode accepts "grid" or "list", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGrid:
		return ModeGrid, nil
	case ModeList:
		return ModeList, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Clipboard receives copied links.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// Files is the part of the orchestrator the browser works with.
type Files interface {
	Snapshot() files.State
	Download(ctx context.Context, file files.FileRecord, sink files.Sink) error
	Delete(ctx context.Context, file files.FileRecord) error
	PublicURL(file files.FileRecord) string
}

// Item is a record decorated with its presentation fields.
type Item struct {
	files.FileRecord
	SizeText string     `json:"size_text"`
	DateText string     `json:"date_text"`
	Kind     mimex.Kind `json:"kind"`
}

// NewItem decorates f with its size, date and kind labels.
func NewItem(f files.FileRecord) Item {
	return Item{
		FileRecord: f,
		SizeText:   humanize.FormatSize(f.Size),
		DateText:   humanize.FormatDate(f.CreatedAt),
		Kind:       mimex.KindOf(f.Type),
	}
}

// Browser is the file grid state: view mode, search query and selection.
type Browser struct {
	files     Files
	clipboard Clipboard
	notifier  notify.Notifier
	columns   int

	mu    sync.Mutex
	mode  Mode
	query string

	memoValid bool
	memoRev   uint64
	memoQuery string
	memo      []files.FileRecord
}

// NewBrowser starts in grid mode with an empty query. columns is the grid
// width used by Render; values below 1 mean 4.
func NewBrowser(f Files, clipboard Clipboard, notifier notify.Notifier, columns int) *Browser {
	if notifier == nil {
		notifier = notify.Discard
	}
	if columns < 1 {
		columns = 4
	}
	return &Browser{
		files:     f,
		clipboard: clipboard,
		notifier:  notifier,
		columns:   columns,
		mode:      ModeGrid,
	}
}

func (b *Browser) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *Browser) SetMode(m Mode) {
	b.mu.Lock()
	b.mode = m
	b.mu.Unlock()
}

func (b *Browser) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

func (b *Browser) SetQuery(q string) {
	b.mu.Lock()
	b.query = q
	b.mu.Unlock()
}

// Filter keeps records whose name contains query, ignoring case. A blank
// query keeps everything; otherwise surrounding spaces are part of the match.
func Filter(records []files.FileRecord, query string) []files.FileRecord {
	if strings.TrimSpace(query) == "" {
		return records
	}
	q := strings.ToLower(query)
	result := make([]files.FileRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), q) {
			result = append(result, r)
		}
	}
	return result
}

// Visible returns the filtered list for the current state and query. The
// result is recomputed only when either of them changed.
func (b *Browser) Visible() []files.FileRecord {
	visible, _ := b.visible()
	return visible
}

func (b *Browser) visible() ([]files.FileRecord, files.State) {
	state := b.files.Snapshot()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.memoValid || b.memoRev != state.Revision || b.memoQuery != b.query {
		b.memo = Filter(state.Files, b.query)
		b.memoRev = state.Revision
		b.memoQuery = b.query
		b.memoValid = true
	}
	return b.memo, state
}

// Items returns the visible records ready for display.
func (b *Browser) Items() []Item {
	visible := b.Visible()
	items := make([]Item, len(visible))
	for i, f := range visible {
		items[i] = NewItem(f)
	}
	return items
}

func (b *Browser) Download(ctx context.Context, file files.FileRecord, sink files.Sink) error {
	return b.files.Download(ctx, file, sink)
}

func (b *Browser) Delete(ctx context.Context, file files.FileRecord) error {
	return b.files.Delete(ctx, file)
}

// CopyLink puts the public URL of file on the clipboard.
func (b *Browser) CopyLink(ctx context.Context, file files.FileRecord) (string, error) {
	url := b.files.PublicURL(file)
	if b.clipboard != nil {
		if err := b.clipboard.Copy(ctx, url); err != nil {
			return url, fmt.Errorf("copy link: %w", err)
		}
	}
	b.notifier.Notify(ctx, notify.Success("", "Link copied to clipboard"))
	return url, nil
}
