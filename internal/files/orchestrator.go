package files

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/mimex"
	"github.com/dmitrijs2005/filedeck/internal/notify"
)

const (
	DefaultListLimit  = 100
	DefaultClearDelay = 2 * time.Second
)

// Orchestrator runs file operations against Storage and reports them.
type Orchestrator struct {
	storage  Storage
	notifier notify.Notifier
	logger   logging.Logger

	listLimit  int
	clearDelay time.Duration
	now        func() time.Time
	afterFunc  func(d time.Duration, f func())

	mu        sync.Mutex
	files     []FileRecord
	revision  uint64
	inflight  int
	issued    uint64
	applied   uint64
	uploading bool
	tasks     []UploadTask
	batch     uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

type Option func(*Orchestrator)

// WithListLimit overrides how many entries Refresh requests.
func WithListLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.listLimit = n
		}
	}
}

// WithClearDelay sets how long finished upload tasks stay visible.
func WithClearDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.clearDelay = d }
}

// WithClock replaces time.Now, which is used to build storage keys.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator returns an Orchestrator with the default list limit and clear delay.
func NewOrchestrator(storage Storage, notifier notify.Notifier, logger logging.Logger, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notify.Discard
	}
	o := &Orchestrator{
		storage:    storage,
		notifier:   notifier,
		logger:     logger.With("component", "files"),
		listLimit:  DefaultListLimit,
		clearDelay: DefaultClearDelay,
		now:        time.Now,
		afterFunc:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		subs:       make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	return State{
		Files:     append([]FileRecord(nil), o.files...),
		Loading:   o.inflight > 0,
		Uploading: o.uploading,
		Tasks:     append([]UploadTask(nil), o.tasks...),
		Revision:  o.revision,
	}
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (o *Orchestrator) Subscribe(fn func(State)) (cancel func()) {
	o.subMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.subMu.Unlock()

	return func() {
		o.subMu.Lock()
		delete(o.subs, id)
		o.subMu.Unlock()
	}
}

func (o *Orchestrator) publish() {
	s := o.Snapshot()

	o.subMu.Lock()
	fns := make([]func(State), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Refresh reloads the listing, newest first. On failure the previous list
// is kept.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	o.issued++
	seq := o.issued
	o.inflight++
	o.mu.Unlock()
	o.publish()

	entries, err := o.storage.List(ctx, ListOptions{
		Limit:  o.listLimit,
		SortBy: SortByCreatedAt,
		Desc:   true,
	})

	o.mu.Lock()
	o.inflight--
	if err == nil && seq > o.applied {
		o.applied = seq
		o.files = toRecords(entries)
		o.revision++
	}
	o.mu.Unlock()
	o.publish()

	if err != nil {
		o.logger.Error(ctx, "error fetching files", "error", err)
		o.notifier.Notify(ctx, notify.Error("", "Failed to load files"))
		return fmt.Errorf("list files: %w", err)
	}
	return nil
}

func toRecords(entries []Entry) []FileRecord {
	result := make([]FileRecord, 0, len(entries))
	for _, e := range entries {
		if e.Name == PlaceholderName {
			continue
		}
		t := e.MimeType
		if t == "" {
			t = mimex.TypeByName(e.Name)
		}
		size := e.Size
		if size < 0 {
			size = 0
		}
		result = append(result, FileRecord{
			ID:        e.ID,
			Name:      e.Name,
			Size:      size,
			Type:      t,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			Path:      e.Name,
		})
	}
	return result
}

// StorageKey builds the remote key for a new upload: a millisecond
// timestamp, a dash and the original name.
func StorageKey(at time.Time, name string) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), name)
}

// Upload sends the batch one file at a time. A failed file is marked and
// reported but does not stop the rest. When the batch is done the listing
// is refreshed and the task list is cleared after the configured delay.
// The returned tasks describe the final outcome of every file.
func (o *Orchestrator) Upload(ctx context.Context, uploads []Upload) ([]UploadTask, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	o.mu.Lock()
	if o.uploading {
		o.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	o.uploading = true
	o.batch++
	batch := o.batch
	o.tasks = make([]UploadTask, len(uploads))
	for i, u := range uploads {
		o.tasks[i] = UploadTask{FileName: u.Name, Status: StatusUploading}
	}
	o.mu.Unlock()
	o.publish()

	for i, u := range uploads {
		o.setTask(i, 50, StatusUploading)

		key := StorageKey(o.now(), u.Name)
		contentType := u.ContentType
		if contentType == "" {
			contentType = mimex.TypeByName(u.Name)
		}

		if err := o.storage.Upload(ctx, key, u.Body, u.Size, contentType); err != nil {
			o.setTask(i, 0, StatusFailed)
			o.logger.Error(ctx, "upload failed", "file", u.Name, "key", key, "error", err)
			o.notifier.Notify(ctx, notify.Error("", fmt.Sprintf("Failed to upload %s", u.Name)))
			continue
		}
		o.setTask(i, 100, StatusCompleted)
	}

	o.notifier.Notify(ctx, notify.Success("", "Files uploaded successfully"))
	_ = o.Refresh(ctx)

	o.mu.Lock()
	o.uploading = false
	result := append([]UploadTask(nil), o.tasks...)
	o.mu.Unlock()
	o.publish()

	o.afterFunc(o.clearDelay, func() { o.clearTasks(batch) })

	return result, nil
}

func (o *Orchestrator) setTask(i, progress int, status UploadStatus) {
	o.mu.Lock()
	if i < len(o.tasks) {
		o.tasks[i].Progress = progress
		o.tasks[i].Status = status
	}
	o.mu.Unlock()
	o.publish()
}

// clearTasks drops the task list unless a newer batch has replaced it.
func (o *Orchestrator) clearTasks(batch uint64) {
	o.mu.Lock()
	if o.batch != batch || o.uploading {
		o.mu.Unlock()
		return
	}
	o.tasks = nil
	o.mu.Unlock()
	o.publish()
}

// Find looks a record up by storage path in the current list.
func (o *Orchestrator) Find(path string) (FileRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range o.files {
		if f.Path == path {
			return f, nil
		}
	}
	return FileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Download streams the object into sink under its display name.
func (o *Orchestrator) Download(ctx context.Context, file FileRecord, sink Sink) error {
	body, err := o.storage.Download(ctx, file.Path)
	if err != nil {
		return o.downloadFailed(ctx, file, err)
	}
	defer body.Close()

	if err := sink.Save(file.Name, file.Type, body); err != nil {
		return o.downloadFailed(ctx, file, err)
	}

	o.notifier.Notify(ctx, notify.Success("", fmt.Sprintf("Downloaded %s", file.Name)))
	return nil
}

func (o *Orchestrator) downloadFailed(ctx context.Context, file FileRecord, err error) error {
	o.logger.Error(ctx, "download error", "path", file.Path, "error", err)
	o.notifier.Notify(ctx, notify.Error("", "Download failed"))
	return fmt.Errorf("download %s: %w", file.Path, err)
}

// Delete removes the object and refreshes the listing. On failure the
// local list is left untouched.
func (o *Orchestrator) Delete(ctx context.Context, file FileRecord) error {
	if err := o.storage.Remove(ctx, []string{file.Path}); err != nil {
		o.logger.Error(ctx, "delete error", "path", file.Path, "error", err)
		o.notifier.Notify(ctx, notify.Error("", "Delete failed"))
		return fmt.Errorf("delete %s: %w", file.Path, err)
	}

	o.notifier.Notify(ctx, notify.Success("", fmt.Sprintf("Deleted %s", file.Name)))
	_ = o.Refresh(ctx)
	return nil
}

func (o *Orchestrator) PublicURL(file FileRecord) string {
	return o.storage.PublicURL(file.Path)
}

// SignedURL returns a time-limited link when the storage can sign.
func (o *Orchestrator) SignedURL(ctx context.Context, file FileRecord, ttl time.Duration) (string, error) {
	signer, ok := o.storage.(Signer)
	if !ok {
		return "", ErrSigningUnsupported
	}
	url, err := signer.SignedURL(ctx, file.Path, ttl)
	if err != nil {
		o.logger.Error(ctx, "sign url error", "path", file.Path, "error", err)
		return "", fmt.Errorf("sign %s: %w", file.Path, err)
	}
	return url, nil
}
