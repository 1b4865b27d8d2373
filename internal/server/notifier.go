package server

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/filedeck/internal/notify"
)

// requestNotifier collects notifications raised while a request is being
// handled so they can be returned in its response. Anything raised after
// finish (delayed invite redemption, task clean-up) goes to late instead.
type requestNotifier struct {
	late notify.Notifier

	mu    sync.Mutex
	items []notify.Notification
	done  bool
}

func newRequestNotifier(late notify.Notifier) *requestNotifier {
	return &requestNotifier{late: late}
}

func (r *requestNotifier) Notify(ctx context.Context, n notify.Notification) {
	r.mu.Lock()
	if !r.done {
		r.items = append(r.items, n)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.late.Notify(ctx, n)
}

func (r *requestNotifier) finish() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	if r.items == nil {
		return []notify.Notification{}
	}
	return r.items
}
