// Package notify carries user-facing notifications (toasts) from the
// orchestration core to whatever surface presents them.
package notify

import (
	"context"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one transient message. Title may be empty.
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Notifier presents notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) {})

// Success, Error and Info build notifications with an optional title.
func Success(title, msg string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: msg}
}

func Error(title, msg string) Notification {
	return Notification{Level: LevelError, Title: title, Message: msg}
}

func Info(title, msg string) Notification {
	return Notification{Level: LevelInfo, Title: title, Message: msg}
}

// Fanout delivers each notification to all of its members in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, x := range f {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Collector records notifications for later inspection; HTTP handlers
// return them in the response body and tests assert on them.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Items returns a copy of everything collected so far.
func (c *Collector) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

type ctxKey struct{}

// NewContext returns a copy of ctx that routes notifications raised by a
// Routed notifier to n.
func NewContext(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier stored by NewContext, if any.
func FromContext(ctx context.Context) (Notifier, bool) {
	n, ok := ctx.Value(ctxKey{}).(Notifier)
	return n, ok
}

// Routed delivers to the notifier carried by the context and falls back to
// Default when there is none.
type Routed struct {
	Default Notifier
}

func (r Routed) Notify(ctx context.Context, n Notification) {
	if target, ok := FromContext(ctx); ok {
		target.Notify(ctx, n)
		return
	}
	if r.Default != nil {
		r.Default.Notify(ctx, n)
	}
}
