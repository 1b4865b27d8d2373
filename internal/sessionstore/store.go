// Package sessionstore keeps small per-session values, such as an invite
// code remembered until the visitor signs up.
package sessionstore

import (
	"context"
	"errors"
	"time"
)

const KeyPendingInviteCode = "pendingInviteCode"

var ErrNotFound = errors.New("session value not found")

// Store is scoped by session id. A zero ttl keeps the value until it is
// taken.
type Store interface {
	Set(ctx context.Context, sid, key, value string, ttl time.Duration) error
	Get(ctx context.Context, sid, key string) (string, error)
	// Take returns the value and deletes it in one step.
	Take(ctx context.Context, sid, key string) (string, error)
}
