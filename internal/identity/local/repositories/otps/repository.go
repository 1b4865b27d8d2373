package otps

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("otp not found")

// Code is a pending one-time code for a phone number. Only a digest of
// the code is stored.
type Code struct {
	Phone     string
	CodeHash  string
	Username  string
	ExpiresAt time.Time
}

type Repository interface {
	// Put replaces any pending code for the phone.
	Put(ctx context.Context, code *Code) error
	Get(ctx context.Context, phone string) (*Code, error)
	Delete(ctx context.Context, phone string) error
}
