package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

type User struct {
	ID           string
	Email        string
	Phone        string
	Username     string
	Birthday     string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	AddRewards(ctx context.Context, id string, credits, xp int) error
}
