package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filedeck/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, COALESCE(email, ''), COALESCE(phone, ''), username, birthday, password_hash, created_at FROM users`

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (id, email, phone, username, birthday, password_hash)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Phone, user.Username, user.Birthday, user.PasswordHash).Scan(&user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg).Scan(
		&user.ID, &user.Email, &user.Phone, &user.Username, &user.Birthday, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, "phone = $1", phone)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) AddRewards(ctx context.Context, id string, credits, xp int) error {
	query :=
		`UPDATE users SET credits = credits + $2, xp = xp + $3
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, credits, xp)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	err := dbx.ExecOne(ctx, r.db, query, args...)
	if errors.Is(err, dbx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
