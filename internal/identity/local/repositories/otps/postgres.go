package otps

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

func (r *PostgresRepository) Put(ctx context.Context, code *Code) error {
	query :=
		`INSERT INTO otp_codes (phone, code_hash, username, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (phone) DO UPDATE
		 SET code_hash = EXCLUDED.code_hash, username = EXCLUDED.username, expires_at = EXCLUDED.expires_at
		 `

	if _, err := r.db.ExecContext(ctx, query, code.Phone, code.CodeHash, code.Username, code.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, phone string) (*Code, error) {
	query :=
		`SELECT phone, code_hash, username, expires_at FROM otp_codes
		 WHERE phone = $1
		 `

	c := &Code{}
	err := r.db.QueryRowContext(ctx, query, phone).Scan(&c.Phone, &c.CodeHash, &c.Username, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, phone string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
