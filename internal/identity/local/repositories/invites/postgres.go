package invites

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

func (r *PostgresRepository) Redeem(ctx context.Context, code, userID string) (bool, error) {
	query :=
		`UPDATE invite_codes SET redeemed_by = $2, redeemed_at = now()
		 WHERE code = $1 AND redeemed_by IS NULL AND (inviter_id IS NULL OR inviter_id <> $2)
		 RETURNING code
		 `

	var redeemed string
	err := r.db.QueryRowContext(ctx, query, code, userID).Scan(&redeemed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsForeignKeyViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}
