package otps

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

var expires = time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)

func TestPut_Upserts(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+otp_codes.*ON\s+CONFLICT\s+\(phone\)\s+DO\s+UPDATE`).
		WithArgs("+15551234567", "digest", "bob", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), &Code{Phone: "+15551234567", CodeHash: "digest", Username: "bob", ExpiresAt: expires}))
}

func TestPut_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+otp_codes`).WillReturnError(errors.New("db down"))

	assert.ErrorContains(t, repo.Put(context.Background(), &Code{Phone: "+1555"}), "db error: db down")
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+phone,\s*code_hash,\s*username,\s*expires_at\s+FROM\s+otp_codes\s+WHERE\s+phone\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).WithArgs("+15551234567").
		WillReturnRows(sqlmock.NewRows([]string{"phone", "code_hash", "username", "expires_at"}).
			AddRow("+15551234567", "digest", "bob", expires))

	got, err := repo.Get(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, &Code{Phone: "+15551234567", CodeHash: "digest", Username: "bob", ExpiresAt: expires}, got)

	mock.ExpectQuery(q).WithArgs("+1999").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "+1999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^DELETE\s+FROM\s+otp_codes\s+WHERE\s+phone\s*=\s*\$1$`).
		WithArgs("+15551234567").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "+15551234567"))
}
