package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/filedeck/internal/config"
	"github.com/dmitrijs2005/filedeck/internal/dbx"
	"github.com/dmitrijs2005/filedeck/internal/identity/gotrue"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/invites"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/otps"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/users"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/sessionstore"
	"github.com/dmitrijs2005/filedeck/internal/storage/memstore"
	"github.com/dmitrijs2005/filedeck/internal/storage/s3store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageBackend = config.StorageMemory
	c.IdentityBackend = config.IdentityGoTrue
	c.AuthURL = "http://auth.test/auth/v1"
	return c
}

func TestBuild_InMemoryAndGoTrue(t *testing.T) {
	b, err := Build(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.IsType(t, &memstore.Store{}, b.Storage)
	assert.IsType(t, &gotrue.Client{}, b.Provider)
	assert.IsType(t, &sessionstore.MemoryStore{}, b.Sessions)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StorageBackend = "ftp"

	_, err := Build(context.Background(), cfg, logging.Nop())
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewStorage_S3(t *testing.T) {
	cfg := testConfig()
	cfg.StorageBackend = config.StorageS3
	cfg.S3PublicBaseURL = "https://cdn.example.com"

	st, err := NewStorage(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &s3store.Store{}, st)
	assert.Equal(t, "https://cdn.example.com/files/a.txt", st.PublicURL("a.txt"))
}

func TestBackends_CloseReverseOrder(t *testing.T) {
	var order []int
	b := &Backends{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
	}}

	err := b.Close()
	require.EqualError(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, b.Close())
}

type stubManager struct {
	migrateErr error
	migrated   bool
}

func (s *stubManager) RunMigrations(context.Context, *sql.DB) error {
	s.migrated = true
	return s.migrateErr
}
func (s *stubManager) Users(dbx.DBTX) users.Repository     { return nil }
func (s *stubManager) OTPs(dbx.DBTX) otps.Repository       { return nil }
func (s *stubManager) Invites(dbx.DBTX) invites.Repository { return nil }

func TestNewLocalIdentity(t *testing.T) {
	cfg := testConfig()
	cfg.IdentityBackend = config.IdentityLocal
	cfg.GoogleClientID = "client"

	repos := &stubManager{}
	svc, err := NewLocalIdentity(context.Background(), nil, repos, cfg, logging.Nop())
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.True(t, repos.migrated)

	url, err := svc.OAuthURL(context.Background(), "google", "http://localhost:8080/")
	require.NoError(t, err)
	assert.Contains(t, url, "client_id=client")
	assert.Contains(t, url, "api%2Fauth%2Fcallback")
}

func TestNewLocalIdentity_MigrationError(t *testing.T) {
	cfg := testConfig()
	repos := &stubManager{migrateErr: errors.New("no db")}

	_, err := NewLocalIdentity(context.Background(), nil, repos, cfg, logging.Nop())
	require.ErrorContains(t, err, "migrations: no db")
}
