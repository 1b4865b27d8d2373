// Package bootstrap turns a Config into the storage, identity and session
// backends shared by the server and the terminal client.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filedeck/internal/config"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/identity/gotrue"
	"github.com/dmitrijs2005/filedeck/internal/identity/local"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/repomanager"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/sessionstore"
	"github.com/dmitrijs2005/filedeck/internal/storage/memstore"
	"github.com/dmitrijs2005/filedeck/internal/storage/s3store"
)

const callbackPath = "/api/auth/callback"

// Backends are the external systems the application talks to.
type Backends struct {
	Storage  files.Storage
	Provider identity.Provider
	Sessions sessionstore.Store

	closers []func() error
}

// Close releases connections in reverse order of creation.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Build connects every backend selected by cfg. On error whatever was
// already opened is closed.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backends{}
	var err error

	if b.Storage, err = NewStorage(ctx, cfg); err != nil {
		return nil, err
	}

	if b.Sessions, err = b.newSessions(ctx, cfg); err != nil {
		_ = b.Close()
		return nil, err
	}

	if b.Provider, err = b.newProvider(ctx, cfg, logger); err != nil {
		_ = b.Close()
		return nil, err
	}

	return b, nil
}

func NewStorage(ctx context.Context, cfg *config.Config) (files.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return memstore.New(cfg.S3PublicBaseURL), nil
	default:
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3BaseEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return store, nil
	}
}

func (b *Backends) newSessions(ctx context.Context, cfg *config.Config) (sessionstore.Store, error) {
	if cfg.RedisAddr == "" {
		return sessionstore.NewMemoryStore(), nil
	}
	rs, err := sessionstore.NewRedisStore(ctx, sessionstore.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis session store: %w", err)
	}
	b.closers = append(b.closers, rs.Close)
	return rs, nil
}

func (b *Backends) newProvider(ctx context.Context, cfg *config.Config, logger logging.Logger) (identity.Provider, error) {
	if cfg.IdentityBackend == config.IdentityGoTrue {
		c, err := gotrue.New(gotrue.Config{AuthURL: cfg.AuthURL, RestURL: cfg.RestURL, APIKey: cfg.APIKey}, nil)
		if err != nil {
			return nil, fmt.Errorf("gotrue identity: %w", err)
		}
		return c, nil
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	b.closers = append(b.closers, db.Close)

	svc, err := NewLocalIdentity(ctx, db, repomanager.NewPostgresRepositoryManager(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// NewLocalIdentity migrates the schema and builds the self-hosted identity
// service. Google sign-in is enabled when a client id is configured.
func NewLocalIdentity(ctx context.Context, db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) (*local.Service, error) {
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var opts []local.Option
	if cfg.GoogleClientID != "" {
		callback := strings.TrimRight(cfg.SiteURL, "/") + callbackPath
		opts = append(opts, local.WithGoogle(local.GoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, callback)))
	}

	svc, err := local.NewService(db, repos, local.Config{
		Secret:   []byte(cfg.SecretKey),
		TokenTTL: cfg.TokenValidity,
	}, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("local identity: %w", err)
	}
	return svc, nil
}
