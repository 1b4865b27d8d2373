package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "filedeck:session:"

// redisClient is the part of redis.Cmdable the store uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type RedisStore struct {
	client redisClient
	close  func() error
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore opens a client and checks the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, close: client.Close}, nil
}

func (r *RedisStore) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

func redisKey(sid, key string) string {
	return redisPrefix + sid + ":" + key
}

func (r *RedisStore) Set(ctx context.Context, sid, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, redisKey(sid, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	return result(r.client.Get(ctx, redisKey(sid, key)))
}

func (r *RedisStore) Take(ctx context.Context, sid, key string) (string, error) {
	return result(r.client.GetDel(ctx, redisKey(sid, key)))
}

func result(cmd *redis.StringCmd) (string, error) {
	v, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}
