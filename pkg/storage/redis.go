package storage

import (
	"context"
	goerrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/errors"
)

// DefaultRedisPrefix namespaces document keys.
const DefaultRedisPrefix = "nodewire:doc:"

// RedisStore keeps documents as Redis strings under a key prefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A ttl of zero keeps documents
// forever. The store does not own the client; Close is a no-op.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if goerrors.Is(err, redis.Nil) {
		return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", key)
	}
	if err != nil {
		return nil, redisError(err, "redis get %q", key)
	}
	return data, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return redisError(err, "redis set %q", key)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return redisError(err, "redis del %q", key)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, redisError(err, "redis scan")
	}
	sort.Strings(keys)
	return keys, nil
}

// Backend implements Store.
func (s *RedisStore) Backend() string { return "redis" }

// Close does nothing; the caller owns the client.
func (s *RedisStore) Close() error { return nil }

// redisError wraps a client failure as EXTERNAL_IO_FAILURE and marks it
// retryable unless the context ended.
func redisError(err error, format string, args ...any) error {
	wrapped := errors.Wrap(errors.ErrCodeExternalIO, err, format, args...)
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return wrapped
	}
	return cache.Retryable(wrapped)
}

var _ Store = (*RedisStore)(nil)
