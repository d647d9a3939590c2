package store

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// The redis store keeps results under `/<prefix>/toolresults/<key>`,
// with the optional ttl applied as the key expiration.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store backed by redis.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) ResultStore {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (m *redisStore) getRedisKey(key string) string {
	return path.Join(m.prefix, "toolresults", key)
}

func (m *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := m.client.Get(ctx, m.getRedisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "failed to get result from Redis")
	}

	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return "", false, errors.Wrap(err, "failed to unmarshal result")
	}
	return e.Value, true, nil
}

func (m *redisStore) Put(ctx context.Context, key, value string) error {
	data, err := json.Marshal(Entry{Value: value, CreatedAt: time.Now()})
	if err != nil {
		return errors.Wrap(err, "failed to marshal result")
	}
	if err := m.client.Set(ctx, m.getRedisKey(key), data, m.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store result in Redis")
	}
	return nil
}

func (m *redisStore) Delete(ctx context.Context, key string) error {
	if err := m.client.Del(ctx, m.getRedisKey(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete result from Redis")
	}
	return nil
}
