package records

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every collection as one JSON string under
// <prefix><collection>. SET replaces the value atomically.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cms:collection:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Read(ctx context.Context, name string) ([]Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	b, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		// SETNX so a collection written meanwhile is not reset
		if err := r.client.SetNX(ctx, r.key(name), "[]", 0).Err(); err != nil {
			return nil, storageErr("initialize", name, err)
		}
		return []Record{}, nil
	}
	if err != nil {
		return nil, storageErr("read", name, err)
	}
	return decodeCollection(name, b)
}

func (r *RedisStore) Write(ctx context.Context, name string, recs []Record) error {
	if err := checkName(name); err != nil {
		return err
	}
	b, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(name), b, 0).Err(); err != nil {
		return storageErr("write", name, err)
	}
	return nil
}
