package storage

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StorageKey(scope, item string) string
	Ping(ctx context.Context) error
}

// Redis stores each item as one redis string without expiry.
type Redis struct {
	client redisStore
}

func NewRedis(client redisStore) *Redis {
	return &Redis{client: client}
}

func (r *Redis) GetItem(ctx context.Context, scope, key string) (string, bool, error) {
	val, found, err := r.client.Get(ctx, r.client.StorageKey(scope, key))
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis get item")
	}
	return val, found, nil
}

func (r *Redis) SetItem(ctx context.Context, scope, key, value string) error {
	if err := r.client.Set(ctx, r.client.StorageKey(scope, key), value, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis set item")
	}
	return nil
}

func (r *Redis) RemoveItem(ctx context.Context, scope, key string) error {
	if err := r.client.Del(ctx, r.client.StorageKey(scope, key)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis remove item")
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
