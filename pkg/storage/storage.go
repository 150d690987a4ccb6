// Package storage provides the per-visitor key-value storage that holds the
// persisted cart and user records. Every item lives under (scope, key), where
// scope is the visitor session id.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a value does not fit the backend quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KeyValue is the string key-value contract the cart and user records are
// persisted through. A missing item reports found=false without an error.
type KeyValue interface {
	GetItem(ctx context.Context, scope, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, scope, key, value string) error
	RemoveItem(ctx context.Context, scope, key string) error
}

// Pinger exposes the health-check surface for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}
