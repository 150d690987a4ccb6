package users

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

// DefaultStorageKey is the item the profile is persisted under in each scope.
const DefaultStorageKey = "redseam_user"

// Repo persists Record as JSON in the scope's key-value storage.
type Repo struct {
	kv  storage.KeyValue
	key string
}

func NewRepo(kv storage.KeyValue, key string) (*Repo, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if key == "" {
		key = DefaultStorageKey
	}
	return &Repo{kv: kv, key: key}, nil
}

// Get returns nil when nothing usable is stored.
func (r *Repo) Get(ctx context.Context, scope string) (*Record, error) {
	raw, ok, err := r.kv.GetItem(ctx, scope, r.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *Repo) Save(ctx context.Context, scope string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user record")
	}
	return r.kv.SetItem(ctx, scope, r.key, string(raw))
}

func (r *Repo) Delete(ctx context.Context, scope string) error {
	return r.kv.RemoveItem(ctx, scope, r.key)
}
