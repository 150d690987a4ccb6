package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestGetSetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.StorageKey("sess-1", "redseam_cart")
	if _, found, err := client.Get(ctx, key); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}

	if err := client.Set(ctx, key, `[{"id":"1"}]`, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.ttls[key] != 0 {
		t.Fatalf("storage writes should not expire, got ttl %v", mock.ttls[key])
	}
	val, found, err := client.Get(ctx, key)
	if err != nil || !found {
		t.Fatalf("get failed found=%v err=%v", found, err)
	}
	if val != `[{"id":"1"}]` {
		t.Fatalf("unexpected value %q", val)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, found, _ := client.Get(ctx, key); found {
		t.Fatalf("expected key removed")
	}
}

func TestGetPropagatesBackendErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.getErr = fmt.Errorf("connection reset")
	client := &Client{store: mock}

	if _, _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without connection should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.StorageKey("abc", "redseam_user"); got != "redseam:storage:abc:redseam_user" {
		t.Fatalf("unexpected storage key %s", got)
	}
	if got := client.StorageKey("", " redseam_cart "); got != "redseam:storage:redseam_cart" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
