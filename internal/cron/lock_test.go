package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "cron", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire, got ok=%v err=%v", ok, err)
	}

	second, err := NewRedisLock(store, "cron", time.Hour)
	if err != nil {
		t.Fatalf("new second lock: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to be rejected")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwnLock(t *testing.T) {
	store := newFakeRedisStore()
	first, _ := NewRedisLock(store, "cron", time.Hour)
	second, _ := NewRedisLock(store, "cron", time.Hour)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatal("expected first acquire")
	}
	// second never acquired; release must be a no-op.
	if err := second.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["cron"]; !ok {
		t.Fatal("expected lock value to survive foreign release")
	}
}
