package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	cache := newTestCache(t)

	got, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %q, want nil for a miss", got)
	}
}

func TestSetOverwritesExistingKey(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("old"), time.Minute)
	cache.Set(ctx, "key", []byte("new"), time.Minute)

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("new")) {
		t.Errorf("Get() = %q, want overwritten value", got)
	}
}

func TestExpiredRowIsAMissAndRemoved(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("expired row returned %q", got)
	}
}

func TestZeroTTLPersists(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := cache.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	got, err := cache.Get(ctx, "forever")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Error("zero-ttl entry removed")
	}
}

func TestSweepReclaimsExpiredRows(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "stale", []byte("v"), -time.Second)
	cache.Set(ctx, "fresh", []byte("v"), time.Minute)

	if err := cache.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if got, _ := cache.Get(ctx, "stale"); got != nil {
		t.Error("stale row survived Sweep")
	}
	if got, _ := cache.Get(ctx, "fresh"); got == nil {
		t.Error("fresh row removed by Sweep")
	}
}

func TestDelete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "key", []byte("v"), time.Minute)
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, _ := cache.Get(ctx, "key")
	if got != nil {
		t.Error("key survived Delete")
	}
}
