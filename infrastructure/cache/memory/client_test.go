package memory

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
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
	cache := NewMemoryCache(time.Minute)

	got, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %q, want nil for a miss", got)
	}
}

func TestExpiredKeyIsAMiss(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := cache.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("expired key returned %q", got)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemoryCache(time.Millisecond)
	ctx := context.Background()

	if err := cache.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := cache.Get(ctx, "forever")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Error("zero-ttl entry expired")
	}
}

func TestDelete(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
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
