package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mintgate/mintgate-backend/pkg/kv"
)

func TestMemoryStore(t *testing.T) {
	store := New(0) // Disable janitor for deterministic tests
	defer store.Close()

	ctx := context.Background()

	// String round trip
	if err := store.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Expected v1, got %s", got)
	}

	// Missing key
	if _, err := store.Get(ctx, "missing"); err != kv.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Exists and Del
	n, err := store.Exists(ctx, "k1", "missing")
	if err != nil || n != 1 {
		t.Fatalf("Exists = %d, %v", n, err)
	}
	n, err = store.Del(ctx, "k1", "missing")
	if err != nil || n != 1 {
		t.Fatalf("Del = %d, %v", n, err)
	}
	if _, err := store.Get(ctx, "k1"); err != kv.ErrNotFound {
		t.Fatalf("Expected key deleted, got %v", err)
	}

	// Counter
	v, err := store.IncrBy(ctx, "counter", 5)
	if err != nil || v != 5 {
		t.Fatalf("IncrBy = %d, %v", v, err)
	}
	v, err = store.IncrBy(ctx, "counter", -2)
	if err != nil || v != 3 {
		t.Fatalf("IncrBy = %d, %v", v, err)
	}

	// TTL bookkeeping
	if err := store.Set(ctx, "k2", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("Set with TTL failed: %v", err)
	}
	d, err := store.TTL(ctx, "k2")
	if err != nil || d <= 0 {
		t.Fatalf("TTL = %v, %v", d, err)
	}
	ok, err := store.Expire(ctx, "k2", 2*time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expire = %v, %v", ok, err)
	}
	if _, err := store.TTL(ctx, "missing"); err != kv.ErrNotFound {
		t.Fatalf("Expected ErrNotFound from TTL, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := New(0)
	defer store.Close()

	ctx := context.Background()

	if err := store.Set(ctx, "short", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); err != kv.ErrNotFound {
		t.Fatalf("Expected expired key, got %v", err)
	}
}

func TestMemoryStoreWithJanitor(t *testing.T) {
	// Test with a short janitor interval for faster cleanup testing
	store := New(10 * time.Millisecond)
	defer store.Close()

	ctx := context.Background()
	key := "test:janitor"
	value := []byte("test")

	// Set key with short TTL
	err := store.Set(ctx, key, value, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Key should exist initially
	_, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Expected key to exist initially: %v", err)
	}

	// Wait for janitor to clean up
	time.Sleep(50 * time.Millisecond)

	// Key should be cleaned up by janitor
	_, err = store.Get(ctx, key)
	if err != kv.ErrNotFound {
		t.Fatalf("Expected key to be cleaned up by janitor: %v", err)
	}
}
