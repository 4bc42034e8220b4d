package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisSlotRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	slot := NewRedisSlot(client, "ws-1")

	held, err := slot.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty slot failed: %v", err)
	}
	if held != "" {
		t.Fatalf("empty slot returned %q", held)
	}

	if err := slot.Store(ctx, "tok-redis", time.Minute); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	held, err = slot.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if held != "tok-redis" {
		t.Fatalf("Load = %q; want tok-redis", held)
	}

	if err := slot.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	held, err = slot.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if held != "" {
		t.Fatalf("slot still holds %q after Clear", held)
	}
}

func TestRedisSlotTTLBound(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	slot := NewRedisSlot(client, "ws-ttl")

	if err := slot.Store(ctx, "tok", 30*time.Second); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	held, err := slot.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if held != "" {
		t.Fatalf("credential outlived its TTL: %q", held)
	}
}

func TestRedisSlotRejectsUnboundedStore(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	defer client.Close()

	slot := NewRedisSlot(client, "ws-unbounded")
	if err := slot.Store(context.Background(), "tok", 0); err == nil {
		t.Fatal("Store with ttl=0 must be rejected")
	}
}

func TestRedisSlotUnavailableBackend(t *testing.T) {
	mr, client := newTestRedis(t)
	defer client.Close()

	slot := NewRedisSlot(client, "ws-down")
	mr.Close()

	if _, err := slot.Load(context.Background()); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Load error = %v; want ErrSlotUnavailable", err)
	}
	if err := slot.Store(context.Background(), "tok", time.Minute); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Store error = %v; want ErrSlotUnavailable", err)
	}
	if err := slot.Clear(context.Background()); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Clear error = %v; want ErrSlotUnavailable", err)
	}
}

func TestRedisSlotKeysAreNamespaced(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	a := NewRedisSlot(client, "ws-a")
	b := NewRedisSlot(client, "ws-b")

	if err := a.Store(ctx, "tok-a", time.Minute); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	held, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if held != "" {
		t.Fatalf("slot b read slot a's credential: %q", held)
	}
}
