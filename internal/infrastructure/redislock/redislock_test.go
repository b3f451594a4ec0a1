package redislock

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/seblum/octiv-booker/internal/internaltypes"
)

func TestKeys(t *testing.T) {
	if got := lockKey("me@example.com", "2025-01-14"); got != "octiv-booker:lock:me@example.com:2025-01-14" {
		t.Fatalf("lockKey = %s", got)
	}
	if lockKey("a", "d") == bookedKey("a", "d") {
		t.Fatal("lock and booked keys collide")
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var g Noop
	release, err := g.Acquire(ctx, "a", "d")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Acquire(ctx, "a", "d"); err != nil {
		t.Fatal("noop guard refused a second run")
	}
	if err := release(ctx); err != nil {
		t.Fatal(err)
	}
	if booked, _ := g.AlreadyBooked(ctx, "a", "d"); booked {
		t.Fatal("noop reports booked")
	}
}

// Needs a disposable Redis, e.g. TEST_REDIS_URL=redis://localhost:6379/15
func TestGuard(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	g, err := New(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	account := "test-" + uuid.NewString()
	release, err := g.Acquire(ctx, account, "2025-01-14")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Acquire(ctx, account, "2025-01-14"); !errors.Is(err, internaltypes.ErrLocked) {
		t.Fatalf("second acquire err = %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatal(err)
	}
	release2, err := g.Acquire(ctx, account, "2025-01-14")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	// a stale release must not drop the new holder's lock
	if err := release(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Acquire(ctx, account, "2025-01-14"); !errors.Is(err, internaltypes.ErrLocked) {
		t.Fatalf("stale release freed the lock: %v", err)
	}
	_ = release2(ctx)

	if booked, err := g.AlreadyBooked(ctx, account, "2025-01-14"); err != nil || booked {
		t.Fatalf("AlreadyBooked = %v, %v", booked, err)
	}
	if err := g.MarkBooked(ctx, account, "2025-01-14"); err != nil {
		t.Fatal(err)
	}
	if booked, err := g.AlreadyBooked(ctx, account, "2025-01-14"); err != nil || !booked {
		t.Fatalf("AlreadyBooked = %v, %v", booked, err)
	}
	g.client.Del(ctx, bookedKey(account, "2025-01-14"))
}
