// Package redislock keeps concurrent booking runs for the same account and
// day apart, across processes.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/seblum/octiv-booker/internal/internaltypes"
)

const (
	DefaultTTL       = 15 * time.Minute
	DefaultBookedTTL = 48 * time.Hour
	keyPrefix        = "octiv-booker"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Guard struct {
	client    *redis.Client
	ttl       time.Duration
	bookedTTL time.Duration
}

// New connects with a redis:// URL.
func New(ctx context.Context, url string) (*Guard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(client), nil
}

func NewWithClient(client *redis.Client) *Guard {
	return &Guard{client: client, ttl: DefaultTTL, bookedTTL: DefaultBookedTTL}
}

func (g *Guard) Close() error { return g.client.Close() }

func lockKey(account, day string) string   { return keyPrefix + ":lock:" + account + ":" + day }
func bookedKey(account, day string) string { return keyPrefix + ":booked:" + account + ":" + day }

// Acquire takes the lock for account and day. It returns
// internaltypes.ErrLocked when another run holds it.
func (g *Guard) Acquire(ctx context.Context, account, day string) (func(context.Context) error, error) {
	key := lockKey(account, day)
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", internaltypes.ErrLocked, key)
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, g.client, []string{key}, token).Err()
	}, nil
}

func (g *Guard) AlreadyBooked(ctx context.Context, account, day string) (bool, error) {
	err := g.client.Get(ctx, bookedKey(account, day)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *Guard) MarkBooked(ctx context.Context, account, day string) error {
	return g.client.Set(ctx, bookedKey(account, day), time.Now().UTC().Format(time.RFC3339), g.bookedTTL).Err()
}

// Noop is used when no Redis is configured. Every run proceeds.
type Noop struct{}

func (Noop) Acquire(context.Context, string, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func (Noop) AlreadyBooked(context.Context, string, string) (bool, error) { return false, nil }
func (Noop) MarkBooked(context.Context, string, string) error            { return nil }
