package kv

import (
	"context"
	"errors"
)

// ErrNotInteger is returned by IncrBy when the stored value is not a number.
var ErrNotInteger = errors.New("kv: value is not an integer")

// ScoredMember is one entry of a sorted set.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the durable key-value store the game persists into.
// Counter and score mutations are atomic on the backend; callers never
// read-modify-write.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetNX writes value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string) (bool, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SCard(ctx context.Context, key string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	ZAdd(ctx context.Context, key, member string, score float64) error
	ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)
	ZScore(ctx context.Context, key, member string) (float64, bool, error)
	// ZRevRangeWithScores returns members from highest to lowest score,
	// equal scores ordered by member descending. stop -1 means the last member.
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
