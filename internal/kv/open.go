package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/db"
)

// Open picks a backend from the URL prefix: redis:// or rediss:// for Redis,
// postgres:// or sqlite:// for the SQL backend.
func Open(ctx context.Context, url string, log *zap.Logger) (Store, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
		return NewRedisStore(client), nil
	}

	gdb, err := db.Open(url, log)
	if err != nil {
		return nil, err
	}
	store, err := NewGormStore(gdb)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate key-value tables: %w", err)
	}
	return store, nil
}
