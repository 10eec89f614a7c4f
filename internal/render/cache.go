package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/verithos/policyforge-backend/internal/logger"
)

// ArtifactCache memoizes rendered artifacts in redis. Rendering is a pure
// function of (policy, version, format, watermark), so cached bytes are
// served verbatim; every cache failure degrades to a fresh render.
type ArtifactCache interface {
	Get(ctx context.Context, policyID uuid.UUID, version int, format Format, watermark bool) ([]byte, bool)
	Set(ctx context.Context, policyID uuid.UUID, version int, format Format, watermark bool, data []byte)
	Invalidate(ctx context.Context, policyID uuid.UUID)
	Close() error
}

type artifactCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewArtifactCache(log *logger.Logger, addr string, ttl time.Duration) (ArtifactCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &artifactCache{
		log: log.With("component", "ArtifactCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(policyID uuid.UUID, version int, format Format, watermark bool) string {
	return fmt.Sprintf("render:%s:v%d:%s:wm%t", policyID, version, format, watermark)
}

func (c *artifactCache) Get(ctx context.Context, policyID uuid.UUID, version int, format Format, watermark bool) ([]byte, bool) {
	key := cacheKey(policyID, version, format, watermark)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *artifactCache) Set(ctx context.Context, policyID uuid.UUID, version int, format Format, watermark bool, data []byte) {
	key := cacheKey(policyID, version, format, watermark)
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached artifact of one policy. Called on any
// mutation, since step edits change content without bumping the version.
func (c *artifactCache) Invalidate(ctx context.Context, policyID uuid.UUID) {
	pattern := fmt.Sprintf("render:%s:*", policyID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn("cache invalidate failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache scan failed", "pattern", pattern, "error", err)
	}
}

func (c *artifactCache) Close() error { return c.rdb.Close() }

// noopCache is used when redis is not configured; every lookup misses.
type noopCache struct{}

func NewNoopCache() ArtifactCache { return noopCache{} }

func (noopCache) Get(context.Context, uuid.UUID, int, Format, bool) ([]byte, bool) {
	return nil, false
}
func (noopCache) Set(context.Context, uuid.UUID, int, Format, bool, []byte) {}
func (noopCache) Invalidate(context.Context, uuid.UUID)                    {}
func (noopCache) Close() error                                             { return nil }
