// Package cache keeps aggregated book trees in Redis.
//
// Reader decorates a library.TreeReader: whole-library and single-book
// trees are served from Redis when present and stored after a miss.
// Degraded trees are never stored. Cache implements library.Notifier and
// drops every cached tree when content changes.
//
// Every invalidation bumps a generation counter. A tree is stored only if
// the generation it was built under is still current, so a read racing a
// mutation cannot put the old tree back.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/booklearn/internal/library"
)

const (
	keyPrefix   = "booklearn:tree:"
	allBooksKey = keyPrefix + "all"

	// Outside keyPrefix so Invalidate never deletes it.
	generationKey = "booklearn:tree-generation"
)

func bookKey(bookID string) string {
	return keyPrefix + "book:" + bookID
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis server at url (redis://[:password@]host:port/db).
func New(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	c := NewWithClient(redis.NewClient(opts), ttl)
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Tree cache enabled at %s (ttl %s)", opts.Addr, ttl)
	return c, nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Ping reports whether Redis answers. Used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// load decodes key into dest. ok is false on a miss.
func (c *Cache) load(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

// generation returns the current invalidation counter, 0 before the first
// invalidation.
func (c *Cache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// store writes value under key only while the generation is still gen.
// stored is false when an invalidation happened in between.
func (c *Cache) store(ctx context.Context, key string, value any, gen int64) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var errStaleGeneration = errors.New("tree cache generation changed")

// Invalidate bumps the generation and deletes every cached tree.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("error bumping cache generation: %w", err)
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error deleting cache keys: %w", err)
	}
	return nil
}

// Notify implements library.Notifier.
func (c *Cache) Notify(ctx context.Context, change library.Change) {
	if !change.ContentChange() {
		return
	}
	if err := c.Invalidate(context.WithoutCancel(ctx)); err != nil {
		log.Printf("Failed to invalidate tree cache after %s: %v", change.RoutingKey(), err)
	}
}
