// Package cache keeps author avatars in redis in front of the users table. Feed,
// search and post pages resolve one avatar per author, so hits save a query on
// every page load.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/bloghub-go/config"
)

const keyPrefix = "avatar:"

// Source answers cache misses.
type Source interface {
	ProfilePictures(ctx context.Context, usernames []string) (map[string]string, error)
}

// NewRedisClient connects to redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Printf("[cache] redis connected at %s", cfg.Addr)
	return client, nil
}

// AvatarCache is a read-through cache of profile pictures. Redis failures are
// logged and the source is queried directly, so the cache never fails a read.
type AvatarCache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
}

func NewAvatarCache(client *redis.Client, source Source, ttl time.Duration) *AvatarCache {
	return &AvatarCache{client: client, source: source, ttl: ttl}
}

// ProfilePictures returns the avatar of every existing user in usernames.
// Unknown users are absent from the result and are not cached.
func (c *AvatarCache) ProfilePictures(ctx context.Context, usernames []string) (map[string]string, error) {
	out := make(map[string]string, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}

	keys := make([]string, len(usernames))
	for i, name := range usernames {
		keys[i] = keyPrefix + name
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("[cache] avatar lookup failed, using source: %v", err)
		return c.source.ProfilePictures(ctx, usernames)
	}

	var misses []string
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[usernames[i]] = s
		} else {
			misses = append(misses, usernames[i])
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.source.ProfilePictures(ctx, misses)
	if err != nil {
		return nil, err
	}
	pipe := c.client.Pipeline()
	for name, pic := range fetched {
		out[name] = pic
		pipe.Set(ctx, keyPrefix+name, pic, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[cache] failed to store %d avatars: %v", len(fetched), err)
	}
	return out, nil
}

// Invalidate drops the cached avatars of usernames.
func (c *AvatarCache) Invalidate(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	keys := make([]string, len(usernames))
	for i, name := range usernames {
		keys[i] = keyPrefix + name
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate avatars: %w", err)
	}
	return nil
}
