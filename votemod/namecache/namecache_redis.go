package namecache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

var redisNamePrefix = "person-name/"

// Names held in redis, fronted by a small in-process TinyLFU tier.
type RedisNameCache struct {
	Names *cache.Cache
	TTL   time.Duration
}

var _ NameCache = (*RedisNameCache)(nil)

func NewRedisNameCache(redisURL string, ttl time.Duration) (*RedisNameCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisNameCache{
		Names: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(1_000, ttl),
		}),
		TTL: ttl,
	}, nil
}

func redisNameKey(personID int64) string {
	return redisNamePrefix + strconv.FormatInt(personID, 10)
}

func (c *RedisNameCache) Get(ctx context.Context, personID int64) (string, bool, error) {
	var name string
	err := c.Names.Get(ctx, redisNameKey(personID), &name)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (c *RedisNameCache) Set(ctx context.Context, personID int64, name string) error {
	return c.Names.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisNameKey(personID),
		Value: name,
		TTL:   c.TTL,
	})
}
