package namecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemNameCache struct {
	Names *expirable.LRU[int64, string]
}

var _ NameCache = (*MemNameCache)(nil)

func NewMemNameCache(capacity int, ttl time.Duration) *MemNameCache {
	return &MemNameCache{
		Names: expirable.NewLRU[int64, string](capacity, nil, ttl),
	}
}

func (c *MemNameCache) Get(ctx context.Context, personID int64) (string, bool, error) {
	name, ok := c.Names.Get(personID)
	return name, ok, nil
}

func (c *MemNameCache) Set(ctx context.Context, personID int64, name string) error {
	c.Names.Add(personID, name)
	return nil
}
