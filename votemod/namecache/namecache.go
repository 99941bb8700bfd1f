package namecache

import (
	"context"
	"log/slog"
	"strconv"
)

type NameCache interface {
	// A miss is reported as ok=false with no error.
	Get(ctx context.Context, personID int64) (name string, ok bool, err error)
	Set(ctx context.Context, personID int64, name string) error
}

// Fetches a person's name from the platform.
type ResolveFunc func(ctx context.Context, personID int64) (string, error)

// Where a Lookup result came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourcePlatform Source = "platform"
	SourceFallback Source = "fallback"
)

// Returns a display name for "personID", checking "cache" (which may be nil) before calling "resolve". If resolution fails or yields an empty name, the decimal ID is returned instead. Cache errors are logged and otherwise ignored.
func Lookup(ctx context.Context, logger *slog.Logger, cache NameCache, resolve ResolveFunc, personID int64) (string, Source) {
	if cache != nil {
		name, ok, err := cache.Get(ctx, personID)
		if err != nil {
			logger.Warn("reading name cache", "person", personID, "err", err)
		} else if ok && name != "" {
			return name, SourceCache
		}
	}

	name, err := resolve(ctx, personID)
	if err != nil || name == "" {
		logger.Warn("resolving person name", "person", personID, "err", err)
		return strconv.FormatInt(personID, 10), SourceFallback
	}

	if cache != nil {
		if err := cache.Set(ctx, personID, name); err != nil {
			logger.Warn("writing name cache", "person", personID, "err", err)
		}
	}
	return name, SourcePlatform
}
