package feedpub

import (
	"fmt"
	"time"
)

const (
	// name of the set (in the blocklist SetStore) holding blocked registrable domains
	IgnoredDomainsSet = "ignored-domains"
)

type Config struct {
	FeedURL       string
	CommunityName string
	// entries published longer ago than this are skipped, and pruned from the ledger
	Retention time.Duration
	// max number of entries published per run
	MaxEntries int
	// minimum time between post creations
	Spacing time.Duration
}

func DefaultConfig() Config {
	return Config{
		FeedURL:       "https://www.reddit.com/r/todayilearned/new/.rss",
		CommunityName: "botland",
		Retention:     24 * time.Hour,
		MaxEntries:    3,
		Spacing:       5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.FeedURL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if c.CommunityName == "" {
		return fmt.Errorf("community name is required")
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive (got %s)", c.Retention)
	}
	if c.MaxEntries < 1 {
		return fmt.Errorf("max entries must be at least 1 (got %d)", c.MaxEntries)
	}
	if c.Spacing < 0 {
		return fmt.Errorf("spacing must not be negative (got %s)", c.Spacing)
	}
	return nil
}
