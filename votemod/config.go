package votemod

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// number of distinct live requesters required to delete a post
	Threshold int
	// window during which a repeated request from the same member is a duplicate, and after which a request stops counting
	Cooldown time.Duration
	// mention the trigger phrase is built from, eg "@partybot"
	WatchedIdentity string
	CommunityName   string
	// max number of most-recent posts examined per cycle
	PostLimit int
	// max deletions per UTC day; zero disables the circuit breaker
	DeleteQuotaDay int
	// log and count decisions, but don't reply or delete
	ReadOnly bool
}

func DefaultConfig() Config {
	return Config{
		Threshold:       3,
		Cooldown:        time.Hour,
		WatchedIdentity: "@partybot",
		CommunityName:   "botland",
		PostLimit:       10,
		DeleteQuotaDay:  10,
	}
}

func (c Config) TriggerPhrase() string {
	return c.WatchedIdentity + " deleteThis!"
}

func (c Config) Validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be at least 1 (got %d)", ErrInvalidConfig, c.Threshold)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative (got %s)", ErrInvalidConfig, c.Cooldown)
	}
	if strings.TrimSpace(c.WatchedIdentity) == "" {
		return fmt.Errorf("%w: watched identity is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CommunityName) == "" {
		return fmt.Errorf("%w: community name is required", ErrInvalidConfig)
	}
	if c.PostLimit < 1 {
		return fmt.Errorf("%w: post limit must be at least 1 (got %d)", ErrInvalidConfig, c.PostLimit)
	}
	if c.DeleteQuotaDay < 0 {
		return fmt.Errorf("%w: delete quota must not be negative (got %d)", ErrInvalidConfig, c.DeleteQuotaDay)
	}
	return nil
}

// Operator-supplied overrides, typically read from a JSON file. Only keys which are present take effect.
type Overrides struct {
	Threshold       *int    `json:"threshold,omitempty"`
	CooldownSeconds *int    `json:"cooldownSeconds,omitempty"`
	WatchedIdentity *string `json:"watchedIdentity,omitempty"`
	CommunityName   *string `json:"communityName,omitempty"`
}

func LoadOverridesFile(p string) (*Overrides, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var o Overrides
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, p, err)
	}
	return &o, nil
}

func (c Config) Apply(o Overrides) Config {
	if o.Threshold != nil {
		c.Threshold = *o.Threshold
	}
	if o.CooldownSeconds != nil {
		c.Cooldown = time.Duration(*o.CooldownSeconds) * time.Second
	}
	if o.WatchedIdentity != nil {
		c.WatchedIdentity = *o.WatchedIdentity
	}
	if o.CommunityName != nil {
		c.CommunityName = *o.CommunityName
	}
	return c
}
