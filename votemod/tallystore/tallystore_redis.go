package tallystore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

var redisTallyPrefix string = "tally/"
var redisConsumedPrefix string = "consumed/"

// how long an idle post key survives when the cooldown is zero (entries never expire)
var redisTallyRetention = 30 * 24 * time.Hour

// how long a consumed comment marker is kept; needs to outlive a post's time among the most recent in its community
var redisConsumedRetention = 30 * 24 * time.Hour

// TallyStore backed by one redis sorted set per post: members are requester IDs, scores are request times (unix milliseconds).
//
// Lets tally state survive process restarts, and be shared with other tooling. Assumes a single writer per post, like the in-memory store.
type RedisTallyStore struct {
	Client   *redis.Client
	Cooldown time.Duration

	clock clockwork.Clock
}

var _ TallyStore = (*RedisTallyStore)(nil)

func NewRedisTallyStore(redisURL string, cooldown time.Duration, clock clockwork.Clock) (*RedisTallyStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisTallyStore{
		Client:   rdb,
		Cooldown: cooldown,
		clock:    clock,
	}, nil
}

func redisTallyKey(postID int64) string {
	return redisTallyPrefix + strconv.FormatInt(postID, 10)
}

func (s *RedisTallyStore) Record(ctx context.Context, postID, requesterID int64, now time.Time) (Outcome, error) {
	key := redisTallyKey(postID)
	member := strconv.FormatInt(requesterID, 10)

	score, err := s.Client.ZScore(ctx, key, member).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("reading tally entry: %w", err)
	}
	if err == nil && s.Cooldown > 0 && !expired(time.UnixMilli(int64(score)), now, s.Cooldown) {
		return Duplicate, nil
	}

	ttl := redisTallyRetention
	if s.Cooldown > 0 {
		ttl = 2 * s.Cooldown
	}

	multi := s.Client.TxPipeline()
	multi.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	multi.Expire(ctx, key, ttl)
	if _, err := multi.Exec(ctx); err != nil {
		return 0, fmt.Errorf("writing tally entry: %w", err)
	}
	return Counted, nil
}

func (s *RedisTallyStore) Tally(ctx context.Context, postID int64) (int, error) {
	key := redisTallyKey(postID)
	if s.Cooldown <= 0 {
		c, err := s.Client.ZCard(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return 0, err
		}
		return int(c), nil
	}
	// live entries are strictly newer than (now - cooldown)
	min := "(" + strconv.FormatInt(s.clock.Now().Add(-s.Cooldown).UnixMilli(), 10)
	c, err := s.Client.ZCount(ctx, key, min, "+inf").Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return int(c), nil
}

func redisConsumedKey(commentID int64) string {
	return redisConsumedPrefix + strconv.FormatInt(commentID, 10)
}

func (s *RedisTallyStore) Consume(ctx context.Context, commentID int64) (bool, error) {
	ok, err := s.Client.SetNX(ctx, redisConsumedKey(commentID), 1, redisConsumedRetention).Result()
	if err != nil {
		return false, fmt.Errorf("marking comment consumed: %w", err)
	}
	return ok, nil
}

func (s *RedisTallyStore) Release(ctx context.Context, commentID int64) error {
	return s.Client.Del(ctx, redisConsumedKey(commentID)).Err()
}
