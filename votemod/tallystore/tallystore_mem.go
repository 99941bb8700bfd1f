package tallystore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

// how many consumed comment IDs are remembered
const memConsumedSize = 65536

// In-process TallyStore. Expected to be owned by a single processing goroutine; there is no locking.
type MemTallyStore struct {
	Cooldown time.Duration
	// postID -> requesterID -> last request time
	Entries map[int64]map[int64]time.Time

	consumed *lru.Cache[int64, struct{}]
	clock    clockwork.Clock
}

var _ TallyStore = (*MemTallyStore)(nil)

func NewMemTallyStore(cooldown time.Duration, clock clockwork.Clock) *MemTallyStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	// only errors on a non-positive size
	consumed, _ := lru.New[int64, struct{}](memConsumedSize)
	return &MemTallyStore{
		Cooldown: cooldown,
		Entries:  make(map[int64]map[int64]time.Time),
		consumed: consumed,
		clock:    clock,
	}
}

func (s *MemTallyStore) Record(ctx context.Context, postID, requesterID int64, now time.Time) (Outcome, error) {
	post, ok := s.Entries[postID]
	if !ok {
		post = make(map[int64]time.Time)
		s.Entries[postID] = post
	}
	last, exists := post[requesterID]
	if exists && s.Cooldown > 0 && !expired(last, now, s.Cooldown) {
		return Duplicate, nil
	}
	post[requesterID] = now
	return Counted, nil
}

func (s *MemTallyStore) Tally(ctx context.Context, postID int64) (int, error) {
	now := s.clock.Now()
	count := 0
	for _, ts := range s.Entries[postID] {
		if !expired(ts, now, s.Cooldown) {
			count++
		}
	}
	return count, nil
}

func (s *MemTallyStore) Consume(ctx context.Context, commentID int64) (bool, error) {
	ok, _ := s.consumed.ContainsOrAdd(commentID, struct{}{})
	return !ok, nil
}

func (s *MemTallyStore) Release(ctx context.Context, commentID int64) error {
	s.consumed.Remove(commentID)
	return nil
}
