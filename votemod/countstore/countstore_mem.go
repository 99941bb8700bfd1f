package countstore

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

type MemCountStore struct {
	Counts map[string]int

	lk    sync.Mutex
	clock clockwork.Clock
}

var _ CountStore = (*MemCountStore)(nil)

func NewMemCountStore(clock clockwork.Clock) *MemCountStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemCountStore{
		Counts: make(map[string]int),
		clock:  clock,
	}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.Counts[periodBucket(name, val, period, s.clock.Now())], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	now := s.clock.Now()
	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		s.Counts[periodBucket(name, val, p, now)]++
	}
	return nil
}
