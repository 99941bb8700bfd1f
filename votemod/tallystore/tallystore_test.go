package tallystore

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemTallyStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)

	ts := NewMemTallyStore(time.Hour, clock)

	c, err := ts.Tally(ctx, 1)
	assert.NoError(err)
	assert.Equal(0, c)

	out, err := ts.Record(ctx, 1, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)

	// same requester, inside the window
	clock.Advance(10 * time.Second)
	out, err = ts.Record(ctx, 1, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Duplicate, out)

	c, err = ts.Tally(ctx, 1)
	assert.NoError(err)
	assert.Equal(1, c)

	// other posts are independent
	out, err = ts.Record(ctx, 2, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)
	c, err = ts.Tally(ctx, 1)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemTallyStoreDuplicateDoesNotMutate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)

	ts := NewMemTallyStore(time.Hour, clock)
	ts.Record(ctx, 1, 100, clock.Now())

	clock.Advance(50 * time.Minute)
	out, _ := ts.Record(ctx, 1, 100, clock.Now())
	assert.Equal(Duplicate, out)
	assert.Equal(t0, ts.Entries[1][100])

	// had the duplicate refreshed the timestamp, this would still be a duplicate
	clock.Advance(10 * time.Minute)
	out, _ = ts.Record(ctx, 1, 100, clock.Now())
	assert.Equal(Counted, out)
}

func TestMemTallyStoreOrderIndependent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	requesters := []int64{11, 12, 13, 14, 15, 16, 17}
	for i := 0; i < 20; i++ {
		clock := clockwork.NewFakeClockAt(t0)
		ts := NewMemTallyStore(time.Hour, clock)
		perm := rand.Perm(len(requesters))
		for _, idx := range perm {
			out, err := ts.Record(ctx, 1, requesters[idx], clock.Now())
			assert.NoError(err)
			assert.Equal(Counted, out)
			clock.Advance(time.Second)
		}
		// repeat everyone; nobody counts twice
		for _, idx := range perm {
			out, err := ts.Record(ctx, 1, requesters[idx], clock.Now())
			assert.NoError(err)
			assert.Equal(Duplicate, out)
		}
		c, err := ts.Tally(ctx, 1)
		assert.NoError(err)
		assert.Equal(len(requesters), c)
	}
}

func TestMemTallyStoreExpiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)

	ts := NewMemTallyStore(3600*time.Second, clock)
	ts.Record(ctx, 1, 100, clock.Now())
	clock.Advance(20 * time.Minute)
	ts.Record(ctx, 1, 200, clock.Now())

	c, _ := ts.Tally(ctx, 1)
	assert.Equal(2, c)

	// first entry ages out; count only decreases
	clock.Advance(40 * time.Minute)
	c, _ = ts.Tally(ctx, 1)
	assert.Equal(1, c)
	// stale entries are not swept
	assert.Len(ts.Entries[1], 2)

	// re-arm after expiry counts exactly once more
	out, err := ts.Record(ctx, 1, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)
	out, _ = ts.Record(ctx, 1, 100, clock.Now())
	assert.Equal(Duplicate, out)
	c, _ = ts.Tally(ctx, 1)
	assert.Equal(2, c)

	clock.Advance(2 * time.Hour)
	c, _ = ts.Tally(ctx, 1)
	assert.Equal(0, c)
}

func TestMemTallyStoreRearmAfterLongGap(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)

	ts := NewMemTallyStore(3600*time.Second, clock)
	out, _ := ts.Record(ctx, 1, 100, clock.Now())
	assert.Equal(Counted, out)

	clock.Advance(4000 * time.Second)
	out, _ = ts.Record(ctx, 1, 100, clock.Now())
	assert.Equal(Counted, out)
	assert.Equal(clock.Now(), ts.Entries[1][100])
	c, _ := ts.Tally(ctx, 1)
	assert.Equal(1, c)
}

func TestMemTallyStoreZeroCooldown(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)

	ts := NewMemTallyStore(0, clock)
	for i := 0; i < 3; i++ {
		out, err := ts.Record(ctx, 1, 100, clock.Now())
		assert.NoError(err)
		assert.Equal(Counted, out)
	}
	clock.Advance(365 * 24 * time.Hour)
	c, _ := ts.Tally(ctx, 1)
	assert.Equal(1, c)
}

func TestOutcomeString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("counted", Counted.String())
	assert.Equal("duplicate", Duplicate.String())
	assert.Equal("unknown", Outcome(0).String())
}

func TestMemTallyStoreConsume(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := NewMemTallyStore(time.Hour, clockwork.NewFakeClockAt(t0))

	fresh, err := ts.Consume(ctx, 42)
	assert.NoError(err)
	assert.True(fresh)
	fresh, err = ts.Consume(ctx, 42)
	assert.NoError(err)
	assert.False(fresh)

	fresh, _ = ts.Consume(ctx, 43)
	assert.True(fresh)

	assert.NoError(ts.Release(ctx, 42))
	fresh, _ = ts.Consume(ctx, 42)
	assert.True(fresh)
}
