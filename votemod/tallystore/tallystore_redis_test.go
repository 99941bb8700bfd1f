package tallystore

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestRedisTallyStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())

	ts, err := NewRedisTallyStore("redis://localhost:6379/0", time.Hour, clock)
	if err != nil {
		t.Fail()
	}
	postID := clock.Now().UnixNano()

	out, err := ts.Record(ctx, postID, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)
	out, err = ts.Record(ctx, postID, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Duplicate, out)
	out, err = ts.Record(ctx, postID, 200, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)

	c, err := ts.Tally(ctx, postID)
	assert.NoError(err)
	assert.Equal(2, c)

	clock.Advance(61 * time.Minute)
	c, err = ts.Tally(ctx, postID)
	assert.NoError(err)
	assert.Equal(0, c)

	out, err = ts.Record(ctx, postID, 100, clock.Now())
	assert.NoError(err)
	assert.Equal(Counted, out)
	assert.NoError(ts.Client.Del(ctx, redisTallyKey(postID)).Err())
}

func TestRedisTallyStoreConsume(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	ts, err := NewRedisTallyStore("redis://localhost:6379/0", time.Hour, nil)
	if err != nil {
		t.Fail()
	}
	commentID := time.Now().UnixNano()

	fresh, err := ts.Consume(ctx, commentID)
	assert.NoError(err)
	assert.True(fresh)

	// a second store on the same redis sees the marker, as after a restart
	other, err := NewRedisTallyStore("redis://localhost:6379/0", time.Hour, nil)
	if err != nil {
		t.Fail()
	}
	fresh, err = other.Consume(ctx, commentID)
	assert.NoError(err)
	assert.False(fresh)

	assert.NoError(other.Release(ctx, commentID))
	fresh, err = ts.Consume(ctx, commentID)
	assert.NoError(err)
	assert.True(fresh)
}
