package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore(nil)

	c, err := cs.GetCount(ctx, "test1", "val1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, "test1", "val1"))
	assert.NoError(cs.Increment(ctx, "test1", "val1"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "test1", "val1", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}
}

func TestMemCountStorePeriodRollover(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC))

	cs := NewMemCountStore(clock)
	assert.NoError(cs.Increment(ctx, "quota", "delete"))

	clock.Advance(time.Hour)
	c, _ := cs.GetCount(ctx, "quota", "delete", PeriodDay)
	assert.Equal(0, c)
	c, _ = cs.GetCount(ctx, "quota", "delete", PeriodHour)
	assert.Equal(0, c)
	c, _ = cs.GetCount(ctx, "quota", "delete", PeriodTotal)
	assert.Equal(1, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore(nil)

	// run with -race
	var wg sync.WaitGroup
	fnInc := func(name, val string, times int) {
		for i := 0; i < times; i++ {
			assert.NoError(cs.Increment(ctx, name, val))
			time.Sleep(time.Nanosecond)
		}
		wg.Done()
	}
	wg.Add(4)
	go fnInc("test1", "val1", 10)
	go fnInc("test1", "val1", 10)
	go fnInc("test2", "val2", 6)
	go fnInc("test2", "val2", 6)
	wg.Wait()

	c, err := cs.GetCount(ctx, "test1", "val1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(20, c)
	c, err = cs.GetCount(ctx, "test2", "val2", PeriodTotal)
	assert.NoError(err)
	assert.Equal(12, c)
}
