package votemod

import (
	"context"

	"github.com/lemmybots/partybot/votemod/countstore"
)

const (
	quotaCounter = "votemod-quota"
	quotaDelete  = "delete"
)

// Checks the daily delete quota. Returns true if a delete may proceed.
//
// The counter is only incremented once a delete has actually gone through (see countDelete). Counter read failures fail closed.
func (e *Engine) circuitBreakDelete(ctx context.Context) bool {
	if e.Config.DeleteQuotaDay <= 0 {
		return true
	}
	c, err := e.Counters.GetCount(ctx, quotaCounter, quotaDelete, countstore.PeriodDay)
	if err != nil {
		e.Logger.Error("reading delete quota counter", "err", err)
		return false
	}
	if c >= e.Config.DeleteQuotaDay {
		e.Logger.Warn("CIRCUIT BREAKER: partybot deletes", "count", c, "quota", e.Config.DeleteQuotaDay)
		return false
	}
	return true
}

func (e *Engine) countDelete(ctx context.Context) {
	if err := e.Counters.Increment(ctx, quotaCounter, quotaDelete); err != nil {
		e.Logger.Error("incrementing delete quota counter", "err", err)
	}
}
