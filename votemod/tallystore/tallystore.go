package tallystore

import (
	"context"
	"time"
)

type Outcome int

const (
	// the request was recorded, and contributes to the post's tally
	Counted Outcome = iota + 1
	// the requester already has a live request on this post; nothing was recorded
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Counted:
		return "counted"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type TallyStore interface {
	// Records a deletion request from "requesterID" on "postID", observed at "now".
	Record(ctx context.Context, postID, requesterID int64, now time.Time) (Outcome, error)
	// Number of distinct requesters with a live entry for "postID", as of the store's clock.
	Tally(ctx context.Context, postID int64) (int, error)
	// Marks a trigger comment as handled. Returns false if it was already marked, in which case the caller must not record it again.
	Consume(ctx context.Context, commentID int64) (bool, error)
	// Reverses Consume, so the comment is picked up again on a later cycle.
	Release(ctx context.Context, commentID int64) error
}

// An entry is expired once "cooldown" has fully elapsed since it was recorded. A zero cooldown means entries never expire and duplicates are never suppressed.
func expired(ts, now time.Time, cooldown time.Duration) bool {
	return cooldown > 0 && now.Sub(ts) >= cooldown
}
