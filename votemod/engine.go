package votemod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lemmybots/partybot/votemod/countstore"
	"github.com/lemmybots/partybot/votemod/namecache"
	"github.com/lemmybots/partybot/votemod/tallystore"
)

var tracer = otel.Tracer("votemod")

// Runtime for watching a community: drives fetch, tally, decide, and act for each post.
//
// All durable state (tallies, and which comments were already consumed) lives in the TallyStore, so several Engine instances over time may share one store.
//
// An Engine is not safe for concurrent use. Cycles are expected to be run one after another from a single goroutine.
type Engine struct {
	Logger   *slog.Logger
	Platform Platform
	Tallies  tallystore.TallyStore
	Counters countstore.CountStore
	// optional
	Names    namecache.NameCache
	Notifier Notifier
	Config   Config
	Clock    clockwork.Clock

	communityID int64
}

// Summary of a single cycle, mostly for logging and tests.
type CycleSummary struct {
	Posts        int
	PostErrors   int
	Counted      int
	Duplicates   int
	Malformed    int
	Acknowledged int
	Deleted      int
}

func NewEngine(cfg Config, logger *slog.Logger, platform Platform, tallies tallystore.TallyStore, counters countstore.CountStore, names namecache.NameCache, clock clockwork.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		Logger:   logger.With("system", "votemod"),
		Platform: platform,
		Tallies:  tallies,
		Counters: counters,
		Names:    names,
		Config:   cfg,
		Clock:    clock,
	}, nil
}

// Runs a single watch cycle: authenticate, list recent posts, and process each post in order.
//
// Only an authentication failure is returned as an error. Failures listing the community or its posts end the cycle early, and per-post failures skip that post; both are logged.
func (e *Engine) RunCycle(ctx context.Context) (*CycleSummary, error) {
	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	start := e.Clock.Now()
	defer func() {
		cycleDuration.Observe(e.Clock.Since(start).Seconds())
	}()

	sum := &CycleSummary{}
	if err := e.Platform.Authenticate(ctx); err != nil {
		cycleCount.WithLabelValues("auth-error").Inc()
		span.SetStatus(codes.Error, "authentication failed")
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	if e.communityID == 0 {
		cid, err := e.Platform.ResolveCommunity(ctx, e.Config.CommunityName)
		if err != nil {
			e.Logger.Error("resolving community", "community", e.Config.CommunityName, "err", fmt.Errorf("%w: %w", ErrFetch, err))
			cycleCount.WithLabelValues("fetch-error").Inc()
			return sum, nil
		}
		e.communityID = cid
	}
	span.SetAttributes(attribute.Int64("community_id", e.communityID))

	posts, err := e.Platform.ListPosts(ctx, e.communityID, e.Config.PostLimit)
	if err != nil {
		e.Logger.Error("listing posts", "community", e.Config.CommunityName, "err", fmt.Errorf("%w: %w", ErrFetch, err))
		cycleCount.WithLabelValues("fetch-error").Inc()
		return sum, nil
	}

	for _, post := range posts {
		sum.Posts++
		if err := e.ProcessPost(ctx, post, sum); err != nil {
			sum.PostErrors++
			kind := "other"
			if errors.Is(err, ErrFetch) {
				kind = "fetch"
			}
			postErrorCount.WithLabelValues(kind).Inc()
			e.Logger.Error("processing post", "post", post.ID, "err", err)
		}
	}

	cycleCount.WithLabelValues("ok").Inc()
	e.Logger.Info("cycle complete",
		"posts", sum.Posts,
		"postErrors", sum.PostErrors,
		"counted", sum.Counted,
		"duplicates", sum.Duplicates,
		"acknowledged", sum.Acknowledged,
		"deleted", sum.Deleted,
	)
	return sum, nil
}

// Runs a single post through extraction, tallying, and escalation. Results are accumulated in to "sum", which may be nil.
//
// A returned error means the post was skipped (or only partially processed); action failures are logged and do not cause an error.
func (e *Engine) ProcessPost(ctx context.Context, post Post, sum *CycleSummary) (err error) {
	// similar to an HTTP server, we want to recover any panics from processing a single post
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("votemod post processing exception", "err", r, "post", post.ID)
			err = fmt.Errorf("panic processing post %d: %v", post.ID, r)
		}
	}()
	if sum == nil {
		sum = &CycleSummary{}
	}

	ctx, span := tracer.Start(ctx, "ProcessPost")
	defer span.End()
	span.SetAttributes(attribute.Int64("post_id", post.ID))

	logger := e.Logger.With("post", post.ID)
	postProcessCount.Inc()

	comments, err := e.Platform.ListComments(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("%w: listing comments: %w", ErrFetch, err)
	}

	reqs, skipped := ExtractRequests(post.ID, comments, e.Config.TriggerPhrase(), e.Clock.Now())
	for _, serr := range skipped {
		var mre *MalformedRecordError
		if errors.As(serr, &mre) && mre.CommentID != 0 {
			// only report each malformed comment once
			fresh, err := e.Tallies.Consume(ctx, mre.CommentID)
			if err != nil {
				logger.Error("marking malformed comment consumed", "comment", mre.CommentID, "err", err)
			} else if !fresh {
				continue
			}
		}
		malformedRecordCount.Inc()
		sum.Malformed++
		logger.Warn("skipping trigger comment", "err", serr)
	}

	tally, err := e.Tallies.Tally(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("reading tally: %w", err)
	}

	counted := 0
	for _, req := range reqs {
		fresh, err := e.Tallies.Consume(ctx, req.CommentID)
		if err != nil {
			logger.Error("marking comment consumed", "comment", req.CommentID, "err", err)
			continue
		}
		if !fresh {
			continue
		}

		outcome, err := e.Tallies.Record(ctx, req.PostID, req.RequesterID, req.ObservedAt)
		if err != nil {
			// leave it to be picked up again next cycle
			if rerr := e.Tallies.Release(ctx, req.CommentID); rerr != nil {
				logger.Error("releasing consumed comment", "comment", req.CommentID, "err", rerr)
			}
			logger.Error("recording delete request", "comment", req.CommentID, "requester", req.RequesterID, "err", err)
			continue
		}
		requestOutcomeCount.WithLabelValues(outcome.String()).Inc()
		logger.Debug("delete request", "comment", req.CommentID, "requester", req.RequesterID, "outcome", outcome)

		if outcome == tallystore.Counted {
			counted++
			tally++
			sum.Counted++
		} else {
			sum.Duplicates++
		}

		// acknowledge and delete are collapsed in to a single decision per post, made below
		d := Decide(outcome, tally, e.Config.Threshold)
		if d.Action == ActionDuplicateNotice {
			name := e.requesterName(ctx, req.RequesterID)
			e.reply(ctx, logger, post, ActionDuplicateNotice, DuplicateNoticeText(name))
		}
	}

	tally, err = e.Tallies.Tally(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("reading tally: %w", err)
	}
	span.SetAttributes(attribute.Int("tally", tally))

	d := DecideTally(tally, e.Config.Threshold)
	switch d.Action {
	case ActionDelete:
		if e.deletePost(ctx, logger, post, tally) {
			sum.Deleted++
		}
	case ActionAcknowledge:
		// only acknowledge when this cycle actually moved the tally
		if counted > 0 {
			if e.reply(ctx, logger, post, ActionAcknowledge, AcknowledgeText(d.Remaining)) {
				sum.Acknowledged++
			}
		}
	}
	return nil
}

// Sends a reply on a post. Returns true if the reply went through.
func (e *Engine) reply(ctx context.Context, logger *slog.Logger, post Post, act Action, body string) bool {
	if e.Config.ReadOnly {
		logger.Info("skipping reply (readonly)", "action", act, "body", body)
		actionCount.WithLabelValues(act.String(), "readonly").Inc()
		return false
	}
	if err := e.Platform.Reply(ctx, post.ID, body); err != nil {
		logger.Error("replying to post", "action", act, "err", fmt.Errorf("%w: %w", ErrAction, err))
		actionCount.WithLabelValues(act.String(), "error").Inc()
		return false
	}
	logger.Info("replied to post", "action", act)
	actionCount.WithLabelValues(act.String(), "ok").Inc()
	return true
}

// Deletes a post, subject to the daily quota. Returns true if the delete went through.
func (e *Engine) deletePost(ctx context.Context, logger *slog.Logger, post Post, tally int) bool {
	if e.Config.ReadOnly {
		logger.Info("skipping delete (readonly)", "tally", tally)
		actionCount.WithLabelValues(ActionDelete.String(), "readonly").Inc()
		return false
	}
	if !e.circuitBreakDelete(ctx) {
		actionCount.WithLabelValues(ActionDelete.String(), "quota").Inc()
		return false
	}
	if err := e.Platform.DeletePost(ctx, post.ID); err != nil {
		logger.Error("deleting post", "tally", tally, "err", fmt.Errorf("%w: %w", ErrAction, err))
		actionCount.WithLabelValues(ActionDelete.String(), "error").Inc()
		return false
	}
	e.countDelete(ctx)
	logger.Warn("deleted post", "tally", tally, "title", post.Title)
	actionCount.WithLabelValues(ActionDelete.String(), "ok").Inc()

	if e.Notifier != nil {
		if err := e.Notifier.SendDelete(ctx, post, tally); err != nil {
			logger.Error("sending delete notification", "err", err)
		}
	}
	return true
}

// Human-readable name for a requester, for use in reply text. Falls back to the numeric ID if the lookup fails.
func (e *Engine) requesterName(ctx context.Context, userID int64) string {
	name, src := namecache.Lookup(ctx, e.Logger, e.Names, e.Platform.ResolveUser, userID)
	userLookupCount.WithLabelValues(string(src)).Inc()
	return name
}
