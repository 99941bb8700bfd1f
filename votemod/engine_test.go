package votemod

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemmybots/partybot/votemod/namecache"
)

const trigger = "@partybot deleteThis!"

func TestEngineEscalation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()

	// first request
	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(2, sum.Posts)
	assert.Equal(1, sum.Counted)
	assert.Equal([]string{AcknowledgeText(2)}, plat.Replies[1001])

	// same requester again, inside the cooldown
	clock.Advance(10 * time.Second)
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 11, Body: trigger})
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Counted)
	assert.Equal(1, sum.Duplicates)
	assert.Equal(0, sum.Acknowledged)
	assert.Equal([]string{
		AcknowledgeText(2),
		DuplicateNoticeText("alice"),
	}, plat.Replies[1001])
	tally, err := eng.Tallies.Tally(ctx, 1001)
	require.NoError(err)
	assert.Equal(1, tally)

	clock.Advance(10 * time.Second)
	plat.AddComment(1001, Comment{ID: 3, AuthorID: 12, Body: trigger})
	_, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(AcknowledgeText(1), plat.Replies[1001][2])

	// quorum reached: delete, and no further reply
	clock.Advance(10 * time.Second)
	plat.AddComment(1001, Comment{ID: 4, AuthorID: 13, Body: trigger})
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Deleted)
	assert.Equal(1, plat.Deleted[1001])
	assert.Len(plat.Replies[1001], 3)

	// nothing happens to the other post
	assert.Empty(plat.Replies[1002])
	assert.Zero(plat.Deleted[1002])
}

func TestEngineRearmAfterCooldown(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()

	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	_, err := eng.RunCycle(ctx)
	require.NoError(err)

	clock.Advance(4000 * time.Second)
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 11, Body: trigger})
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Counted)
	assert.Equal(0, sum.Duplicates)
	assert.Equal([]string{AcknowledgeText(2), AcknowledgeText(2)}, plat.Replies[1001])

	tally, err := eng.Tallies.Tally(ctx, 1001)
	require.NoError(err)
	assert.Equal(1, tally)
}

func TestEngineCommentFetchFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	plat.Posts = append(plat.Posts, Post{ID: 1003, Title: "third post"})
	plat.CommentErrs[1001] = fmt.Errorf("connection reset")
	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	for i, uid := range []int64{11, 12, 13} {
		plat.AddComment(1002, Comment{ID: int64(10 + i), AuthorID: uid, Body: trigger})
	}
	plat.AddComment(1003, Comment{ID: 20, AuthorID: 11, Body: trigger})

	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(3, sum.Posts)
	assert.Equal(1, sum.PostErrors)
	assert.Empty(plat.Replies[1001])
	assert.Equal(1, plat.Deleted[1002])
	assert.Empty(plat.Replies[1002])
	assert.Equal([]string{AcknowledgeText(2)}, plat.Replies[1003])

	// once the transport recovers, the skipped post is picked up
	delete(plat.CommentErrs, 1001)
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.PostErrors)
	assert.Equal([]string{AcknowledgeText(2)}, plat.Replies[1001])
}

func TestEngineAuthFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	plat.AuthErr = fmt.Errorf("incorrect_login")
	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	sum, err := eng.RunCycle(ctx)
	assert.ErrorIs(err, ErrAuthentication)
	assert.Nil(sum)
	assert.Empty(plat.Replies)
}

func TestEngineListFailures(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	plat.CommunityErr = fmt.Errorf("couldnt_find_community")
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Posts)

	plat.CommunityErr = nil
	plat.ListPostsErr = fmt.Errorf("timeout")
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Posts)

	plat.ListPostsErr = nil
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(2, sum.Posts)
}

func TestEngineSameBatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	// unordered, with a duplicate and some noise mixed in
	plat.AddComment(1001, Comment{ID: 9, AuthorID: 13, Body: trigger})
	plat.AddComment(1001, Comment{ID: 3, AuthorID: 11, Body: "what is this"})
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 11, Body: trigger})
	plat.AddComment(1001, Comment{ID: 5, AuthorID: 13, Body: trigger})
	plat.AddComment(1001, Comment{ID: 1, AuthorID: 12, Body: trigger})

	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(3, sum.Counted)
	assert.Equal(1, sum.Duplicates)
	assert.Equal(1, sum.Deleted)
	assert.Equal(1, plat.Deleted[1001])
	assert.Equal([]string{DuplicateNoticeText("carol")}, plat.Replies[1001])
}

func TestEngineConsumedComments(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()

	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 11, Body: trigger})
	_, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Len(plat.Replies[1001], 2)

	// comments persist on the platform; re-listing them must not produce new replies
	clock.Advance(time.Minute)
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Counted)
	assert.Equal(0, sum.Duplicates)
	assert.Len(plat.Replies[1001], 2)
}

func TestEngineSharedTallyStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()

	plat.AddComment(1001, Comment{ID: 1, AuthorID: 11, Body: trigger})
	_, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal([]string{AcknowledgeText(2)}, plat.Replies[1001])

	// a restarted process, picking up the same tally store
	clock.Advance(10 * time.Minute)
	restarted, err := NewEngine(eng.Config, slog.Default(), plat, eng.Tallies, eng.Counters, namecache.NewMemNameCache(10, time.Hour), clock)
	require.NoError(err)
	sum, err := restarted.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Counted)
	assert.Equal(0, sum.Duplicates)
	assert.Equal([]string{AcknowledgeText(2)}, plat.Replies[1001])

	// a real repeat from the same requester is still a duplicate
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 11, Body: trigger})
	sum, err = restarted.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Duplicates)
	assert.Equal([]string{AcknowledgeText(2), DuplicateNoticeText("alice")}, plat.Replies[1001])

	tally, err := restarted.Tallies.Tally(ctx, 1001)
	require.NoError(err)
	assert.Equal(1, tally)
}

func TestEngineMalformedAndUnknownUser(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	plat.AddComment(1001, Comment{ID: 1, AuthorID: 0, Body: trigger})
	plat.AddComment(1001, Comment{ID: 2, AuthorID: 99, Body: trigger})
	plat.AddComment(1001, Comment{ID: 3, AuthorID: 99, Body: trigger})

	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Malformed)
	assert.Equal(1, sum.Counted)
	assert.Equal([]string{
		DuplicateNoticeText("99"),
		AcknowledgeText(2),
	}, plat.Replies[1001])

	// the malformed comment is still listed, but only reported once
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Malformed)
	assert.Len(plat.Replies[1001], 2)
}

func TestEngineReadOnly(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()
	eng.Config.ReadOnly = true

	for i, uid := range []int64{11, 12, 13, 11} {
		plat.AddComment(1001, Comment{ID: int64(i + 1), AuthorID: uid, Body: trigger})
	}
	plat.AddComment(1002, Comment{ID: 10, AuthorID: 12, Body: trigger})

	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(4, sum.Counted)
	assert.Equal(0, sum.Deleted)
	assert.Empty(plat.Replies)
	assert.Empty(plat.Deleted)
}

func TestEngineDeleteRetry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()

	for i, uid := range []int64{11, 12, 13} {
		plat.AddComment(1001, Comment{ID: int64(i + 1), AuthorID: uid, Body: trigger})
	}
	plat.DeleteErr = fmt.Errorf("no_post_edit_allowed")
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Deleted)
	assert.Equal(0, sum.PostErrors)

	// tally is not rolled back, so the delete is attempted again
	plat.DeleteErr = nil
	clock.Advance(time.Minute)
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Deleted)
	assert.Equal(1, plat.Deleted[1001])
	assert.Empty(plat.Replies[1001])
}

func TestEngineDeleteQuota(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, clock := EngineTestFixture()
	eng.Config.DeleteQuotaDay = 1

	for _, pid := range []int64{1001, 1002} {
		for i, uid := range []int64{11, 12, 13} {
			plat.AddComment(pid, Comment{ID: pid*10 + int64(i), AuthorID: uid, Body: trigger})
		}
	}
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Deleted)
	assert.Equal(1, plat.Deleted[1001])
	assert.Zero(plat.Deleted[1002])

	// next UTC day the breaker resets, but by then the requests have expired
	clock.Advance(24 * time.Hour)
	sum, err = eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(0, sum.Deleted)
}

func TestEngineSlackNotification(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	eng, plat, _ := EngineTestFixture()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()
	eng.Notifier = &SlackNotifier{SlackWebhookURL: srv.URL, Client: srv.Client()}

	for i, uid := range []int64{11, 12, 13} {
		plat.AddComment(1002, Comment{ID: int64(i + 1), AuthorID: uid, Body: trigger})
	}
	sum, err := eng.RunCycle(ctx)
	require.NoError(err)
	assert.Equal(1, sum.Deleted)
	assert.Contains(got, "second post")
	assert.Contains(got, "Requests: 3")
}

func TestSlackNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid_token"))
	}))
	defer srv.Close()

	n := &SlackNotifier{SlackWebhookURL: srv.URL}
	err := n.SendDelete(context.Background(), Post{ID: 1, Title: "x"}, 3)
	assert.Error(t, err)
}
