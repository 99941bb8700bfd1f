package votemod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractRequests(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	trigger := "@partybot deleteThis!"

	comments := []Comment{
		{ID: 1, AuthorID: 11, Body: "@partybot deleteThis!"},
		{ID: 2, AuthorID: 12, Body: "@partybot deletethis!"},
		{ID: 3, AuthorID: 13, Body: " @partybot deleteThis!"},
		{ID: 4, AuthorID: 14, Body: "@partybot deleteThis! please"},
		{ID: 5, AuthorID: 0, Body: "@partybot deleteThis!"},
		{ID: 6, AuthorID: 11, Body: "@partybot deleteThis!"},
		{ID: 0, AuthorID: 15, Body: "@partybot deleteThis!"},
		{ID: 7, AuthorID: 16, Body: "nice post"},
	}

	reqs, skipped := ExtractRequests(1001, comments, trigger, now)
	assert.Len(skipped, 2)
	for _, err := range skipped {
		assert.ErrorIs(err, ErrMalformedRecord)
	}
	var mre *MalformedRecordError
	assert.ErrorAs(skipped[0], &mre)
	assert.Equal(int64(5), mre.CommentID)
	assert.Equal(int64(0), mre.AuthorID)
	assert.Equal([]DeleteRequest{
		{PostID: 1001, RequesterID: 11, CommentID: 1, ObservedAt: now},
		{PostID: 1001, RequesterID: 11, CommentID: 6, ObservedAt: now},
	}, reqs)
}

func TestExtractRequestsEmpty(t *testing.T) {
	assert := assert.New(t)

	reqs, skipped := ExtractRequests(1001, nil, "@partybot deleteThis!", time.Now())
	assert.Empty(reqs)
	assert.Empty(skipped)

	reqs, skipped = ExtractRequests(1001, []Comment{{ID: 1, AuthorID: 2, Body: "hello"}}, "@partybot deleteThis!", time.Now())
	assert.Empty(reqs)
	assert.Empty(skipped)
}
