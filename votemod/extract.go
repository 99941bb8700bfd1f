package votemod

import (
	"fmt"
	"time"
)

// One observed instance of the trigger phrase. Consumed in to the tally store and then discarded.
type DeleteRequest struct {
	PostID      int64
	RequesterID int64
	CommentID   int64
	ObservedAt  time.Time
}

// A trigger comment which could not be turned in to a request. Matches ErrMalformedRecord with errors.Is.
type MalformedRecordError struct {
	CommentID int64
	AuthorID  int64
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: comment=%d author=%d", ErrMalformedRecord, e.CommentID, e.AuthorID)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Selects the comments whose body is byte-for-byte equal to "trigger", preserving input order.
//
// Matching comments missing an author or comment ID are skipped; one *MalformedRecordError per skipped record is returned so the caller can log them. A post with no comments yields no requests and no errors.
func ExtractRequests(postID int64, comments []Comment, trigger string, now time.Time) ([]DeleteRequest, []error) {
	var reqs []DeleteRequest
	var skipped []error
	for _, c := range comments {
		if c.Body != trigger {
			continue
		}
		if c.AuthorID == 0 || c.ID == 0 {
			skipped = append(skipped, &MalformedRecordError{CommentID: c.ID, AuthorID: c.AuthorID})
			continue
		}
		reqs = append(reqs, DeleteRequest{
			PostID:      postID,
			RequesterID: c.AuthorID,
			CommentID:   c.ID,
			ObservedAt:  now,
		})
	}
	return reqs, skipped
}
