package votemod

import (
	"errors"
)

var (
	// could not log in; nothing in the cycle was processed
	ErrAuthentication = errors.New("authentication failed")
	// listing the community, posts, or comments failed
	ErrFetch = errors.New("fetch failed")
	// a reply or delete mutation was rejected
	ErrAction = errors.New("action failed")
	// a comment record lacked a required field
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidConfig   = errors.New("invalid config")
)
