package votemod

import (
	"fmt"

	"github.com/lemmybots/partybot/votemod/tallystore"
)

type Action int

const (
	ActionNone Action = iota
	ActionAcknowledge
	ActionDuplicateNotice
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAcknowledge:
		return "acknowledge"
	case ActionDuplicateNotice:
		return "duplicate-notice"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	// for ActionAcknowledge: how many more distinct requests are needed
	Remaining int
}

// Maps a single request's outcome, plus the post's current tally, to an action. A Duplicate outcome always yields a duplicate notice, whatever the tally.
func Decide(outcome tallystore.Outcome, tally, threshold int) Decision {
	if outcome == tallystore.Duplicate {
		return Decision{Action: ActionDuplicateNotice}
	}
	return DecideTally(tally, threshold)
}

// Maps a post's tally to an action: nothing at zero, acknowledge below threshold, delete at or above it.
func DecideTally(tally, threshold int) Decision {
	switch {
	case tally <= 0:
		return Decision{Action: ActionNone}
	case tally < threshold:
		return Decision{Action: ActionAcknowledge, Remaining: threshold - tally}
	default:
		return Decision{Action: ActionDelete}
	}
}

func AcknowledgeText(remaining int) string {
	return fmt.Sprintf("Request to delete received. %d more required to remove the post.", remaining)
}

func DuplicateNoticeText(requesterName string) string {
	return fmt.Sprintf("@%s, you have already requested deletion of this post. Other members must also confirm.", requesterName)
}
