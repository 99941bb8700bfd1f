// Vote-driven moderation engine for a Lemmy community.
//
// Community members ask for a post to be removed by commenting an exact trigger phrase ("<watched-identity> deleteThis!"). For each recent post the Engine extracts those requests, records them in a per-(post, requester) tally store with a cooldown window, and then either acknowledges the request (stating how many more are needed), tells a repeat requester that others must confirm, or deletes the post once enough distinct members have asked.
//
// The Engine runs one synchronous pass ("cycle") over the community per invocation. Scheduling is up to the caller; see `cmd/partybot` for a CLI which can run a single cycle or loop on an interval.
package votemod
