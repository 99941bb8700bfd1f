// Vote-moderation component tracking which community members have requested deletion of which posts.
//
// Each (post, requester) pair holds at most one timestamp. A request is "Counted" when there is no live entry for the pair (or the previous one has aged past the cooldown window), otherwise it is a "Duplicate" and state is not touched. Expired entries are never swept; they are ignored at read time.
//
// Includes an interface and implementations using redis and in-process memory.
package tallystore
