package lemmy

// Subset of the Lemmy v3 API object schemas; fields not used by partybot are omitted.

type Person struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName *string `json:"display_name,omitempty"`
	ActorID     string  `json:"actor_id"`
	Local       bool    `json:"local"`
}

type Community struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	ActorID string `json:"actor_id"`
	Deleted bool   `json:"deleted"`
	Removed bool   `json:"removed"`
}

type Post struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	URL         *string `json:"url,omitempty"`
	Body        *string `json:"body,omitempty"`
	CreatorID   int64   `json:"creator_id"`
	CommunityID int64   `json:"community_id"`
	Deleted     bool    `json:"deleted"`
	Removed     bool    `json:"removed"`
	Published   string  `json:"published"`
	ApID        string  `json:"ap_id"`
}

type Comment struct {
	ID        int64  `json:"id"`
	CreatorID int64  `json:"creator_id"`
	PostID    int64  `json:"post_id"`
	Content   string `json:"content"`
	Deleted   bool   `json:"deleted"`
	Removed   bool   `json:"removed"`
	Published string `json:"published"`
	Path      string `json:"path"`
}

type PostView struct {
	Post      Post      `json:"post"`
	Creator   Person    `json:"creator"`
	Community Community `json:"community"`
}

type CommentView struct {
	Comment Comment `json:"comment"`
	Creator Person  `json:"creator"`
	Post    Post    `json:"post"`
}

type PersonView struct {
	Person Person `json:"person"`
}

type CommunityView struct {
	Community Community `json:"community"`
}

// Sort orders accepted by post and comment listing endpoints.
const (
	SortNew = "New"
	SortHot = "Hot"
	SortOld = "Old"
)
