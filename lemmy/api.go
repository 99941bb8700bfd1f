package lemmy

import (
	"context"
	"fmt"
)

type LoginInput struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
	Totp2faToken    string `json:"totp_2fa_token,omitempty"`
}

type LoginOutput struct {
	JWT                 *string `json:"jwt,omitempty"`
	RegistrationCreated bool    `json:"registration_created"`
	VerifyEmailSent     bool    `json:"verify_email_sent"`
}

// Logs in and, on success, installs the session token on the client.
func Login(ctx context.Context, c *Client, username, password string) error {
	var out LoginOutput
	input := LoginInput{
		UsernameOrEmail: username,
		Password:        password,
	}
	if err := c.Do(ctx, Procedure, "user/login", nil, &input, &out); err != nil {
		return err
	}
	if out.JWT == nil || *out.JWT == "" {
		return fmt.Errorf("login response did not include a token (registration_created=%v verify_email_sent=%v)", out.RegistrationCreated, out.VerifyEmailSent)
	}
	c.Auth = &AuthInfo{
		JWT:      *out.JWT,
		Username: username,
	}
	return nil
}

type GetCommunityOutput struct {
	CommunityView CommunityView `json:"community_view"`
}

// Looks up a community by name. Remote communities use the "name@instance" form.
func GetCommunity(ctx context.Context, c *Client, name string) (*Community, error) {
	var out GetCommunityOutput
	params := map[string]any{
		"name": name,
	}
	if err := c.Do(ctx, Query, "community", params, nil, &out); err != nil {
		return nil, err
	}
	if out.CommunityView.Community.ID == 0 {
		return nil, fmt.Errorf("community not found: %s", name)
	}
	return &out.CommunityView.Community, nil
}

type ListPostsOutput struct {
	Posts []PostView `json:"posts"`
}

func ListPosts(ctx context.Context, c *Client, communityID int64, sort string, limit int) ([]PostView, error) {
	var out ListPostsOutput
	params := map[string]any{
		"community_id": communityID,
		"sort":         sort,
		"limit":        limit,
	}
	if err := c.Do(ctx, Query, "post/list", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

type ListCommentsOutput struct {
	Comments []CommentView `json:"comments"`
}

// Lists one page of comments on a post (pages start at 1). Comment bodies are included, so there is no need for per-comment detail fetches.
func ListComments(ctx context.Context, c *Client, postID int64, sort string, page, limit int) ([]CommentView, error) {
	var out ListCommentsOutput
	params := map[string]any{
		"post_id": postID,
		"sort":    sort,
		"page":    page,
		"limit":   limit,
		"type_":   "All",
	}
	if err := c.Do(ctx, Query, "comment/list", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

type CreateCommentInput struct {
	PostID   int64  `json:"post_id"`
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type CommentResponse struct {
	CommentView CommentView `json:"comment_view"`
}

func CreateComment(ctx context.Context, c *Client, input *CreateCommentInput) (*CommentView, error) {
	var out CommentResponse
	if err := c.Do(ctx, Procedure, "comment", nil, input, &out); err != nil {
		return nil, err
	}
	return &out.CommentView, nil
}

type DeletePostInput struct {
	PostID  int64 `json:"post_id"`
	Deleted bool  `json:"deleted"`
}

type PostResponse struct {
	PostView PostView `json:"post_view"`
}

// Marks a post deleted. Deleting a post which no longer exists, or which is already deleted, is treated as success.
func DeletePost(ctx context.Context, c *Client, postID int64) error {
	input := DeletePostInput{
		PostID:  postID,
		Deleted: true,
	}
	err := c.Do(ctx, Procedure, "post/delete", nil, &input, nil)
	if err != nil && IsNotFound(err) {
		return nil
	}
	return err
}

type CreatePostInput struct {
	Name        string  `json:"name"`
	CommunityID int64   `json:"community_id"`
	URL         *string `json:"url,omitempty"`
	Body        *string `json:"body,omitempty"`
	NSFW        *bool   `json:"nsfw,omitempty"`
}

func CreatePost(ctx context.Context, c *Client, input *CreatePostInput) (*PostView, error) {
	var out PostResponse
	if err := c.Do(ctx, Procedure, "post", nil, input, &out); err != nil {
		return nil, err
	}
	return &out.PostView, nil
}

type GetPersonOutput struct {
	PersonView PersonView `json:"person_view"`
}

func GetPerson(ctx context.Context, c *Client, personID int64) (*Person, error) {
	var out GetPersonOutput
	params := map[string]any{
		"person_id": personID,
		"limit":     1,
	}
	if err := c.Do(ctx, Query, "user", params, nil, &out); err != nil {
		return nil, err
	}
	return &out.PersonView.Person, nil
}
