package votemod

import (
	"context"
	"fmt"

	"github.com/lemmybots/partybot/lemmy"
)

// Immutable
type Post struct {
	ID        int64
	Title     string
	CreatorID int64
}

// Immutable. AuthorID is the platform's stable numeric account ID, never a display name.
type Comment struct {
	ID       int64
	AuthorID int64
	Body     string
}

// Remote services the engine reads from and acts on. All calls are synchronous; timeouts and retries are the implementation's business.
type Platform interface {
	Authenticate(ctx context.Context) error
	ResolveCommunity(ctx context.Context, name string) (int64, error)
	// most recent, non-deleted posts in the community, newest first
	ListPosts(ctx context.Context, communityID int64, limit int) ([]Post, error)
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	Reply(ctx context.Context, postID int64, body string) error
	// must succeed (as a no-op) if the post is already deleted
	DeletePost(ctx context.Context, postID int64) error
	// human-readable account name, for rendering replies only
	ResolveUser(ctx context.Context, userID int64) (string, error)
}

// Platform implementation talking to a Lemmy instance.
type LemmyPlatform struct {
	Client   *lemmy.Client
	Username string
	Password string
	// comments fetched per listing request
	CommentPageSize int
}

var _ Platform = (*LemmyPlatform)(nil)

func (p *LemmyPlatform) Authenticate(ctx context.Context) error {
	if p.Username == "" || p.Password == "" {
		return fmt.Errorf("lemmy credentials not configured")
	}
	return lemmy.Login(ctx, p.Client, p.Username, p.Password)
}

func (p *LemmyPlatform) ResolveCommunity(ctx context.Context, name string) (int64, error) {
	comm, err := lemmy.GetCommunity(ctx, p.Client, name)
	if err != nil {
		return 0, err
	}
	return comm.ID, nil
}

func (p *LemmyPlatform) ListPosts(ctx context.Context, communityID int64, limit int) ([]Post, error) {
	views, err := lemmy.ListPosts(ctx, p.Client, communityID, lemmy.SortNew, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(views))
	for _, pv := range views {
		if pv.Post.Deleted || pv.Post.Removed {
			continue
		}
		out = append(out, Post{
			ID:        pv.Post.ID,
			Title:     pv.Post.Name,
			CreatorID: pv.Post.CreatorID,
		})
	}
	return out, nil
}

// Lists every live comment on a post, oldest first, paging until the instance returns a short page.
func (p *LemmyPlatform) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	pageSize := p.CommentPageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	out := []Comment{}
	for page := 1; ; page++ {
		views, err := lemmy.ListComments(ctx, p.Client, postID, lemmy.SortOld, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing comments page %d: %w", page, err)
		}
		for _, cv := range views {
			if cv.Comment.Deleted || cv.Comment.Removed {
				continue
			}
			out = append(out, Comment{
				ID:       cv.Comment.ID,
				AuthorID: cv.Comment.CreatorID,
				Body:     cv.Comment.Content,
			})
		}
		if len(views) < pageSize {
			return out, nil
		}
	}
}

func (p *LemmyPlatform) Reply(ctx context.Context, postID int64, body string) error {
	_, err := lemmy.CreateComment(ctx, p.Client, &lemmy.CreateCommentInput{
		PostID:  postID,
		Content: body,
	})
	return err
}

func (p *LemmyPlatform) DeletePost(ctx context.Context, postID int64) error {
	return lemmy.DeletePost(ctx, p.Client, postID)
}

func (p *LemmyPlatform) ResolveUser(ctx context.Context, userID int64) (string, error) {
	person, err := lemmy.GetPerson(ctx, p.Client, userID)
	if err != nil {
		return "", err
	}
	if person.Name == "" {
		return "", fmt.Errorf("no name for person %d", userID)
	}
	return person.Name, nil
}
