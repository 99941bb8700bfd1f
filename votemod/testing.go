package votemod

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lemmybots/partybot/votemod/countstore"
	"github.com/lemmybots/partybot/votemod/namecache"
	"github.com/lemmybots/partybot/votemod/tallystore"
)

// In-memory Platform for tests. Errors can be injected per operation, and per post for comment listing.
type MockPlatform struct {
	CommunityID int64
	Posts       []Post
	Comments    map[int64][]Comment
	Users       map[int64]string

	AuthErr      error
	CommunityErr error
	ListPostsErr error
	ReplyErr     error
	DeleteErr    error
	CommentErrs  map[int64]error

	// recorded side effects
	Replies map[int64][]string
	Deleted map[int64]int
	Logins  int

	lk sync.Mutex
}

var _ Platform = (*MockPlatform)(nil)

func NewMockPlatform(communityID int64) *MockPlatform {
	return &MockPlatform{
		CommunityID: communityID,
		Comments:    make(map[int64][]Comment),
		Users:       make(map[int64]string),
		CommentErrs: make(map[int64]error),
		Replies:     make(map[int64][]string),
		Deleted:     make(map[int64]int),
	}
}

func (m *MockPlatform) AddComment(postID int64, c Comment) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.Comments[postID] = append(m.Comments[postID], c)
}

func (m *MockPlatform) Authenticate(ctx context.Context) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.Logins++
	return m.AuthErr
}

func (m *MockPlatform) ResolveCommunity(ctx context.Context, name string) (int64, error) {
	if m.CommunityErr != nil {
		return 0, m.CommunityErr
	}
	return m.CommunityID, nil
}

func (m *MockPlatform) ListPosts(ctx context.Context, communityID int64, limit int) ([]Post, error) {
	if m.ListPostsErr != nil {
		return nil, m.ListPostsErr
	}
	if communityID != m.CommunityID {
		return nil, fmt.Errorf("unknown community: %d", communityID)
	}
	m.lk.Lock()
	defer m.lk.Unlock()
	out := []Post{}
	for _, p := range m.Posts {
		if m.Deleted[p.ID] > 0 {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MockPlatform) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if err := m.CommentErrs[postID]; err != nil {
		return nil, err
	}
	return append([]Comment{}, m.Comments[postID]...), nil
}

func (m *MockPlatform) Reply(ctx context.Context, postID int64, body string) error {
	if m.ReplyErr != nil {
		return m.ReplyErr
	}
	m.lk.Lock()
	defer m.lk.Unlock()
	m.Replies[postID] = append(m.Replies[postID], body)
	return nil
}

func (m *MockPlatform) DeletePost(ctx context.Context, postID int64) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.lk.Lock()
	defer m.lk.Unlock()
	// deleting an already-deleted post is a no-op
	m.Deleted[postID]++
	return nil
}

func (m *MockPlatform) ResolveUser(ctx context.Context, userID int64) (string, error) {
	name, ok := m.Users[userID]
	if !ok {
		return "", fmt.Errorf("user not found: %d", userID)
	}
	return name, nil
}

// Engine wired to in-memory stores and a MockPlatform, using a fake clock.
func EngineTestFixture() (*Engine, *MockPlatform, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	plat := NewMockPlatform(77)
	plat.Posts = []Post{
		{ID: 1001, Title: "first post", CreatorID: 5},
		{ID: 1002, Title: "second post", CreatorID: 6},
	}
	plat.Users[11] = "alice"
	plat.Users[12] = "bob"
	plat.Users[13] = "carol"
	eng, err := NewEngine(
		cfg,
		slog.Default(),
		plat,
		tallystore.NewMemTallyStore(cfg.Cooldown, clock),
		countstore.NewMemCountStore(clock),
		namecache.NewMemNameCache(100, time.Hour),
		clock,
	)
	if err != nil {
		panic(err)
	}
	return eng, plat, clock
}
