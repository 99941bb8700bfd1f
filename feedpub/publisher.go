package feedpub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/carlmjohnson/versioninfo"
	"github.com/jonboulle/clockwork"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/lemmybots/partybot/feedpub/ledger"
	"github.com/lemmybots/partybot/feedpub/setstore"
	"github.com/lemmybots/partybot/lemmy"
)

// Lemmy caps post titles at 200 characters
const maxTitleLen = 200

// Where entries get published.
type Destination interface {
	Authenticate(ctx context.Context) error
	ResolveCommunity(ctx context.Context, name string) (int64, error)
	// Returns the new post's ID.
	CreatePost(ctx context.Context, communityID int64, title, link, body string) (int64, error)
}

type LemmyDestination struct {
	Client   *lemmy.Client
	Username string
	Password string
}

var _ Destination = (*LemmyDestination)(nil)

func (d *LemmyDestination) Authenticate(ctx context.Context) error {
	return lemmy.Login(ctx, d.Client, d.Username, d.Password)
}

func (d *LemmyDestination) ResolveCommunity(ctx context.Context, name string) (int64, error) {
	comm, err := lemmy.GetCommunity(ctx, d.Client, name)
	if err != nil {
		return 0, err
	}
	return comm.ID, nil
}

func (d *LemmyDestination) CreatePost(ctx context.Context, communityID int64, title, link, body string) (int64, error) {
	input := &lemmy.CreatePostInput{
		Name:        title,
		CommunityID: communityID,
	}
	if link != "" {
		input.URL = &link
	}
	if body != "" {
		input.Body = &body
	}
	pv, err := lemmy.CreatePost(ctx, d.Client, input)
	if err != nil {
		return 0, err
	}
	return pv.Post.ID, nil
}

// Republishes fresh entries from a feed in to a community.
type Publisher struct {
	Logger    *slog.Logger
	Dest      Destination
	Ledger    ledger.Ledger
	Blocklist setstore.SetStore
	Config    Config
	Clock     clockwork.Clock
	Parser    *gofeed.Parser

	limiter *rate.Limiter
}

type RunSummary struct {
	Selected  int
	Published int
	Blocked   int
	Failed    int
}

func NewPublisher(cfg Config, logger *slog.Logger, dest Destination, ldg ledger.Ledger, blocklist setstore.SetStore, httpClient *http.Client, clock clockwork.Clock) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	parser := gofeed.NewParser()
	parser.Client = httpClient
	// reddit in particular rejects generic user agents
	parser.UserAgent = "partybot/" + versioninfo.Short()

	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.Spacing > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.Spacing), 1)
	}
	return &Publisher{
		Logger:    logger.With("system", "feedpub"),
		Dest:      dest,
		Ledger:    ldg,
		Blocklist: blocklist,
		Config:    cfg,
		Clock:     clock,
		Parser:    parser,
		limiter:   lim,
	}, nil
}

// Runs a single publishing pass. Authentication, community, feed, and ledger failures are returned; failures publishing an individual entry are logged and skipped.
func (p *Publisher) Run(ctx context.Context) (*RunSummary, error) {
	sum, err := p.run(ctx)
	if err != nil {
		runCount.WithLabelValues("error").Inc()
		return nil, err
	}
	runCount.WithLabelValues("ok").Inc()
	return sum, nil
}

func (p *Publisher) run(ctx context.Context) (*RunSummary, error) {
	if err := p.Dest.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	communityID, err := p.Dest.ResolveCommunity(ctx, p.Config.CommunityName)
	if err != nil {
		return nil, fmt.Errorf("resolving community %s: %w", p.Config.CommunityName, err)
	}

	now := p.Clock.Now()
	pruned, err := p.Ledger.Prune(ctx, now.Add(-p.Config.Retention))
	if err != nil {
		return nil, fmt.Errorf("pruning ledger: %w", err)
	}
	p.Logger.Debug("pruned ledger", "removed", pruned)

	feed, err := p.Parser.ParseURLWithContext(p.Config.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", p.Config.FeedURL, err)
	}

	selected, err := p.selectEntries(ctx, feed.Items, now)
	if err != nil {
		return nil, err
	}

	sum := &RunSummary{Selected: len(selected)}
	for _, item := range selected {
		published, err := p.publishEntry(ctx, communityID, item)
		if err != nil {
			sum.Failed++
			entryCount.WithLabelValues("failed").Inc()
			p.Logger.Error("publishing feed entry", "link", item.Link, "err", err)
			continue
		}
		if !published {
			sum.Blocked++
			continue
		}
		sum.Published++
	}

	if err := p.Ledger.Save(ctx); err != nil {
		return nil, fmt.Errorf("saving ledger: %w", err)
	}
	p.Logger.Info("feed publish complete", "selected", sum.Selected, "published", sum.Published, "blocked", sum.Blocked, "failed", sum.Failed)
	return sum, nil
}

// Picks, in feed order, up to MaxEntries entries which are recent enough and not yet published.
func (p *Publisher) selectEntries(ctx context.Context, items []*gofeed.Item, now time.Time) ([]*gofeed.Item, error) {
	selected := []*gofeed.Item{}
	for _, item := range items {
		if len(selected) >= p.Config.MaxEntries {
			break
		}
		if item.Link == "" {
			entryCount.WithLabelValues("no-link").Inc()
			continue
		}
		published := entryTime(item)
		if published.IsZero() {
			entryCount.WithLabelValues("undated").Inc()
			p.Logger.Warn("skipping undated feed entry", "link", item.Link)
			continue
		}
		if now.Sub(published) > p.Config.Retention {
			entryCount.WithLabelValues("stale").Inc()
			continue
		}
		seen, err := p.Ledger.Contains(ctx, NormalizeURL(item.Link))
		if err != nil {
			return nil, fmt.Errorf("reading ledger: %w", err)
		}
		if seen {
			entryCount.WithLabelValues("already-published").Inc()
			continue
		}
		selected = append(selected, item)
	}
	return selected, nil
}

// Returns false (with no error) if the entry was skipped because its domain is blocked.
func (p *Publisher) publishEntry(ctx context.Context, communityID int64, item *gofeed.Item) (bool, error) {
	logger := p.Logger.With("link", item.Link)

	summaryHTML := item.Content
	if summaryHTML == "" {
		summaryHTML = item.Description
	}
	summary, err := ScrapeSummary(summaryHTML)
	if err != nil {
		return false, err
	}

	shared := summary.OriginalURL
	if shared == "" {
		shared = item.Link
	}
	if domain, err := BaseDomain(shared); err != nil {
		logger.Warn("could not determine base domain", "url", shared, "err", err)
	} else {
		blocked, err := p.Blocklist.InSet(ctx, IgnoredDomainsSet, domain)
		if err != nil {
			return false, fmt.Errorf("checking blocklist: %w", err)
		}
		if blocked {
			entryCount.WithLabelValues("blocked").Inc()
			logger.Info("skipping feed entry from ignored domain", "domain", domain)
			return false, nil
		}
	}

	title := summary.Title
	if title == "" {
		title = item.Title
		summary.Title = title
	}
	title = truncate(title, maxTitleLen)
	if title == "" {
		return false, fmt.Errorf("feed entry has no title")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return false, err
	}
	start := p.Clock.Now()
	postID, err := p.Dest.CreatePost(ctx, communityID, title, item.Link, summary.Markdown())
	publishDuration.Observe(p.Clock.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("creating post: %w", err)
	}

	if err := p.Ledger.Record(ctx, NormalizeURL(item.Link), entryTime(item)); err != nil {
		// post already exists, so only log
		logger.Error("recording published entry", "err", err)
	}
	entryCount.WithLabelValues("published").Inc()
	logger.Info("published feed entry", "post", postID, "title", title)
	return true, nil
}

func entryTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
