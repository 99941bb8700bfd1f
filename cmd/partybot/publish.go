package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	cli "github.com/urfave/cli/v2"

	"github.com/lemmybots/partybot/feedpub"
	"github.com/lemmybots/partybot/feedpub/ledger"
	"github.com/lemmybots/partybot/feedpub/setstore"
	"github.com/lemmybots/partybot/util"
	"github.com/lemmybots/partybot/util/cliutil"
)

var publishCmd = &cli.Command{
	Name:  "publish",
	Usage: "republish recent entries from a feed in to the community",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "feed-url",
			Usage:   "RSS or Atom feed to republish from",
			Value:   "https://www.reddit.com/r/todayilearned/new/.rss",
			EnvVars: []string{"PARTYBOT_FEED_URL"},
		},
		&cli.DurationFlag{
			Name:    "retention",
			Usage:   "entries older than this are skipped, and forgotten by the ledger",
			Value:   feedpub.DefaultConfig().Retention,
			EnvVars: []string{"PARTYBOT_FEED_RETENTION"},
		},
		&cli.IntFlag{
			Name:    "max-entries",
			Usage:   "max number of entries published per run",
			Value:   feedpub.DefaultConfig().MaxEntries,
			EnvVars: []string{"PARTYBOT_FEED_MAX_ENTRIES"},
		},
		&cli.DurationFlag{
			Name:    "spacing",
			Usage:   "minimum time between created posts",
			Value:   feedpub.DefaultConfig().Spacing,
			EnvVars: []string{"PARTYBOT_FEED_SPACING"},
		},
		&cli.StringFlag{
			Name:    "ledger-file",
			Usage:   "JSON file recording published entries",
			Value:   "published_urls.json",
			EnvVars: []string{"PARTYBOT_LEDGER_FILE"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database for recording published entries, instead of the ledger file (sqlite:// or postgres://)",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   4,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "ignored-domains-file",
			Usage:   "text file of blocked domains, one per line",
			Value:   "ignored.txt",
			EnvVars: []string{"PARTYBOT_IGNORED_DOMAINS_FILE"},
		},
		&cli.BoolFlag{
			Name:    "feed-public-only",
			Usage:   "only fetch the feed from public IP addresses, on ports 80 and 443",
			Value:   true,
			EnvVars: []string{"PARTYBOT_FEED_PUBLIC_ONLY"},
		},
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "optional JSON file of named sets; an \"ignored-domains\" set is merged with the text file",
			EnvVars: []string{"PARTYBOT_SETS_JSON_PATH"},
		},
	},
	Action: runPublish,
}

func runPublish(cctx *cli.Context) error {
	ctx := context.Background()
	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}
	shutdownOTEL, err := configOTEL("partybot")
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	defer shutdownOTEL()

	cfg := feedpub.Config{
		FeedURL:       cctx.String("feed-url"),
		CommunityName: cctx.String("community"),
		Retention:     cctx.Duration("retention"),
		MaxEntries:    cctx.Int("max-entries"),
		Spacing:       cctx.Duration("spacing"),
	}

	client, err := configLemmyClient(cctx, logger)
	if err != nil {
		return err
	}
	dest := &feedpub.LemmyDestination{
		Client:   client,
		Username: cctx.String("username"),
		Password: cctx.String("password"),
	}

	blocklist := setstore.NewMemSetStore()
	if p := cctx.String("sets-json-path"); p != "" {
		if err := blocklist.LoadFromFileJSON(p); err != nil {
			return fmt.Errorf("loading sets file: %w", err)
		}
	}
	if p := cctx.String("ignored-domains-file"); p != "" {
		if err := blocklist.LoadFromFileText(feedpub.IgnoredDomainsSet, p); err != nil {
			return fmt.Errorf("loading ignored domains: %w", err)
		}
	}

	var ldg ledger.Ledger
	if dburl := cctx.String("database-url"); dburl != "" {
		db, err := cliutil.SetupDatabase(dburl, cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		ldg, err = ledger.NewSQLLedger(db)
		if err != nil {
			return err
		}
	} else {
		ldg, err = ledger.LoadFileLedger(cctx.String("ledger-file"))
		if err != nil {
			return err
		}
	}

	httpc := util.RobustHTTPClientWithLogger(logger.With("system", "feed-http"))
	if cctx.Bool("feed-public-only") {
		httpc = util.PublicOnlyHTTPClient(logger.With("system", "feed-http"))
	}
	pub, err := feedpub.NewPublisher(cfg, logger, dest, ldg, blocklist, httpc, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	_, err = pub.Run(ctx)
	return err
}
