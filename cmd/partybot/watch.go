package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	cli "github.com/urfave/cli/v2"

	"github.com/lemmybots/partybot/votemod"
	"github.com/lemmybots/partybot/votemod/countstore"
	"github.com/lemmybots/partybot/votemod/namecache"
	"github.com/lemmybots/partybot/votemod/tallystore"
)

var watchCmd = &cli.Command{
	Name:  "watch",
	Usage: "scan recent posts for deletion requests, and act on them",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "identity",
			Usage:   "mention which prefixes the trigger phrase",
			Value:   "@partybot",
			EnvVars: []string{"PARTYBOT_IDENTITY"},
		},
		&cli.IntFlag{
			Name:    "threshold",
			Usage:   "number of distinct members required to delete a post",
			Value:   3,
			EnvVars: []string{"PARTYBOT_THRESHOLD"},
		},
		&cli.DurationFlag{
			Name:    "cooldown",
			Usage:   "how long a member's request counts, and during which repeats are duplicates",
			Value:   time.Hour,
			EnvVars: []string{"PARTYBOT_COOLDOWN"},
		},
		&cli.IntFlag{
			Name:    "post-limit",
			Usage:   "number of most recent posts examined each cycle",
			Value:   10,
			EnvVars: []string{"PARTYBOT_POST_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "delete-quota",
			Usage:   "max post deletions per day (0 for no limit)",
			Value:   10,
			EnvVars: []string{"PARTYBOT_DELETE_QUOTA"},
		},
		&cli.BoolFlag{
			Name:    "readonly",
			Usage:   "log decisions without replying or deleting",
			EnvVars: []string{"PARTYBOT_READONLY", "READONLY"},
		},
		&cli.StringFlag{
			Name:    "config-file",
			Usage:   "JSON file with overrides (threshold, cooldownSeconds, watchedIdentity, communityName)",
			EnvVars: []string{"PARTYBOT_CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL, for tally, consumed-comment, and counter state shared across restarts",
			EnvVars: []string{"PARTYBOT_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook, notified on deletions",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.DurationFlag{
			Name:    "interval",
			Usage:   "run cycles repeatedly with this period, instead of once",
			EnvVars: []string{"PARTYBOT_INTERVAL"},
		},
	},
	Action: runWatch,
}

func watchConfig(cctx *cli.Context) (votemod.Config, error) {
	cfg := votemod.DefaultConfig()
	if p := cctx.String("config-file"); p != "" {
		o, err := votemod.LoadOverridesFile(p)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.Apply(*o)
	}
	// explicitly set flags win over the config file
	if cctx.IsSet("threshold") || cctx.String("config-file") == "" {
		cfg.Threshold = cctx.Int("threshold")
	}
	if cctx.IsSet("cooldown") || cctx.String("config-file") == "" {
		cfg.Cooldown = cctx.Duration("cooldown")
	}
	if cctx.IsSet("identity") || cctx.String("config-file") == "" {
		cfg.WatchedIdentity = cctx.String("identity")
	}
	if cctx.IsSet("community") || cctx.String("config-file") == "" {
		cfg.CommunityName = cctx.String("community")
	}
	cfg.PostLimit = cctx.Int("post-limit")
	cfg.DeleteQuotaDay = cctx.Int("delete-quota")
	cfg.ReadOnly = cctx.Bool("readonly")
	return cfg, cfg.Validate()
}

func runWatch(cctx *cli.Context) error {
	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}
	shutdownOTEL, err := configOTEL("partybot")
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	defer shutdownOTEL()
	startMetrics(cctx, logger)

	cfg, err := watchConfig(cctx)
	if err != nil {
		return err
	}

	client, err := configLemmyClient(cctx, logger)
	if err != nil {
		return err
	}
	platform := &votemod.LemmyPlatform{
		Client:   client,
		Username: cctx.String("username"),
		Password: cctx.String("password"),
	}

	clock := clockwork.NewRealClock()
	var tallies tallystore.TallyStore
	var counters countstore.CountStore
	var names namecache.NameCache
	if redisURL := cctx.String("redis-url"); redisURL != "" {
		rts, err := tallystore.NewRedisTallyStore(redisURL, cfg.Cooldown, clock)
		if err != nil {
			return fmt.Errorf("failed to initialize redis tally store: %w", err)
		}
		rcs, err := countstore.NewRedisCountStore(redisURL, clock)
		if err != nil {
			return fmt.Errorf("failed to initialize redis count store: %w", err)
		}
		rnames, err := namecache.NewRedisNameCache(redisURL, 6*time.Hour)
		if err != nil {
			return fmt.Errorf("failed to initialize redis name cache: %w", err)
		}
		tallies, counters, names = rts, rcs, rnames
	} else {
		tallies = tallystore.NewMemTallyStore(cfg.Cooldown, clock)
		counters = countstore.NewMemCountStore(clock)
		names = namecache.NewMemNameCache(10_000, 6*time.Hour)
	}

	eng, err := votemod.NewEngine(cfg, logger, platform, tallies, counters, names, clock)
	if err != nil {
		return err
	}
	if webhook := cctx.String("slack-webhook-url"); webhook != "" {
		eng.Notifier = &votemod.SlackNotifier{
			SlackWebhookURL: webhook,
			Host:            cctx.String("lemmy-host"),
		}
	}

	logger.Info("starting watch", "community", cfg.CommunityName, "trigger", cfg.TriggerPhrase(), "threshold", cfg.Threshold, "cooldown", cfg.Cooldown, "readonly", cfg.ReadOnly)

	interval := cctx.Duration("interval")
	if interval <= 0 {
		_, err := eng.RunCycle(context.Background())
		return err
	}
	return runWatchLoop(eng, logger, interval)
}

// Runs cycles back to back, one per interval, until interrupted. An authentication failure stops the loop.
func runWatchLoop(eng *votemod.Engine, logger *slog.Logger, interval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := eng.RunCycle(ctx); err != nil {
			return err
		}
		select {
		case sig := <-signals:
			logger.Info("received shutdown signal", "signal", sig)
			return nil
		case <-ticker.C:
		}
	}
}
