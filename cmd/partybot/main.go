package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lemmybots/partybot/lemmy"
	"github.com/lemmybots/partybot/util"
	"github.com/lemmybots/partybot/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "partybot",
		Usage:   "community moderation and feed bot for Lemmy",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "lemmy-host",
			Usage:   "method, hostname, and port of Lemmy instance",
			Value:   "https://lemmy.ca",
			EnvVars: []string{"LEMMY_HOST"},
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "bot account username",
			EnvVars: []string{"LEMMY_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "bot account password",
			EnvVars: []string{"LEMMY_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "community",
			Usage:   "name of community to watch and publish in to",
			Value:   "botland",
			EnvVars: []string{"PARTYBOT_COMMUNITY"},
		},
		&cli.Float64Flag{
			Name:    "lemmy-rate-limit",
			Usage:   "max number of requests per second to the Lemmy instance",
			Value:   5,
			EnvVars: []string{"PARTYBOT_LEMMY_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"PARTYBOT_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format (json or text)",
			EnvVars: []string{"PARTYBOT_LOG_FMT", "LOG_FMT"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs (disabled if empty)",
			EnvVars: []string{"PARTYBOT_METRICS_LISTEN"},
		},
	}

	app.Commands = []*cli.Command{
		watchCmd,
		publishCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cctx.String("log-level"),
		LogFormat: cctx.String("log-format"),
	})
}

// Lemmy API client for the configured instance. Requests are retried, rate-limited, and traced.
func configLemmyClient(cctx *cli.Context, logger *slog.Logger) (*lemmy.Client, error) {
	if cctx.String("username") == "" || cctx.String("password") == "" {
		return nil, fmt.Errorf("credentials required: set LEMMY_USERNAME and LEMMY_PASSWORD")
	}
	httpc := util.RobustHTTPClientWithLogger(logger.With("system", "http"))
	httpc.Transport = otelhttp.NewTransport(httpc.Transport)

	c := &lemmy.Client{
		Client: httpc,
		Host:   cctx.String("lemmy-host"),
	}
	if lim := cctx.Float64("lemmy-rate-limit"); lim > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(lim), 1)
	}
	return c, nil
}

func startMetrics(cctx *cli.Context, logger *slog.Logger) {
	listen := cctx.String("metrics-listen")
	if listen == "" {
		return
	}
	go func() {
		if err := runMetrics(listen); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start metrics endpoint", "err", err)
		}
	}()
}
