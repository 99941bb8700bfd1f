package util

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lemmybots/partybot/util/ssrf"
)

type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// re-writes HTTP client DEBUG to INFO level (this is where retry is logged)
func (l LeveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// Generates an HTTP client with decent general-purpose defaults around
// timeouts and retries. The returned client has the stdlib http.Client
// interface, but has Hashicorp retryablehttp logic internally.
//
// This client will retry on connection errors, 5xx status (except 501), and
// 429 Backoff requests (respecting 'Retry-After' header). It will log
// intermediate failures with WARN level. This does not start from
// http.DefaultClient.
//
// Used both for the Lemmy API client and for fetching syndication feeds.
func RobustHTTPClient() *http.Client {
	return RobustHTTPClientWithLogger(slog.Default().With("system", "http"))
}

// Same as RobustHTTPClient, with an explicit logger for retry messages.
func RobustHTTPClientWithLogger(logger *slog.Logger) *http.Client {
	return robustHTTPClient(logger, nil)
}

// Robust client which will only connect to public IP addresses on ports 80 and 443. For fetching URLs which come from outside.
func PublicOnlyHTTPClient(logger *slog.Logger) *http.Client {
	return robustHTTPClient(logger, ssrf.PublicOnlyTransport())
}

func robustHTTPClient(logger *slog.Logger, transport http.RoundTripper) *http.Client {

	retryClient := retryablehttp.NewClient()
	if transport != nil {
		retryClient.HTTPClient.Transport = transport
	}
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledSlog{logger})
	client := retryClient.StandardClient()
	client.Timeout = 20 * time.Second
	return client
}
