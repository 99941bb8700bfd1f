package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/lemmybots/partybot/util"
	"golang.org/x/time/rate"
)

type Client struct {
	// Client is an HTTP client to use. If not set, defaults to util.RobustHTTPClient().
	Client *http.Client
	// Instance base URL, eg "https://lemmy.ca". No trailing "/api/v3".
	Host      string
	Auth      *AuthInfo
	UserAgent *string
	Headers   map[string]string
	// Optional client-side request rate limit, shared by all calls on this client
	Limiter *rate.Limiter
}

func (c *Client) getClient() *http.Client {
	if c.Client == nil {
		return util.RobustHTTPClient()
	}
	return c.Client
}

type RequestType int

const (
	Query = RequestType(iota)
	Procedure
)

type AuthInfo struct {
	JWT      string `json:"jwt"`
	Username string `json:"username"`
}

// Error body returned by the Lemmy API on non-200 responses.
type APIError struct {
	ErrStr  string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (ae *APIError) Error() string {
	if ae.Message == "" {
		return ae.ErrStr
	}
	return fmt.Sprintf("%s: %s", ae.ErrStr, ae.Message)
}

type Error struct {
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("lemmy API error %d", e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests && e.Ratelimit != nil {
		return fmt.Sprintf("lemmy API error %d: %s (throttled until %s)", e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("lemmy API error %d: %s", e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	if e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

func (e *Error) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// API error strings which indicate the subject doesn't exist (any more). Lemmy reports most of these as HTTP 400.
var notFoundErrors = map[string]bool{
	"couldnt_find_post":      true,
	"couldnt_find_comment":   true,
	"couldnt_find_community": true,
	"couldnt_find_person":    true,
	"post_deleted":           true,
	"deleted":                true,
}

// IsNotFound reports whether err is an API response saying the subject does not exist or was already deleted.
func IsNotFound(err error) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	if le.StatusCode == http.StatusNotFound {
		return true
	}
	var ae *APIError
	if errors.As(le.Wrapped, &ae) {
		return notFoundErrors[ae.ErrStr]
	}
	return false
}

func errorFromHTTPResponse(resp *http.Response, err error) error {
	r := &Error{
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if resp.Header.Get("ratelimit-limit") != "" || resp.Header.Get("retry-after") != "" {
		r.Ratelimit = &RatelimitInfo{
			Policy: resp.Header.Get("ratelimit-policy"),
		}
		if n, err := strconv.ParseInt(resp.Header.Get("ratelimit-reset"), 10, 64); err == nil {
			r.Ratelimit.Reset = time.Unix(n, 0)
		} else if n, err := strconv.ParseInt(resp.Header.Get("retry-after"), 10, 64); err == nil {
			r.Ratelimit.Reset = time.Now().Add(time.Duration(n) * time.Second)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("ratelimit-limit"), 10, 64); err == nil {
			r.Ratelimit.Limit = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("ratelimit-remaining"), 10, 64); err == nil {
			r.Ratelimit.Remaining = int(n)
		}
	}
	return r
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Policy    string
	Reset     time.Time
}

// makeParams converts a map of string keys and any values into a URL-encoded string.
// If a value is a slice of strings, it will be repeated for each element.
func makeParams(p map[string]any) string {
	params := url.Values{}
	for k, v := range p {
		if s, ok := v.([]string); ok {
			for _, v := range s {
				params.Add(k, v)
			}
		} else {
			params.Add(k, fmt.Sprint(v))
		}
	}

	return params.Encode()
}

// Do performs a single API call. "path" is relative to "/api/v3/", eg "post/list".
//
// Query requests are sent as GET with "params" in the query string; Procedure requests are sent as POST with "bodyobj" JSON-encoded. The response is JSON-decoded in to "out" if it is non-nil.
func (c *Client) Do(ctx context.Context, kind RequestType, path string, params map[string]any, bodyobj any, out any) error {
	var body io.Reader
	if bodyobj != nil {
		b, err := json.Marshal(bodyobj)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	var m string
	switch kind {
	case Query:
		m = http.MethodGet
	case Procedure:
		m = http.MethodPost
	default:
		return fmt.Errorf("unsupported request kind: %d", kind)
	}

	var paramStr string
	if len(params) > 0 {
		paramStr = "?" + makeParams(params)
	}

	uri := strings.TrimSuffix(c.Host, "/") + "/api/v3/" + path + paramStr

	req, err := http.NewRequestWithContext(ctx, m, uri, body)
	if err != nil {
		return err
	}

	if bodyobj != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != nil {
		req.Header.Set("User-Agent", *c.UserAgent)
	} else {
		req.Header.Set("User-Agent", "partybot/"+versioninfo.Short())
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	if c.Auth != nil && c.Auth.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.Auth.JWT)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := c.getClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae APIError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil {
			return errorFromHTTPResponse(resp, fmt.Errorf("failed to decode API error message: %w", err))
		}
		if ae.ErrStr == "" {
			return errorFromHTTPResponse(resp, nil)
		}
		return errorFromHTTPResponse(resp, &ae)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding API response: %w", err)
		}
	}

	return nil
}
