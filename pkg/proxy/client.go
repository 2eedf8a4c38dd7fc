// Package proxy is the single outbound HTTP client used by every adapter.
//
// A [Client] is bound to one [env.Profile]. [Client.Request] resolves a
// logical endpoint name through the profile, fills {placeholders} from the
// request parameters and performs the call against BaseURL + path.
//
// The client does not implement fallback. Failures come back as:
//
//   - UNKNOWN_ENDPOINT: the profile does not define the endpoint
//   - INVALID_INPUT: a path placeholder has no value
//   - TRANSPORT_ERROR: network failure, timeout or non-2xx status
//
// Adapters decide what to do with them.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dealprep/pkg/buildinfo"
	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/httputil"
	"github.com/matzehuels/dealprep/pkg/observability"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Params are the per-request inputs to [Client.Request].
type Params struct {
	Path    map[string]string // values for {name} placeholders in the endpoint path
	Query   url.Values        // appended as the query string
	Body    any               // JSON-encoded request body, nil for none
	Headers map[string]string // merged over the client's default headers
}

// Response is a fully read upstream response with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the body into v. A body that is not valid JSON for v
// yields a MALFORMED_RESPONSE error.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errs.Wrap(errs.ErrCodeMalformedResponse, err, "decode response body")
	}
	return nil
}

// Options configure a [Client].
type Options struct {
	// HTTPClient performs the calls. Defaults to a client without a timeout.
	HTTPClient *http.Client

	// Timeout, when positive, bounds each attempt.
	Timeout time.Duration

	// Attempts is the number of tries for transient failures (network,
	// 5xx, 429). Values below 1 mean a single attempt.
	Attempts int

	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration

	// Headers are sent with every request.
	Headers map[string]string

	// HTTPHooks receives request events. Nil selects the process-wide
	// hooks registered with observability.
	HTTPHooks observability.HTTPHooks

	Logger *log.Logger
}

// Client performs requests against one environment profile.
// It is safe for concurrent use.
type Client struct {
	profile    *env.Profile
	http       *http.Client
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	headers    map[string]string
	hooks      observability.HTTPHooks
	logger     *log.Logger
}

// NewClient binds a client to profile.
func NewClient(profile *env.Profile, opts Options) *Client {
	c := &Client{
		profile:    profile,
		http:       opts.HTTPClient,
		timeout:    opts.Timeout,
		attempts:   max(opts.Attempts, 1),
		retryDelay: opts.RetryDelay,
		headers:    opts.Headers,
		hooks:      opts.HTTPHooks,
		logger:     opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.retryDelay <= 0 {
		c.retryDelay = httputil.DefaultRetryDelay
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Profile returns the profile the client is bound to.
func (c *Client) Profile() *env.Profile { return c.profile }

// Request resolves endpoint through the bound profile and performs the call.
// Only 2xx responses are returned; everything else is a TRANSPORT_ERROR.
func (c *Client) Request(ctx context.Context, method, endpoint string, params Params) (*Response, error) {
	target, err := c.URL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var body []byte
	if params.Body != nil {
		if body, err = json.Marshal(params.Body); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "encode request body")
		}
	}

	var resp *Response
	err = httputil.Retry(ctx, c.attempts, c.retryDelay, func() error {
		var err error
		resp, err = c.do(ctx, method, target, body, params.Headers)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// URL builds the absolute URL for endpoint without performing a request.
func (c *Client) URL(endpoint string, params Params) (*url.URL, error) {
	path, ok := c.profile.Path(endpoint)
	if !ok {
		return nil, errs.New(errs.ErrCodeUnknownEndpoint,
			"endpoint %q is not defined in the %s profile", endpoint, c.profile.Name)
	}

	var missing string
	path = placeholderRE.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params.Path[name]
		if !ok || v == "" {
			missing = name
			return m
		}
		return url.PathEscape(v)
	})
	if missing != "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "endpoint %q requires a value for {%s}", endpoint, missing)
	}

	u, err := url.Parse(c.profile.BaseURL + path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeConfiguration, err, "invalid base URL %q", c.profile.BaseURL)
	}
	if len(params.Query) > 0 {
		u.RawQuery = params.Query.Encode()
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body []byte, headers map[string]string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := c.hooks
	if hooks == nil {
		hooks = observability.HTTP()
	}
	hooks.OnRequest(ctx, method, target.Host, target.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, target.Host, target.Path, err)
		c.logger.Debug("upstream request failed", "method", method, "path", target.Path, "err", err)
		return nil, httputil.Retryable(errs.Wrap(errs.ErrCodeTransport, err, "%s %s", method, target.Path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	hooks.OnResponse(ctx, method, target.Host, target.Path, resp.StatusCode, elapsed)
	c.logger.Debug("upstream response", "method", method, "path", target.Path,
		"status", resp.StatusCode, "duration", elapsed.Round(time.Millisecond))

	if err != nil {
		return nil, httputil.Retryable(errs.Wrap(errs.ErrCodeTransport, err, "read %s body", target.Path))
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return httputil.Retryable(errs.Wrap(errs.ErrCodeTransport,
			errs.Wrap(errs.ErrCodeRateLimited, &errs.RateLimitedError{RetryAfter: retryAfter}, "upstream"),
			"status %d", code))
	case code >= 500:
		return httputil.Retryable(errs.New(errs.ErrCodeTransport, "status %d", code))
	default:
		return errs.New(errs.ErrCodeTransport, "status %d", code)
	}
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("proxy(%s %s)", c.profile.Name, c.profile.BaseURL)
}
