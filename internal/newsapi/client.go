// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package newsapi is a client for the NewsAPI headline and search endpoints.
//
// Every call is independent: a *Client holds only immutable configuration and
// may be shared across goroutines. Each call makes one or more HTTP attempts.
// Transport failures and 5xx responses are retried with exponential backoff
// (500 ms doubling, capped at 4 s); 4xx responses are not. The timeout applies
// per attempt, so the worst-case wall time of a call is
//
//	timeout*(maxRetries+1) + sum of backoff delays
//
// which is 31.5 s with the defaults (see Client.WorstCaseDuration).
package newsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/newsclient/internal/events"
	"github.com/pdiddy/newsclient/internal/httputil"
	"github.com/pdiddy/newsclient/pkg/types"
)

const (
	// DefaultBaseURL is the provider's documented endpoint.
	DefaultBaseURL = "https://newsapi.org/v2"

	// DefaultTimeout bounds one attempt.
	DefaultTimeout = 10 * time.Second

	DefaultRegion   = "us"
	DefaultPage     = 1
	DefaultPageSize = 20

	// MaxPageSize is the largest page the provider serves.
	MaxPageSize = 100

	// maxBodySize caps how much of a response body is read.
	maxBodySize = int64(10 * 1024 * 1024)

	defaultUserAgent = "newsclient/dev"

	opTopHeadlines = "top-headlines"
	opSearch       = "everything"
)

// Client calls the provider on behalf of one credential.
type Client struct {
	apiKey       string
	baseURL      *url.URL
	httpClient   *http.Client
	timeout      time.Duration
	policy       httputil.Policy
	sink         events.Sink
	userAgent    string
	newRequestID func() string
}

// Option customizes a Client at construction.
type Option func(*Client) error

// WithBaseURL points the client at a different endpoint (e.g. a test server).
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(strings.TrimRight(raw, "/"))
		if err != nil {
			return configError("invalid base URL: %v", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return configError("base URL %q must be an absolute http(s) URL", raw)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return configError("base URL %q must not carry a query or fragment", raw)
		}
		if u.Path == "" {
			u.Path = "/"
		}
		c.baseURL = u
		return nil
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return configError("timeout must be positive, got %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithMaxRetries sets how many retries follow the first attempt. Zero
// disables retrying.
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return configError("max retries must not be negative, got %d", n)
		}
		c.policy.MaxRetries = n
		return nil
	}
}

// WithBackoff overrides the backoff schedule.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) error {
		if base <= 0 || maxDelay < base {
			return configError("invalid backoff: base %v, max %v", base, maxDelay)
		}
		c.policy.BaseDelay = base
		c.policy.MaxDelay = maxDelay
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its own Timeout, if any,
// still applies on top of the per-attempt timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return configError("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithSink sets the diagnostic event sink.
func WithSink(s events.Sink) Option {
	return func(c *Client) error {
		if s == nil {
			return configError("event sink must not be nil")
		}
		c.sink = s
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if ua != "" {
			c.userAgent = ua
		}
		return nil
	}
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf(format, args...)}
}

// ValidateCredential reports a KindConfig error when apiKey is empty or blank.
func ValidateCredential(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return configError("missing API key")
	}
	return nil
}

// New returns a client for apiKey. There is no fallback credential: an empty
// key fails with ErrConfig.
func New(apiKey string, opts ...Option) (*Client, error) {
	if err := ValidateCredential(apiKey); err != nil {
		return nil, err
	}

	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      base,
		httpClient:   &http.Client{},
		timeout:      DefaultTimeout,
		policy:       httputil.DefaultPolicy(),
		sink:         events.Discard,
		userAgent:    defaultUserAgent,
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewFromConfig builds a client from CLI settings. Zero BaseURL and Timeout
// select the defaults; MaxRetries is used as given. opts apply after cfg.
func NewFromConfig(cfg types.ClientConfig, opts ...Option) (*Client, error) {
	var fromCfg []Option
	if cfg.BaseURL != "" {
		fromCfg = append(fromCfg, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout != 0 {
		fromCfg = append(fromCfg, WithTimeout(cfg.Timeout))
	}
	fromCfg = append(fromCfg, WithMaxRetries(cfg.MaxRetries), WithUserAgent(cfg.UserAgent))
	return New(cfg.APIKey, append(fromCfg, opts...)...)
}

// WorstCaseDuration is the longest a single call can take before returning,
// assuming every attempt runs into the per-attempt timeout.
func (c *Client) WorstCaseDuration() time.Duration {
	return c.policy.WorstCase(c.timeout)
}

// TopHeadlines lists current headlines for a two-letter region code. An empty
// region means "us". Unknown codes are sent as-is and the provider's
// rejection is returned.
func (c *Client) TopHeadlines(ctx context.Context, region string) (types.SearchResult, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	params := url.Values{"country": {region}}
	return c.get(ctx, opTopHeadlines, params)
}

// Search returns one page of articles matching query. Zero page and pageSize
// select 1 and 20. The client never fetches further pages on its own; use
// SearchResult.HasMore to decide whether to ask for the next one.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.SearchResult{}, &Error{Kind: KindInvalidArgument, Op: opSearch, Msg: "query is empty"}
	}
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return types.SearchResult{}, &Error{Kind: KindInvalidArgument, Op: opSearch, Msg: fmt.Sprintf("page must be >= 1, got %d", page)}
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return types.SearchResult{}, &Error{Kind: KindInvalidArgument, Op: opSearch,
			Msg: fmt.Sprintf("page size must be between 1 and %d, got %d", MaxPageSize, pageSize)}
	}

	params := url.Values{
		"q":        {query},
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	return c.get(ctx, opSearch, params)
}

// get runs the retry loop for one call against endpoint.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (types.SearchResult, error) {
	u := c.baseURL.JoinPath(endpoint)
	params.Set("apiKey", c.apiKey)
	u.RawQuery = params.Encode()

	requestID := c.newRequestID()

	var result types.SearchResult
	attempts, err := httputil.DoWithRetry(ctx, c.policy, func(ctx context.Context, n int) error {
		res, err := c.attempt(ctx, u, requestID, n)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err == nil {
		return result, nil
	}

	var e *Error
	if !errors.As(err, &e) {
		// Cancelled while waiting to retry.
		e = &Error{Kind: KindCancelled, Err: err}
	}
	e.Op = endpoint
	e.Attempts = attempts
	return types.SearchResult{}, e
}

// attempt makes one HTTP request and classifies the outcome. Retryable
// failures come back wrapped with httputil.Retryable.
func (c *Client) attempt(ctx context.Context, u *url.URL, requestID string, n int) (types.SearchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	ev := events.Event{RequestID: requestID, Method: http.MethodGet, Path: u.Path, Attempt: n}
	emit := func(outcome events.Outcome, status int) {
		ev.Outcome = outcome
		ev.StatusCode = status
		ev.LatencyMs = time.Since(start).Milliseconds()
		c.sink.Log(ev)
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.SearchResult{}, &Error{Kind: KindConfig, Msg: "building request", Err: redact(err, c.apiKey)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.SearchResult{}, c.transportFailure(ctx, err, 0, emit)
	}
	defer resp.Body.Close()

	// A 4xx is final whatever happens to its body; keep whatever bytes arrived.
	status := resp.StatusCode
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if status >= 400 && status < 500 {
		emit(events.OutcomeRejected, status)
		code, msg := parseErrorBody(body)
		return types.SearchResult{}, &Error{
			Kind: KindRequestRejected, StatusCode: status, ProviderCode: code, ProviderMessage: msg,
		}
	}
	if readErr != nil {
		return types.SearchResult{}, c.transportFailure(ctx, readErr, status, emit)
	}

	switch {
	case status >= 500:
		emit(events.OutcomeServerError, status)
		code, msg := parseErrorBody(body)
		return types.SearchResult{}, httputil.Retryable(&Error{
			Kind: KindProviderUnavailable, StatusCode: status, ProviderCode: code, ProviderMessage: msg,
		})
	case status != http.StatusOK:
		emit(events.OutcomeMalformed, status)
		return types.SearchResult{}, &Error{Kind: KindResponseMalformed, StatusCode: status, Msg: "unexpected status"}
	}

	if int64(len(body)) > maxBodySize {
		emit(events.OutcomeMalformed, status)
		return types.SearchResult{}, &Error{Kind: KindResponseMalformed, StatusCode: status,
			Msg: fmt.Sprintf("body exceeds %d bytes", maxBodySize)}
	}

	result, err := parseResult(body)
	if err != nil {
		var rb *rejectedBody
		if errors.As(err, &rb) {
			emit(events.OutcomeRejected, status)
			return types.SearchResult{}, &Error{
				Kind: KindRequestRejected, StatusCode: status, ProviderCode: rb.code, ProviderMessage: rb.message,
			}
		}
		emit(events.OutcomeMalformed, status)
		return types.SearchResult{}, &Error{Kind: KindResponseMalformed, StatusCode: status, Err: err}
	}

	if result.Status == types.StatusPartial {
		emit(events.OutcomePartial, status)
	} else {
		emit(events.OutcomeOK, status)
	}
	return result, nil
}

// transportFailure classifies a failed round trip. A cancelled caller context
// is final; anything else, including the per-attempt timeout, is retryable.
func (c *Client) transportFailure(ctx context.Context, err error, status int, emit func(events.Outcome, int)) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		emit(events.OutcomeCancelled, status)
		return &Error{Kind: KindCancelled, StatusCode: status, Err: ctxErr}
	}

	outcome := events.OutcomeTransportError
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = events.OutcomeTimeout
	}
	emit(outcome, status)
	return httputil.Retryable(&Error{Kind: KindProviderUnavailable, StatusCode: status, Err: redact(err, c.apiKey)})
}
