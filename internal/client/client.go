// the client package is used by the site handlers, the content loader and the form handler to call the content API.
//
// Every request drives the shared loading indicator and is retried when the failure is transient (a timeout or a 5xx response).
// Callers only ever see the final outcome: a *Response, or a *ClientError carrying both a user-friendly message
// and the technical detail used for logging (see errors.go).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/techstackph/techstack/internal/logger"
)

const (
	// DefaultTimeout applies to each attempt, retries get a fresh window
	DefaultTimeout = 15 * time.Second

	// DefaultRetryLimit is the number of retries after the first attempt
	DefaultRetryLimit = 2

	maxResponseSize = 10 << 20 // 10MB
)

var validMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Client handles communication with the content API
type Client struct {
	baseURL    string
	httpClient *http.Client
	indicator  Indicator
	logger     *slog.Logger
	timeout    time.Duration
	retryLimit int
	newBackOff func() backoff.BackOff
	headers    http.Header
}

type Option func(*Client)

// WithHTTPClient replaces the default http client. The per-attempt timeout is applied through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithIndicator sets the shared loading indicator
func WithIndicator(indicator Indicator) Option {
	return func(c *Client) { c.indicator = indicator }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRetryLimit(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retryLimit = n
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithBackOff sets the wait between attempts. The default is to retry immediately.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		indicator:  noopIndicator{},
		logger:     logger.Discard(),
		timeout:    DefaultTimeout,
		retryLimit: DefaultRetryLimit,
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a successful (2xx) reply from the content API
type Response struct {
	StatusCode int
	Body       json.RawMessage // nil when the response had no content
	Attempts   int
}

// Decode unmarshals the response body into v. An empty body leaves v unchanged.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

func (c *Client) Get(ctx context.Context, path string, params any) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, params)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}

// Request sends a request to the content API.
//
// GET payloads (url.Values or a string keyed map) are sent as query parameters, other methods send the body as JSON.
// The loading indicator is shown once before the first attempt and hidden once the request reaches its final outcome.
// Timeouts and 5xx responses are retried up to the retry limit, any other failure is returned immediately.
//
// Errors are always of type *ClientError.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Response, error) {
	method = strings.ToUpper(method)

	target, payload, cerr := c.prepare(method, path, body)
	if cerr != nil {
		c.logger.Error("invalid request", slog.String("method", method), slog.String("path", path), slog.String("error", cerr.Error()))
		return nil, cerr
	}

	start := time.Now()
	c.indicator.Show()
	defer c.indicator.Hide()

	var (
		resp     *Response
		attempts int
	)

	operation := func() error {
		attempts++
		attemptsTotal.Inc()

		r, err := c.attempt(ctx, method, target, payload)
		if err == nil {
			resp = r
			return nil
		}
		err.Attempts = attempts
		if err.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		var ce *ClientError
		if errors.As(err, &ce) {
			retriesTotal.WithLabelValues(string(ce.Kind)).Inc()
		}
		c.logger.Warn("request failed, retrying",
			slog.String("method", method),
			slog.String("url", target),
			slog.Int("retry", attempts),
			slog.Int("retry_limit", c.retryLimit),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retryLimit)), ctx)

	err := backoff.RetryNotify(operation, policy, notify)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err == nil {
		resp.Attempts = attempts
		requestsTotal.WithLabelValues(method, "success").Inc()
		return resp, nil
	}

	var ce *ClientError
	if !errors.As(err, &ce) {
		// the policy stops with the context error when ctx ends between attempts
		ce = NewClientCanceledError(err)
		ce.Attempts = attempts
	}
	requestsTotal.WithLabelValues(method, string(ce.Kind)).Inc()

	c.logger.Error("request failed",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", ce.StatusCode),
		slog.String("kind", string(ce.Kind)),
		slog.Int("attempts", ce.Attempts),
		slog.String("error", ce.Error()),
		slog.String("response", string(ce.Body)),
	)
	return nil, ce
}

// prepare validates the request and returns the target url and the JSON payload (nil for GET)
func (c *Client) prepare(method, path string, body any) (string, []byte, *ClientError) {
	if !validMethods[method] {
		return "", nil, NewClientInternalError(fmt.Errorf("unsupported method %q", method), "preparing request")
	}
	if path == "" {
		return "", nil, NewClientInternalError(errors.New("empty url"), "preparing request")
	}

	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}

	if method == http.MethodGet {
		params, err := queryParams(body)
		if err != nil {
			return "", nil, NewClientInternalError(err, "encoding query parameters")
		}
		if len(params) == 0 {
			return target, nil, nil
		}
		u, err := url.Parse(target)
		if err != nil {
			return "", nil, NewClientInternalError(err, "parsing url")
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil, nil
	}

	if body == nil {
		return target, nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, NewClientInternalError(err, "marshaling request body")
	}
	return target, payload, nil
}

// attempt sends the request once, with its own timeout window
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) (*Response, *ClientError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		return nil, NewClientInternalError(err, "creating request")
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, NewClientApiError(res.StatusCode, data)
	}

	trimmed := bytes.TrimSpace(data)
	if res.StatusCode == http.StatusNoContent || len(trimmed) == 0 {
		return &Response{StatusCode: res.StatusCode}, nil
	}
	if !json.Valid(trimmed) {
		return nil, NewClientParseError(res.StatusCode, data)
	}

	return &Response{StatusCode: res.StatusCode, Body: json.RawMessage(trimmed)}, nil
}

// transportError classifies errors returned before a complete response was read.
// ctx is the caller's context: when it has ended the error is a cancellation, not a timeout.
func transportError(ctx context.Context, err error) *ClientError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewClientCanceledError(ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewClientTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewClientTimeoutError(err)
	}
	return NewClientConnectionError(err)
}

func queryParams(body any) (url.Values, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case map[string]string:
		params := url.Values{}
		for key, val := range v {
			params.Set(key, val)
		}
		return params, nil
	case map[string]any:
		params := url.Values{}
		for key, val := range v {
			params.Set(key, fmt.Sprint(val))
		}
		return params, nil
	default:
		return nil, fmt.Errorf("GET payload must be url.Values or a string keyed map, got %T", body)
	}
}
