package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	errs "energystats/pkg/errors"
	"energystats/pkg/logger"
	"energystats/pkg/ratelimit"
	"energystats/pkg/retry"
)

// DefaultTimeout is used when Options.Timeout is zero
const DefaultTimeout = 30 * time.Second

// Authorizer adds credentials to an outgoing request
type Authorizer func(req *http.Request)

// BasicAuth returns an Authorizer setting HTTP basic auth credentials
func BasicAuth(username, password string) Authorizer {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

// Options configures a Client
type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	Authorize Authorizer
	Limiter   ratelimit.Limiter
	Retry     *retry.Config
	Headers   map[string]string
	Logger    logger.Logger
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs rate limited, retried GET requests against a vendor API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	authorize  Authorizer
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// New creates a client from opts, filling defaults for anything unset
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
		retryCfg.Logger = log
	}

	headers := map[string]string{
		"User-Agent": "energystats/1.0",
		"Accept":     "application/json",
	}
	for key, value := range opts.Headers {
		headers[key] = value
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		headers:   headers,
		authorize: opts.Authorize,
		limiter:   limiter,
		retry:     retryCfg,
		logger:    log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Get performs a GET request, retrying transient failures. Responses with a
// status of 400 or above are returned as typed errors.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (*Response, error) {
		return c.get(ctx, url)
	}, c.retry)
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		bodyPreview := string(resp.Body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInvalidArgument, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// checkResponseStatus maps an error status to a typed error
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var message string
	switch errType := errs.TypeForStatus(resp.StatusCode); errType {
	case errs.ErrorTypeAuth:
		message = "authentication failed"
	case errs.ErrorTypeNotFound:
		message = "resource not found"
	case errs.ErrorTypeRateLimit:
		message = "rate limit exceeded"
	case errs.ErrorTypeServerError:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	return &errs.Error{
		Type:       errs.TypeForStatus(resp.StatusCode),
		Message:    message,
		Code:       resp.StatusCode,
		RetryAfter: retryAfter(resp, time.Now()),
	}
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
