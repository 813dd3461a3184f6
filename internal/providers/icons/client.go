package icons

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ErrTooLarge is returned when a response exceeds the byte cap
var ErrTooLarge = errors.New("response too large")

// StatusError reports a non-success HTTP status
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Client wraps resty with a byte cap, bounded retries and rate limiting
type Client struct {
	Resty    *resty.Client
	Limiter  *rate.Limiter
	MaxBytes int64
}

// Response is a fully read HTTP response
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// NewClient creates the HTTP client used for page and icon downloads.
// Connection errors and 5xx responses are retried by the transport; the
// timeout bounds each request including its retries.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetResponseBodyLimit(int(opts.MaxBytes)).
		SetHeader("User-Agent", opts.UserAgent)
	restyClient.SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}

	return &Client{
		Resty:    restyClient,
		Limiter:  limiter,
		MaxBytes: opts.MaxBytes,
	}
}

// Get fetches url and returns the whole body. Non-success statuses return a
// *StatusError together with the response.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	resp, err := c.Resty.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("GET %s: %w", url, ErrTooLarge)
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	if raw := resp.RawResponse; raw != nil && c.MaxBytes > 0 && raw.ContentLength > c.MaxBytes {
		return nil, fmt.Errorf("GET %s: content length %d: %w", url, raw.ContentLength, ErrTooLarge)
	}

	body := resp.Body()
	if c.MaxBytes > 0 && int64(len(body)) > c.MaxBytes {
		return nil, fmt.Errorf("GET %s: %w", url, ErrTooLarge)
	}

	out := &Response{
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        body,
	}
	if !resp.IsSuccess() {
		return out, &StatusError{URL: url, Status: out.Status}
	}
	return out, nil
}
