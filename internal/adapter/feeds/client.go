package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	userAgent = "resonance-continuum/1.0"

	// maxBodyBytes bounds a single feed response. The 7-day plasma product is
	// the largest at well under 2 MiB.
	maxBodyBytes = 8 << 20

	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// FetchError reports a failed feed request. Kind is KindTransport for network
// errors, timeouts and non-2xx responses, and KindEmpty for a 2xx response
// without a body.
type FetchError struct {
	Feed   string
	Kind   domain.ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d: %v", e.Feed, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Feed, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs GET requests against the upstream feeds with a per-request
// timeout and a bounded retry on transient failures.
type Client struct {
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client. retries is the number of extra attempts
// made after a transport error or 5xx response.
func NewClient(timeout time.Duration, retries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: max(retries, 0),
		backoff: initialBackoff,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch issues a GET to rawURL with params merged into its query and returns
// the response body. It never panics; every failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context, feed, rawURL string, params url.Values) ([]byte, error) {
	u, err := buildURL(rawURL, params)
	if err != nil {
		return nil, &FetchError{Feed: feed, Kind: domain.KindTransport, Err: err}
	}

	start := time.Now()
	defer func() {
		c.metrics.FeedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	}()

	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		body, err := c.get(ctx, feed, u)
		if err == nil {
			return body, nil
		}
		if attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
		c.logger.Debug("retrying feed request", "feed", feed, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, err
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (c *Client) get(ctx context.Context, feed, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Feed: feed, Kind: domain.KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Feed: feed, Kind: domain.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Feed:   feed,
			Kind:   domain.KindTransport,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream error: %s", snippet),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Feed: feed, Kind: domain.KindTransport, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) == 0 {
		return nil, &FetchError{Feed: feed, Kind: domain.KindEmpty, Status: resp.StatusCode, Err: errors.New("empty body")}
	}
	return body, nil
}

// report logs and counts the outcome of one feed fetch-and-normalize.
func (c *Client) report(feed string, err error) {
	if err == nil {
		c.metrics.FeedRequests.WithLabelValues(feed, "success").Inc()
		return
	}
	kind := KindOf(err)
	c.metrics.FeedRequests.WithLabelValues(feed, string(kind)).Inc()
	c.logger.Warn("feed unavailable, using fallback", "feed", feed, "kind", kind, "error", err)
}

// KindOf classifies a feed failure into the common error taxonomy.
func KindOf(err error) domain.ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return domain.KindOf(err)
}

// fetchNormalized fetches a feed and runs its normalizer, reporting the
// combined outcome once.
func fetchNormalized[T any](ctx context.Context, c *Client, feed, rawURL string, params url.Values, normalize func([]byte) (T, error)) (T, error) {
	var zero T
	body, err := c.Fetch(ctx, feed, rawURL, params)
	if err != nil {
		c.report(feed, err)
		return zero, err
	}
	v, err := normalize(body)
	c.report(feed, err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

func buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func retryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == domain.KindTransport && (fe.Status == 0 || fe.Status >= 500)
}
