package footballdata

import (
	"context"
	"crypto/md5"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/valyala/bytebufferpool"

	"github.com/arkadyv/solkoff-board/internal/domain/apicache"
	"github.com/arkadyv/solkoff-board/internal/platform/logging"
	"github.com/arkadyv/solkoff-board/internal/platform/resilience"
	"github.com/arkadyv/solkoff-board/internal/usecase"
)

const (
	defaultBaseURL            = "https://api.football-data.org/v4"
	defaultTimeout            = 15 * time.Second
	defaultMaxRetries         = 3
	defaultCacheTTL           = time.Hour
	defaultMinRequestInterval = 100 * time.Millisecond
	maxBodyBytes              = 6 << 20
	rateLimitBaseBackoff      = time.Second
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	// MaxRetries counts retries after the first attempt, 429 only.
	MaxRetries         int
	CacheTTL           time.Duration
	MinRequestInterval time.Duration
	Cache              apicache.Store
	Clock              clockwork.Clock
	Logger             *logging.Logger
}

// Client is the football-data.org v4 client. Every fetch is cache-first:
// a fresh cache entry is returned without touching the throttle gate or
// the network. Concurrent misses for the same URL collapse into a single
// upstream request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	cacheTTL   time.Duration
	cache      apicache.Store
	clock      clockwork.Clock
	throttle   *resilience.ThrottleGate
	flight     resilience.SingleFlight
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	minInterval := cfg.MinRequestInterval
	if minInterval < 0 {
		minInterval = defaultMinRequestInterval
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: maxRetries,
		cacheTTL:   cacheTTL,
		cache:      cfg.Cache,
		clock:      clock,
		throttle:   resilience.NewThrottleGate(minInterval, clock),
		logger:     logger,
	}
}

func (c *Client) FetchMatches(ctx context.Context, competitionID string) ([]usecase.ExternalMatch, error) {
	if strings.TrimSpace(competitionID) == "" {
		return nil, fmt.Errorf("%w: competition id is required", usecase.ErrInvalidInput)
	}

	var envelope matchesEnvelope
	path := fmt.Sprintf("/competitions/%s/matches", url.PathEscape(competitionID))
	if err := c.getJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch matches competition=%s: %w", competitionID, err)
	}

	out := make([]usecase.ExternalMatch, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		out = append(out, mapMatch(item))
	}
	return out, nil
}

func (c *Client) FetchStandings(ctx context.Context, competitionID string) ([]usecase.ExternalStanding, error) {
	if strings.TrimSpace(competitionID) == "" {
		return nil, fmt.Errorf("%w: competition id is required", usecase.ErrInvalidInput)
	}

	var envelope standingsEnvelope
	path := fmt.Sprintf("/competitions/%s/standings", url.PathEscape(competitionID))
	if err := c.getJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch standings competition=%s: %w", competitionID, err)
	}

	return mapStandings(envelope), nil
}

func (c *Client) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear provider cache: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	key := cacheKey(path, values)

	if raw, ok := c.cacheLookup(ctx, key); ok {
		return decodePayload(raw, target)
	}

	out, err, _ := c.flight.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have just
		// written the entry this caller missed.
		if raw, ok := c.cacheLookup(ctx, key); ok {
			return raw, nil
		}

		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil {
			return nil, reqErr
		}
		c.cacheStore(ctx, key, path, raw)
		return raw, nil
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	return decodePayload(raw, target)
}

func (c *Client) cacheLookup(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}

	entry, found, err := c.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a miss; the provider path still works.
		c.logger.WarnContext(ctx, "provider cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	if entry.Expired(c.clock.Now()) {
		// An expired hit sweeps everything stale in the same store.
		if err := c.cache.DeleteExpired(ctx); err != nil {
			c.logger.WarnContext(ctx, "provider cache sweep failed", "error", err)
		}
		return nil, false
	}
	return entry.Body, true
}

func (c *Client) cacheStore(ctx context.Context, key, endpoint string, raw []byte) {
	if c.cache == nil {
		return
	}

	now := c.clock.Now().UTC()
	err := c.cache.Put(ctx, apicache.Entry{
		Key:       key,
		Endpoint:  endpoint,
		Body:      raw,
		CachedAt:  now,
		ExpiresAt: now.Add(c.cacheTTL),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "provider cache write failed", "key", key, "error", err)
	}
}

// executeRequest performs the network round trips for one logical fetch.
// Each attempt passes the throttle gate individually, so retry traffic is
// spaced the same as fresh traffic. Only 429 is retried: backoff doubles
// from one second per attempt, and maxRetries retries follow the first
// try. 403 and every other non-2xx status fail on the first response.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if err := c.throttle.Acquire(ctx); err != nil {
			return nil, mapContextErr(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Auth-Token", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, mapContextErr(ctxErr)
			}
			if stderrors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", usecase.ErrTimeout, err)
			}
			// Transport failures surface as dependency errors so the
			// handler maps them to 503 rather than 500.
			return nil, crerr.Mark(fmt.Errorf("send request: %w", err), usecase.ErrDependencyUnavailable)
		}

		raw, readErr := readBody(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, crerr.Mark(fmt.Errorf("read response body: %w", readErr), usecase.ErrDependencyUnavailable)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return raw, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt > c.maxRetries {
				return nil, &RateLimitError{Attempts: attempt}
			}
			backoff := rateLimitBaseBackoff << (attempt - 1)
			c.logger.WarnContext(ctx, "provider rate limited, backing off",
				"attempt", attempt, "backoff", backoff.String())
			select {
			case <-ctx.Done():
				return nil, mapContextErr(ctx.Err())
			case <-c.clock.After(backoff):
			}
		default:
			return nil, &ProviderError{StatusCode: resp.StatusCode, Body: abbreviateBody(raw)}
		}
	}
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(body, maxBodyBytes)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

func decodePayload(raw []byte, target any) error {
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

// cacheKey hashes the endpoint plus its sorted query string, so the same
// logical request always maps to the same row regardless of parameter
// order at the call site.
func cacheKey(path string, values url.Values) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(path+"?"+values.Encode())))
}

func mapContextErr(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", usecase.ErrTimeout, err)
	}
	return err
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
