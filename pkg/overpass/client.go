// Package overpass queries the OpenStreetMap Overpass API for newly opened
// businesses that are worth a sales call.
package overpass

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/resilience"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

const defaultCacheTTL = 24 * time.Hour

// Center is the centroid Overpass attaches to ways with "out center".
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is one raw OSM record.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Coordinates returns the node position or the way centre.
func (e Element) Coordinates() (model.Coordinates, bool) {
	if e.Center != nil {
		return model.Coordinates{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	if e.Lat != 0 || e.Lon != 0 {
		return model.Coordinates{Lat: e.Lat, Lon: e.Lon}, true
	}
	return model.Coordinates{}, false
}

// Response is the Overpass JSON document.
type Response struct {
	Elements []Element `json:"elements"`
}

// Source fetches raw records for a query.
type Source interface {
	// Fetch returns the parsed response, or an error wrapping
	// model.ErrNoData or model.ErrRateLimited.
	Fetch(ctx context.Context, q Query) (*Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Its Timeout bounds each attempt.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoint overrides the interpreter URL.
func WithEndpoint(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.endpoint = u
		}
	}
}

// WithRetry overrides the attempt count and pause between attempts.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithCache caches parsed responses for ttl.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// Client implements Source over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	retry      resilience.RetryConfig
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a Client. Defaults: public endpoint, 60s per attempt,
// 3 attempts 1s apart, no rate limit, no cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   DefaultEndpoint,
		retry:      resilience.FixedRetryConfig(3, time.Second),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errBadRequest marks a 400: the query cannot succeed for this window.
var errBadRequest = eris.New("overpass: bad request")

// Fetch implements Source. A 400 ends the attempt loop immediately with
// ErrNoData. Anything else that fails is retried, and running out of
// attempts yields ErrRateLimited.
func (c *Client) Fetch(ctx context.Context, q Query) (*Response, error) {
	log := zap.L().With(
		zap.Float64("lat", q.Center.Lat),
		zap.Float64("lon", q.Center.Lon),
		zap.Int("radius_mi", q.RadiusMiles),
		zap.Int("days", q.RecencyDays),
	)
	key := hashKey(q.cacheKey())

	if resp, ok := c.cached(ctx, key); ok {
		log.Debug("overpass cache hit", zap.Int("elements", len(resp.Elements)))
		return resp, nil
	}

	retry := c.retry
	retry.ShouldRetry = func(err error) bool { return !errors.Is(err, errBadRequest) }
	retry.OnRetry = resilience.RetryLogger("overpass", "interpreter")

	body := q.String()
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Response, error) {
		return c.post(ctx, body)
	})
	switch {
	case errors.Is(err, errBadRequest):
		log.Info("overpass rejected query")
		return nil, eris.Wrap(model.ErrNoData, "overpass: query rejected")
	case err != nil && ctx.Err() != nil:
		return nil, eris.Wrap(ctx.Err(), "overpass: fetch")
	case err != nil:
		log.Warn("overpass retries exhausted", zap.Error(err))
		return nil, eris.Wrapf(model.ErrRateLimited, "overpass: %v", err)
	}

	log.Debug("overpass fetched", zap.Int("elements", len(resp.Elements)))
	c.store(ctx, key, resp)
	return resp, nil
}

// Purge drops cached responses.
func (c *Client) Purge(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return eris.Wrap(c.cache.Purge(ctx), "overpass: purge cache")
}

func (c *Client) post(ctx context.Context, query string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit")
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, errBadRequest
	case resp.StatusCode != http.StatusOK:
		return nil, resilience.StatusError("overpass", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "overpass: parse response")
	}
	return &out, nil
}

func (c *Client) cached(ctx context.Context, key string) (*Response, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *Client) store(ctx context.Context, key string, resp *Response) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
		zap.L().Debug("overpass cache write failed", zap.Error(err))
	}
}

func hashKey(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
