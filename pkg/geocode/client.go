// Package geocode resolves U.S. postal codes to coordinates via a
// Nominatim-compatible geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/resilience"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "hotleads/1.0"
	defaultCountry   = "USA"
	defaultCacheTTL  = 24 * time.Hour
)

// Resolver turns a postal code into coordinates.
type Resolver interface {
	// Resolve returns the coordinates for postalCode, or an error wrapping
	// model.ErrGeocodeFailed when there is no match or the service is down.
	Resolve(ctx context.Context, postalCode string) (model.Coordinates, error)
}

// Option configures the Nominatim resolver.
type Option func(*Nominatim)

// WithHTTPClient sets the HTTP client. Its Timeout bounds each attempt.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *Nominatim) {
		n.httpClient = hc
	}
}

// WithBaseURL points the resolver at another Nominatim deployment.
func WithBaseURL(u string) Option {
	return func(n *Nominatim) {
		if u != "" {
			n.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header Nominatim's usage policy requires.
func WithUserAgent(ua string) Option {
	return func(n *Nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithCountry restricts matches to a country (default "USA").
func WithCountry(country string) Option {
	return func(n *Nominatim) {
		if country != "" {
			n.country = country
		}
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(n *Nominatim) {
		if rps > 0 {
			n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry overrides the attempt count and the pause between attempts.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(n *Nominatim) {
		n.retry = cfg
	}
}

// WithCache caches successful lookups for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(n *Nominatim) {
		n.cache = c
		if ttl > 0 {
			n.cacheTTL = ttl
		}
	}
}

// Nominatim implements Resolver against the Nominatim search API.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	country    string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewNominatim creates a resolver with the given options. Defaults: public
// Nominatim, 10s per attempt, 1 req/s, 3 attempts 1s apart, no cache.
func NewNominatim(opts ...Option) *Nominatim {
	n := &Nominatim{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		country:    defaultCountry,
		limiter:    rate.NewLimiter(1, 1),
		retry:      resilience.FixedRetryConfig(3, time.Second),
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// errNoMatch marks a well-formed response with no results.
var errNoMatch = eris.New("no match")

// Resolve implements Resolver. Only timeouts and 503 Service Unavailable are
// retried; any other failure is reported as not found straight away.
func (n *Nominatim) Resolve(ctx context.Context, postalCode string) (model.Coordinates, error) {
	log := zap.L().With(zap.String("zip", postalCode))
	key := cacheKey(n.country, postalCode)

	if coords, ok := n.cached(ctx, key); ok {
		log.Debug("geocode cache hit")
		return coords, nil
	}

	retry := n.retry
	retry.ShouldRetry = isRetryable
	retry.OnRetry = resilience.RetryLogger("nominatim", "search")

	coords, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (model.Coordinates, error) {
		return n.search(ctx, postalCode)
	})
	if err != nil {
		log.Warn("geocode failed", zap.Error(err))
		return model.Coordinates{}, eris.Wrapf(model.ErrGeocodeFailed, "geocode: %s: %v", postalCode, err)
	}

	n.store(ctx, key, coords)
	return coords, nil
}

// Purge drops cached lookups.
func (n *Nominatim) Purge(ctx context.Context) error {
	if n.cache == nil {
		return nil
	}
	return eris.Wrap(n.cache.Purge(ctx), "geocode: purge cache")
}

func (n *Nominatim) search(ctx context.Context, postalCode string) (model.Coordinates, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return model.Coordinates{}, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"postalcode": {postalCode},
		"country":    {n.country},
		"format":     {"jsonv2"},
		"limit":      {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return model.Coordinates{}, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return model.Coordinates{}, resilience.StatusError("geocode", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return model.Coordinates{}, eris.Errorf("geocode: returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.Coordinates{}, eris.Wrap(err, "geocode: parse response")
	}
	if len(results) == 0 {
		return model.Coordinates{}, errNoMatch
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return model.Coordinates{}, eris.Errorf("geocode: bad coordinates %q,%q", results[0].Lat, results[0].Lon)
	}
	return model.Coordinates{Lat: lat, Lon: lon}, nil
}

// isRetryable limits retries to timeouts and explicit 503s.
func isRetryable(err error) bool {
	if status := resilience.Status(err); status != 0 {
		return status == http.StatusServiceUnavailable
	}
	return resilience.IsTimeout(err)
}
