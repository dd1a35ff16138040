package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/monitoring"
	"github.com/sells-group/hotleads/internal/pipeline"
	"github.com/sells-group/hotleads/internal/resilience"
	"github.com/sells-group/hotleads/internal/store"
	"github.com/sells-group/hotleads/pkg/geocode"
	"github.com/sells-group/hotleads/pkg/overpass"
)

// appEnv holds the store, upstream clients and pipeline shared by the
// search, cache and serve commands.
type appEnv struct {
	Store    store.Store
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics
	Geocoder *geocode.Nominatim
	Overpass *overpass.Client
	Pipeline *pipeline.Pipeline

	redis *redis.Client
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured outcome store.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initCaches returns the geocode and query caches for the configured driver.
// The redis client, if any, is owned by the caller.
func initCaches(ctx context.Context, st store.Store) (geo, query cache.Cache, rc *redis.Client, err error) {
	switch cfg.Cache.Driver {
	case "store":
		return st.Cache("geocode"), st.Cache("overpass"), nil, nil
	case "memory":
		return cache.NewMemory(), cache.NewMemory(), nil, nil
	case "redis":
		rc, err = cache.DialRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return cache.NewRedis(rc, "geocode"), cache.NewRedis(rc, "overpass"), rc, nil
	default:
		return nil, nil, nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// initEnv builds everything a search needs. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	geoCache, queryCache, rc, err := initCaches(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	env := &appEnv{
		Store:    st,
		Registry: prometheus.NewRegistry(),
		redis:    rc,
	}
	env.Metrics = monitoring.New(env.Registry)

	env.Geocoder = geocode.NewNominatim(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithCountry(cfg.Geocode.Country),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout()}),
		geocode.WithRetry(resilience.FromMillis(cfg.Geocode.MaxAttempts, cfg.Geocode.BackoffMs)),
		geocode.WithCache(geoCache, cfg.Cache.TTL()),
	)

	env.Overpass = overpass.NewClient(
		overpass.WithEndpoint(cfg.Overpass.BaseURL),
		overpass.WithHTTPClient(&http.Client{Timeout: cfg.Overpass.Timeout()}),
		overpass.WithRetry(resilience.FromMillis(cfg.Overpass.MaxAttempts, cfg.Overpass.BackoffMs)),
		overpass.WithRateLimit(cfg.Overpass.RateLimit),
		overpass.WithCache(queryCache, cfg.Cache.TTL()),
	)

	env.Pipeline = pipeline.New(
		env.Geocoder,
		env.Overpass,
		st,
		pipeline.NewExtractor(cfg.Leads.DemoBaseURL),
		pipeline.WithMaxResults(cfg.Leads.MaxResults),
		pipeline.WithPurgers(env.Geocoder, env.Overpass),
		pipeline.WithMetrics(env.Metrics),
	)

	zap.L().Debug("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Cache.Driver),
	)
	return env, nil
}

// lockPath is the file guarding against concurrent runs against one store.
func lockPath() string {
	if cfg.Store.Driver == "sqlite" {
		return cfg.Store.DatabaseURL + ".lock"
	}
	return filepath.Join(os.TempDir(), "hotleads.lock")
}
