package geocode

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
)

// cacheKey is the normalized country and postal code.
func cacheKey(country, postalCode string) string {
	return strings.ToUpper(strings.TrimSpace(country)) + "|" + strings.TrimSpace(postalCode)
}

// cached returns a previously stored match. Cache read errors are treated as
// misses so a broken cache never blocks geocoding.
func (n *Nominatim) cached(ctx context.Context, key string) (model.Coordinates, bool) {
	if n.cache == nil {
		return model.Coordinates{}, false
	}
	raw, ok, err := n.cache.Get(ctx, key)
	if err != nil {
		zap.L().Debug("geocode cache read failed", zap.String("key", key), zap.Error(err))
		return model.Coordinates{}, false
	}
	if !ok {
		return model.Coordinates{}, false
	}
	var coords model.Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return model.Coordinates{}, false
	}
	return coords, true
}

// store caches a match. Misses are never cached so a transient outage does
// not pin a postal code as unresolvable for the whole TTL.
func (n *Nominatim) store(ctx context.Context, key string, coords model.Coordinates) {
	if n.cache == nil {
		return
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := n.cache.Set(ctx, key, raw, n.cacheTTL); err != nil {
		zap.L().Debug("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
}
