package rating

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/credora/internal/cache"
	"github.com/smallbiznis/credora/internal/config"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	"github.com/smallbiznis/credora/internal/rating/service"
)

var Module = fx.Module("rating.service",
	fx.Provide(newRatingCache),
	fx.Provide(
		fx.Annotate(
			func(cfg config.Config) time.Duration { return cfg.Rating.CacheTTL },
			fx.ResultTags(`name:"rating_cache_ttl"`),
		),
	),
	fx.Provide(service.NewService),
)

// newRatingCache prefers redis when configured so scores survive restarts
// and are shared between replicas; otherwise an in-process TTL cache.
func newRatingCache(cfg config.Config, log *zap.Logger) service.RatingCache {
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		log.Info("rating cache backed by redis", zap.String("addr", cfg.Redis.Addr))
		return cache.NewRedisCache[ratingdomain.Rating](cache.NewRedisClient(cfg.Redis.Addr), "rating:")
	}
	return cache.NewTTLCache[string, ratingdomain.Rating]()
}
