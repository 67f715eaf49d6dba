package ratelimit

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/credora/internal/config"
)

var Module = fx.Module("ratelimit",
	fx.Provide(newLimiter),
)

func newLimiter(cfg config.Config) *Limiter {
	return New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
}
