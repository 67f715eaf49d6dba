package sweep

import (
	"context"

	"go.uber.org/fx"

	"github.com/smallbiznis/credora/internal/config"
)

var Module = fx.Module("rating.sweep",
	fx.Provide(newConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func newConfig(cfg config.Config) Config {
	return Config{
		BatchSize:    cfg.Rating.SweepBatch,
		PollInterval: cfg.Rating.SweepInterval,
	}.withDefaults()
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: worker.Stop,
	})
}
