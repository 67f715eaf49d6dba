package clock

import "go.uber.org/fx"

// Module provides the wall clock used by due-date and rating computations.
var Module = fx.Module("clock",
	fx.Provide(func() Clock {
		return SystemClock{}
	}),
)
