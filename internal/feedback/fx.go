package feedback

import (
	"github.com/smallbiznis/credora/internal/feedback/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feedback.service",
	fx.Provide(service.NewService),
)
