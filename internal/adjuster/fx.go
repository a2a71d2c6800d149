package adjuster

import (
	"github.com/smallbiznis/cardsynth/internal/adjuster/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjuster.service",
	fx.Provide(service.New),
)
