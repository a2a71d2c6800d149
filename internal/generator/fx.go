package generator

import (
	"github.com/smallbiznis/cardsynth/internal/generator/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generator.service",
	fx.Provide(service.New),
)
