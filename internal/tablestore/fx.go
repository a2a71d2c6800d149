package tablestore

import (
	"github.com/smallbiznis/cardsynth/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tablestore",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Store {
		return New(cfg.DataDir, log)
	}),
)
