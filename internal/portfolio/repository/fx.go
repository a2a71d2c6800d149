package repository

import "go.uber.org/fx"

var Module = fx.Module("portfolio.repository",
	fx.Provide(Provide),
)
