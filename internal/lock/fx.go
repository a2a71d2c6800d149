package lock

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("dataset.lock",
	fx.Provide(
		NewDatasetLock,
		func(l *DatasetLock) DatasetLocker { return l },
	),
	fx.Invoke(func(lc fx.Lifecycle, l *DatasetLock) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return l.Close() },
		})
	}),
)
