package config

import "go.uber.org/fx"

// Module supplies process and simulation configuration resolved by the CLI.
func Module(cfg Config, sim SimulationConfig) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
		fx.Supply(sim),
	)
}
