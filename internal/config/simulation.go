package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// SimulationConfig holds the knobs of the generation and adjustment stages.
type SimulationConfig struct {
	Seed      uint64
	Customers int
	StartDate time.Time
	EndDate   time.Time

	OccupationNullFraction float64
	OutlierProbability     float64
	RedemptionProbability  float64

	CardExpansionFraction float64
	DormancyFraction      float64
	SpikeProbability      float64
	MissingProbability    float64
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Seed:                   42,
		Customers:              10000,
		StartDate:              time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		OccupationNullFraction: 0.005,
		OutlierProbability:     0.005,
		RedemptionProbability:  0.10,
		CardExpansionFraction:  0.20,
		DormancyFraction:       0.08,
		SpikeProbability:       0.02,
		MissingProbability:     0.005,
	}
}

// flag name -> viper key
var simulationFlags = map[string]string{
	"seed":      "simulation.seed",
	"customers": "simulation.customers",
	"start":     "simulation.start",
	"end":       "simulation.end",
}

// LoadSimulation reads simulation.yml (or the explicit path), applies
// CARDSYNTH_* environment overrides and then any flags the caller changed.
func LoadSimulation(path string, flags *pflag.FlagSet) (SimulationConfig, error) {
	v := viper.New()

	defaults := DefaultSimulationConfig()
	v.SetDefault("simulation.seed", defaults.Seed)
	v.SetDefault("simulation.customers", defaults.Customers)
	v.SetDefault("simulation.start", defaults.StartDate.Format(dateLayout))
	v.SetDefault("simulation.end", defaults.EndDate.Format(dateLayout))
	v.SetDefault("simulation.occupation_null_fraction", defaults.OccupationNullFraction)
	v.SetDefault("simulation.outlier_probability", defaults.OutlierProbability)
	v.SetDefault("simulation.redemption_probability", defaults.RedemptionProbability)
	v.SetDefault("simulation.card_expansion_fraction", defaults.CardExpansionFraction)
	v.SetDefault("simulation.dormancy_fraction", defaults.DormancyFraction)
	v.SetDefault("simulation.spike_probability", defaults.SpikeProbability)
	v.SetDefault("simulation.missing_probability", defaults.MissingProbability)

	v.SetEnvPrefix("CARDSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return SimulationConfig{}, fmt.Errorf("read simulation config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("simulation")
		v.SetConfigType("yml")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/cardsynth")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return SimulationConfig{}, err
			}
		}
	}

	if flags != nil {
		for name, key := range simulationFlags {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return SimulationConfig{}, err
				}
			}
		}
	}

	start, err := time.Parse(dateLayout, strings.TrimSpace(v.GetString("simulation.start")))
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("simulation.start: %w", err)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(v.GetString("simulation.end")))
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("simulation.end: %w", err)
	}

	cfg := SimulationConfig{
		Seed:                   v.GetUint64("simulation.seed"),
		Customers:              v.GetInt("simulation.customers"),
		StartDate:              start,
		EndDate:                end,
		OccupationNullFraction: v.GetFloat64("simulation.occupation_null_fraction"),
		OutlierProbability:     v.GetFloat64("simulation.outlier_probability"),
		RedemptionProbability:  v.GetFloat64("simulation.redemption_probability"),
		CardExpansionFraction:  v.GetFloat64("simulation.card_expansion_fraction"),
		DormancyFraction:       v.GetFloat64("simulation.dormancy_fraction"),
		SpikeProbability:       v.GetFloat64("simulation.spike_probability"),
		MissingProbability:     v.GetFloat64("simulation.missing_probability"),
	}
	if err := cfg.Validate(); err != nil {
		return SimulationConfig{}, err
	}
	return cfg, nil
}

func (c SimulationConfig) Validate() error {
	if c.Customers < 1 {
		return errors.New("simulation.customers must be at least 1")
	}
	if c.EndDate.Before(c.StartDate) {
		return errors.New("simulation.end must not be before simulation.start")
	}
	probabilities := map[string]float64{
		"occupation_null_fraction": c.OccupationNullFraction,
		"outlier_probability":      c.OutlierProbability,
		"redemption_probability":   c.RedemptionProbability,
		"card_expansion_fraction":  c.CardExpansionFraction,
		"dormancy_fraction":        c.DormancyFraction,
		"spike_probability":        c.SpikeProbability,
		"missing_probability":      c.MissingProbability,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("simulation.%s must be within [0, 1], got %v", name, p)
		}
	}
	return nil
}
