package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSimulationDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadSimulation("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulationConfig(), cfg)
}

func TestLoadSimulationReadsFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simulation.yml")
	content := []byte(`simulation:
  seed: 7
  customers: 250
  start: "2023-03-01"
  end: "2023-08-31"
  dormancy_fraction: 0.1
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("seed", 42, "")
	flags.Int("customers", 10000, "")
	flags.String("start", "", "")
	flags.String("end", "", "")
	require.NoError(t, flags.Parse([]string{"--customers", "12"}))

	cfg, err := LoadSimulation(path, flags)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 12, cfg.Customers)
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2023, time.August, 31, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, 0.1, cfg.DormancyFraction)
	assert.Equal(t, 0.02, cfg.SpikeProbability)
}

func TestLoadSimulationEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARDSYNTH_SIMULATION_SEED", "99")

	cfg, err := LoadSimulation("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), cfg.Seed)
}

func TestSimulationConfigValidate(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Customers = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultSimulationConfig()
	cfg.EndDate = cfg.StartDate.AddDate(0, 0, -1)
	assert.Error(t, cfg.Validate())

	cfg = DefaultSimulationConfig()
	cfg.SpikeProbability = 1.5
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultSimulationConfig().Validate())
}
