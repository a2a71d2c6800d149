package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

type rootOptions struct {
	configPath string
	dataDir    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "cardsynth",
		Short:         "Synthetic credit-card portfolio generator",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "simulation config file (default: ./config/simulation.yml)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "dataset directory (default: $DATA_DIR or ./data)")
	flags.Uint64("seed", 42, "random seed")
	flags.Int("customers", 10000, "number of customers to generate")
	flags.String("start", "2024-01-01", "first day of the simulated period (YYYY-MM-DD)")
	flags.String("end", "2025-12-31", "last day of the simulated period (YYYY-MM-DD)")

	rootCmd.AddCommand(generateCmd(opts))
	rootCmd.AddCommand(adjustCmd(opts))
	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(auditCmd(opts))
	rootCmd.AddCommand(exportCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))

	return rootCmd
}
