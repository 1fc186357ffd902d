package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "lattica",
	Short: "Continuous-time stochastic cellular automaton runner",
	Long: `Lattica runs pair-based continuous-time stochastic cellular automata
on raster and hex lattices. Scenarios are described in YAML: cell states,
transition rules with exponential rates, the lattice shape, and the run
horizon. An optional live view streams the evolving grid to a browser.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
