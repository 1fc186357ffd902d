package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/lattica/rules"
	"github.com/sarchlab/lattica/server"
)

var (
	serveAddr     string
	reportPeriod  time.Duration
	chunkDuration float64
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario to its horizon",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().StringVar(&serveAddr, "serve", "",
		"serve a live view and metrics on this address (e.g. :8080)")
	runCmd.Flags().DurationVar(&reportPeriod, "report-period", 5*time.Second,
		"wall-clock interval between progress reports")
	runCmd.Flags().Float64Var(&chunkDuration, "chunk", 1.0,
		"simulated time per Run call when serving or reporting")
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	scenario, err := rules.ParseFile(args[0])
	if err != nil {
		return err
	}

	model, err := scenario.BuildModel()
	if err != nil {
		return err
	}

	logger.Info().
		Str("scenario", scenario.Name).
		Int("nodes", model.Grid().NumNodes()).
		Int("activeLinks", model.Grid().NumActiveLinks()).
		Int("linkStates", model.Codec().NumLinkStates()).
		Float64("runUntil", scenario.RunUntil).
		Msg("scenario loaded")

	if serveAddr != "" {
		srv := server.New(serveAddr, model, scenario.Grid.Rows, scenario.Grid.Cols)
		go func() {
			if err := srv.Serve(); err != nil {
				logger.Error().Err(err).Msg("live view stopped")
			}
		}()
		logger.Info().Str("addr", serveAddr).Msg("live view serving")
	}

	horizon := sim.VTimeInSec(scenario.RunUntil)
	nextReport := time.Now().Add(reportPeriod)
	for model.CurrentTime() < horizon {
		chunkEnd := model.CurrentTime() + sim.VTimeInSec(chunkDuration)
		if chunkEnd > horizon {
			chunkEnd = horizon
		}
		applied := model.EventsApplied()
		model.Run(chunkEnd)
		if model.EventsApplied() == applied && model.CurrentTime() < chunkEnd {
			// Queue drained; nothing left to simulate.
			break
		}

		if time.Now().After(nextReport) {
			logger.Info().
				Float64("simTime", float64(model.CurrentTime())).
				Uint64("applied", model.EventsApplied()).
				Uint64("stale", model.StaleEventsDiscarded()).
				Msg("running")
			nextReport = time.Now().Add(reportPeriod)
		}
	}

	logger.Info().
		Float64("simTime", float64(model.CurrentTime())).
		Uint64("applied", model.EventsApplied()).
		Uint64("stale", model.StaleEventsDiscarded()).
		Msg("done")

	printGrid(model.CellStates(), scenario.Grid.Rows, scenario.Grid.Cols)
	atexit.Exit(0)
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}

// printGrid prints the final cell states with row 0 at the bottom, the
// way the lattice lays them out.
func printGrid(states []int, numRows, numCols int) {
	for y := numRows - 1; y >= 0; y-- {
		for x := 0; x < numCols; x++ {
			fmt.Printf("%d ", states[y*numCols+x])
		}
		fmt.Println()
	}
}
