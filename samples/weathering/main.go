// Weathering simulates chemical weathering of fractured rock: cells are
// rock (0) or saprolite (1), and any rock-saprolite pair can weather
// into saprolite-saprolite at unit rate.
package main

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/lattica/ca"
	"github.com/sarchlab/lattica/lattice"
)

var (
	rows        = 32
	cols        = 32
	runDuration = sim.VTimeInSec(10.0)
)

func transitionList() []ca.Transition {
	return []ca.Transition{
		// rock-sap to sap-sap, both orientations
		ca.NewPairTransition(
			ca.Pair{From: 0, To: 1, Orientation: lattice.Horizontal},
			ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
			1.0, "weathering"),
		ca.NewPairTransition(
			ca.Pair{From: 1, To: 0, Orientation: lattice.Horizontal},
			ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
			1.0, "weathering"),
		ca.NewPairTransition(
			ca.Pair{From: 0, To: 1, Orientation: lattice.Vertical},
			ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
			1.0, "weathering"),
		ca.NewPairTransition(
			ca.Pair{From: 1, To: 0, Orientation: lattice.Vertical},
			ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
			1.0, "weathering"),
	}
}

func main() {
	grid := lattice.NewRasterBuilder().
		WithRows(rows).
		WithCols(cols).
		WithPerimeterBoundary().
		Build()

	// A single saprolite seed in the middle of the rock mass.
	initial := make([]int, grid.NumNodes())
	initial[(rows/2)*cols+cols/2] = 1

	model, err := ca.NewBuilder().
		WithGrid(grid).
		WithCellStateNames(map[int]string{0: "rock", 1: "saprolite"}).
		WithTransitions(transitionList()).
		WithInitialCellStates(initial).
		WithOrientations(2).
		WithSeed(42).
		Build()
	if err != nil {
		panic(err)
	}

	model.Run(runDuration)

	fmt.Printf("t=%.2f applied=%d stale=%d\n",
		float64(model.CurrentTime()),
		model.EventsApplied(),
		model.StaleEventsDiscarded())

	states := model.CellStates()
	for y := rows - 1; y >= 0; y-- {
		for x := 0; x < cols; x++ {
			if states[y*cols+x] == 1 {
				fmt.Print("#")
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println()
	}

	atexit.Exit(0)
}
