package ca

import (
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/lattica/lattice"
)

// Builder can build CA models. Configuration problems surface from
// Build; a model that built successfully cannot fail at run time.
type Builder struct {
	grid         lattice.Grid
	stateNames   map[int]string
	rules        []Transition
	initial      []int
	orientations int
	seed         int64
	props        []float64
	propReset    float64
}

// NewBuilder returns a builder for a non-oriented model.
func NewBuilder() Builder {
	return Builder{orientations: 1}
}

// WithGrid sets the lattice the model runs on.
func (b Builder) WithGrid(grid lattice.Grid) Builder {
	b.grid = grid
	return b
}

// WithCellStateNames sets the cell-state name dictionary. The key set
// must be exactly 0..len-1; the names are diagnostics only and need not
// be unique.
func (b Builder) WithCellStateNames(names map[int]string) Builder {
	b.stateNames = names
	return b
}

// WithTransitions sets the transition rule list.
func (b Builder) WithTransitions(rules []Transition) Builder {
	b.rules = rules
	return b
}

// WithInitialCellStates sets the starting cell-state array.
func (b Builder) WithInitialCellStates(states []int) Builder {
	b.initial = states
	return b
}

// WithOrientations sets the number of link orientation classes: 1 for a
// non-oriented hex lattice, 2 for a raster, 3 for an oriented hex.
func (b Builder) WithOrientations(n int) Builder {
	b.orientations = n
	return b
}

// WithSeed seeds the model's random stream. Identical seed, grid, rules,
// and initial states reproduce the trajectory exactly.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithCellProperties attaches an auxiliary per-cell property array and
// its reset value. The engine stores both untouched.
func (b Builder) WithCellProperties(props []float64, reset float64) Builder {
	b.props = props
	b.propReset = reset
	return b
}

// Build validates the configuration and creates the model with every
// link's first event scheduled at time zero.
func (b Builder) Build() (*Model, error) {
	if b.grid == nil {
		return nil, configErrorf("a grid is required")
	}
	if b.orientations < 1 || b.orientations > 3 {
		return nil, configErrorf("unknown orientation count %d", b.orientations)
	}
	if len(b.stateNames) == 0 {
		return nil, configErrorf("cell state dictionary must name at least one state")
	}
	numCellStates := len(b.stateNames)
	names := make([]string, numCellStates)
	for id, name := range b.stateNames {
		if id < 0 || id >= numCellStates {
			return nil, configErrorf(
				"cell state dictionary key %d not in [0,%d)", id, numCellStates)
		}
		names[id] = name
	}

	codec := NewCodec(numCellStates, b.orientations)
	table, err := newTransitionTable(codec, b.rules)
	if err != nil {
		return nil, err
	}

	if err := validateCellStates(b.initial, b.grid.NumNodes(), numCellStates); err != nil {
		return nil, err
	}
	if b.props != nil && len(b.props) != b.grid.NumNodes() {
		return nil, configErrorf("property array has %d entries, grid has %d nodes",
			len(b.props), b.grid.NumNodes())
	}
	if err := checkGridContract(b.grid, b.orientations); err != nil {
		return nil, err
	}

	m := &Model{
		HookableBase: sim.NewHookableBase(),
		grid:         b.grid,
		codec:        codec,
		table:        table,
		rng:          rand.New(rand.NewSource(b.seed)),
		stateNames:   names,
		cellState:    make([]int, b.grid.NumNodes()),
		linkState:    make([]int, b.grid.NumActiveLinks()),
		nextUpdate:   make([]sim.VTimeInSec, b.grid.NumActiveLinks()),
		queue:        sim.NewEventQueue(),
		props:        b.props,
		propReset:    b.propReset,
	}
	copy(m.cellState, b.initial)

	for l := 0; l < m.grid.NumActiveLinks(); l++ {
		m.linkState[l] = m.deriveLinkState(l)
	}
	m.scheduleAllLinks(0)

	return m, nil
}

// checkGridContract verifies every endpoint and orientation the grid
// reports before the model trusts them unchecked on the hot path.
func checkGridContract(grid lattice.Grid, orientations int) error {
	numNodes := grid.NumNodes()
	for l := 0; l < grid.NumActiveLinks(); l++ {
		tail, head := grid.LinkEnds(l)
		if tail < 0 || tail >= numNodes {
			return &GridContractError{Link: l,
				Reason: "tail node out of range"}
		}
		if head < 0 || head >= numNodes {
			return &GridContractError{Link: l,
				Reason: "head node out of range"}
		}
		if o := grid.LinkOrientation(l); o < 0 || o >= orientations {
			return &GridContractError{Link: l,
				Reason: "orientation out of range"}
		}
	}
	return nil
}
