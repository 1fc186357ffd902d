// Package rules loads CA scenarios from YAML files: the cell-state
// dictionary, the lattice shape, the transition rules, the initial
// configuration, and the run parameters.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/lattica/ca"
	"github.com/sarchlab/lattica/lattice"
)

// GridSpec describes the lattice to build.
type GridSpec struct {
	// Kind is "raster" or "hex".
	Kind string `yaml:"kind"`
	Rows int    `yaml:"rows"`
	Cols int    `yaml:"cols"`
	// PerimeterBoundary freezes every edge node at its initial state.
	PerimeterBoundary bool `yaml:"perimeter_boundary"`
}

// StateRef addresses a link state either by dense id or by an explicit
// [from, to, orientation] triple.
type StateRef struct {
	ID   int
	Pair []int
}

// UnmarshalYAML accepts a scalar id or a three-element sequence.
func (r *StateRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&r.ID)
	case yaml.SequenceNode:
		if err := value.Decode(&r.Pair); err != nil {
			return err
		}
		if len(r.Pair) != 3 {
			return fmt.Errorf("state triple must have 3 elements, got %d", len(r.Pair))
		}
		return nil
	default:
		return fmt.Errorf("state must be an id or a [from, to, orientation] triple")
	}
}

func (r *StateRef) byPair() bool { return r.Pair != nil }

// TransitionSpec is one rule of the scenario.
type TransitionSpec struct {
	From StateRef `yaml:"from"`
	To   StateRef `yaml:"to"`
	Rate float64  `yaml:"rate"`
	Name string   `yaml:"name"`
}

// Scenario is a complete model description.
type Scenario struct {
	Name         string           `yaml:"name"`
	States       map[int]string   `yaml:"states"`
	Orientations int              `yaml:"orientations"`
	Grid         GridSpec         `yaml:"grid"`
	Seed         int64            `yaml:"seed"`
	RunUntil     float64          `yaml:"run_until"`
	Fill         int              `yaml:"fill"`
	Initial      []int            `yaml:"initial"`
	Transitions  []TransitionSpec `yaml:"transitions"`
}

// ParseFile parses and validates a scenario from a YAML file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario before any engine construction, so file
// problems are reported with scenario-level context.
func (s *Scenario) Validate() error {
	if len(s.States) == 0 {
		return fmt.Errorf("scenario %q: at least one cell state is required", s.Name)
	}
	for id := range s.States {
		if id < 0 || id >= len(s.States) {
			return fmt.Errorf("scenario %q: state id %d not in [0,%d)",
				s.Name, id, len(s.States))
		}
	}

	switch s.Grid.Kind {
	case "raster":
		if s.Orientations != 2 {
			return fmt.Errorf("scenario %q: raster grids need 2 orientations, got %d",
				s.Name, s.Orientations)
		}
	case "hex":
		if s.Orientations != 1 && s.Orientations != 3 {
			return fmt.Errorf("scenario %q: hex grids need 1 or 3 orientations, got %d",
				s.Name, s.Orientations)
		}
	default:
		return fmt.Errorf("scenario %q: unknown grid kind %q", s.Name, s.Grid.Kind)
	}
	if s.Grid.Rows < 1 || s.Grid.Cols < 1 {
		return fmt.Errorf("scenario %q: invalid grid shape %dx%d",
			s.Name, s.Grid.Rows, s.Grid.Cols)
	}

	if len(s.Transitions) == 0 {
		return fmt.Errorf("scenario %q: at least one transition is required", s.Name)
	}
	byPair := s.Transitions[0].From.byPair()
	for i, t := range s.Transitions {
		if t.From.byPair() != t.To.byPair() {
			return fmt.Errorf("scenario %q: transition %d mixes id and triple forms",
				s.Name, i)
		}
		if t.From.byPair() != byPair {
			return fmt.Errorf(
				"scenario %q: transition list mixes id and triple forms", s.Name)
		}
		if t.Rate <= 0 {
			return fmt.Errorf("scenario %q: transition %d: rate %v must be positive",
				s.Name, i, t.Rate)
		}
	}

	if s.Initial != nil && len(s.Initial) != s.Grid.Rows*s.Grid.Cols {
		return fmt.Errorf("scenario %q: initial has %d entries, grid has %d nodes",
			s.Name, len(s.Initial), s.Grid.Rows*s.Grid.Cols)
	}
	if s.RunUntil <= 0 {
		return fmt.Errorf("scenario %q: run_until %v must be positive",
			s.Name, s.RunUntil)
	}

	return nil
}

// BuildGrid creates the lattice the scenario describes.
func (s *Scenario) BuildGrid() lattice.Grid {
	switch s.Grid.Kind {
	case "raster":
		b := lattice.NewRasterBuilder().
			WithRows(s.Grid.Rows).
			WithCols(s.Grid.Cols)
		if s.Grid.PerimeterBoundary {
			b = b.WithPerimeterBoundary()
		}
		return b.Build()
	case "hex":
		b := lattice.NewHexBuilder().
			WithRows(s.Grid.Rows).
			WithCols(s.Grid.Cols).
			WithOrientations(s.Orientations)
		if s.Grid.PerimeterBoundary {
			b = b.WithPerimeterBoundary()
		}
		return b.Build()
	}
	panic("unknown grid kind " + s.Grid.Kind)
}

// InitialStates returns the starting cell-state array, either the
// explicit list or the fill value everywhere.
func (s *Scenario) InitialStates() []int {
	states := make([]int, s.Grid.Rows*s.Grid.Cols)
	if s.Initial != nil {
		copy(states, s.Initial)
		return states
	}
	for i := range states {
		states[i] = s.Fill
	}
	return states
}

// Rules converts the transition specs to engine rules.
func (s *Scenario) Rules() []ca.Transition {
	rules := make([]ca.Transition, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		if t.From.byPair() {
			rules = append(rules, ca.NewPairTransition(
				ca.Pair{From: t.From.Pair[0], To: t.From.Pair[1], Orientation: t.From.Pair[2]},
				ca.Pair{From: t.To.Pair[0], To: t.To.Pair[1], Orientation: t.To.Pair[2]},
				t.Rate, t.Name))
			continue
		}
		rules = append(rules, ca.NewTransition(t.From.ID, t.To.ID, t.Rate, t.Name))
	}
	return rules
}

// BuildModel assembles the grid and the engine from the scenario.
func (s *Scenario) BuildModel() (*ca.Model, error) {
	return ca.NewBuilder().
		WithGrid(s.BuildGrid()).
		WithCellStateNames(s.States).
		WithTransitions(s.Rules()).
		WithInitialCellStates(s.InitialStates()).
		WithOrientations(s.Orientations).
		WithSeed(s.Seed).
		Build()
}
