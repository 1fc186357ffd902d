package ca_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/lattica/ca"
	"github.com/sarchlab/lattica/lattice"
)

func simTime(v float64) sim.VTimeInSec { return sim.VTimeInSec(v) }

// recorder collects the transition stream through the model's hook.
type recorder struct {
	infos []ca.TransitionInfo
}

func (r *recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != ca.HookPosTransitionApplied {
		return
	}
	r.infos = append(r.infos, ctx.Item.(ca.TransitionInfo))
}

// expectLinkStatesConsistent asserts that every link state equals the
// encoding of its endpoints' current cell states and its orientation.
func expectLinkStatesConsistent(model *ca.Model, grid lattice.Grid) {
	cells := model.CellStates()
	links := model.LinkStates()
	for l := 0; l < grid.NumActiveLinks(); l++ {
		tail, head := grid.LinkEnds(l)
		want, err := model.Codec().Encode(
			cells[tail], cells[head], grid.LinkOrientation(l))
		Expect(err).ToNot(HaveOccurred())
		Expect(links[l]).To(Equal(want),
			"link %d inconsistent with its endpoints", l)
	}
}

var _ = Describe("Model", func() {
	Context("with a single rule on a 2x2 raster", func() {
		var (
			grid  *lattice.Raster
			model *ca.Model
		)

		BeforeEach(func() {
			grid = lattice.NewRasterBuilder().
				WithRows(2).
				WithCols(2).
				Build()

			var err error
			model, err = ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "off", 1: "on"}).
				WithTransitions([]ca.Transition{
					// (0,1,horizontal) -> (1,1,horizontal)
					ca.NewTransition(1, 3, 1.0, "spread"),
				}).
				WithInitialCellStates([]int{0, 1, 0, 1}).
				WithOrientations(2).
				WithSeed(7).
				Build()
			Expect(err).ToNot(HaveOccurred())
		})

		It("should drive every horizontal (0,1) pair to (1,1)", func() {
			model.Run(1000.0)

			Expect(model.CellStates()).To(Equal([]int{1, 1, 1, 1}))
			expectLinkStatesConsistent(model, grid)
		})

		It("should apply events in non-decreasing time order", func() {
			rec := &recorder{}
			model.AcceptHook(rec)

			model.Run(1000.0)

			Expect(rec.infos).ToNot(BeEmpty())
			last := simTime(0)
			for _, info := range rec.infos {
				Expect(info.Time).To(BeNumerically(">=", last))
				last = info.Time
			}
			Expect(model.CurrentTime()).To(BeNumerically(">=", last))
		})

		It("should look up rule names by state pair", func() {
			Expect(model.TransitionName(1, 3)).To(Equal("spread"))
			Expect(model.TransitionName(0, 3)).To(Equal(""))
			Expect(model.TransitionName(-1, 3)).To(Equal(""))
			Expect(model.TransitionName(99, 3)).To(Equal(""))
		})

		It("should report the fired rule to observers", func() {
			rec := &recorder{}
			model.AcceptHook(rec)

			model.Run(1000.0)

			for _, info := range rec.infos {
				Expect(info.Name).To(Equal("spread"))
				Expect(info.From).To(Equal(1))
				Expect(info.To).To(Equal(3))
			}
		})
	})

	Context("with no schedulable links", func() {
		It("should park every link at the sentinel and apply nothing", func() {
			grid := lattice.NewRasterBuilder().
				WithRows(2).
				WithCols(2).
				Build()

			model, err := ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "off", 1: "on"}).
				WithTransitions([]ca.Transition{
					ca.NewTransition(1, 3, 1.0, ""),
				}).
				WithInitialCellStates([]int{0, 0, 0, 0}).
				WithOrientations(2).
				Build()
			Expect(err).ToNot(HaveOccurred())

			model.Run(10.0)

			Expect(model.EventsApplied()).To(BeZero())
			Expect(model.CurrentTime()).To(Equal(simTime(0)))
			for l := 0; l < grid.NumActiveLinks(); l++ {
				Expect(model.NextUpdateTime(l)).To(Equal(ca.Never))
			}
		})
	})

	Context("with competing fast and slow rules on a 3x3 raster", func() {
		It("should discard events gone stale through neighbor cascades", func() {
			grid := lattice.NewRasterBuilder().
				WithRows(3).
				WithCols(3).
				Build()

			model, err := ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "off", 1: "on"}).
				WithTransitions([]ca.Transition{
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 1, Orientation: lattice.Horizontal},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
						1.0, "slow"),
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 1, Orientation: lattice.Vertical},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
						1000.0, "fast"),
				}).
				WithInitialCellStates([]int{
					0, 1, 0,
					1, 0, 1,
					0, 1, 0,
				}).
				WithOrientations(2).
				WithSeed(3).
				Build()
			Expect(err).ToNot(HaveOccurred())

			model.Run(1000.0)

			Expect(model.StaleEventsDiscarded()).To(BeNumerically(">", 0))
			expectLinkStatesConsistent(model, grid)
		})
	})

	Context("with a boundary column", func() {
		It("should never mutate boundary cells and keep link states consistent", func() {
			status := make([]lattice.NodeStatus, 16)
			for y := 0; y < 4; y++ {
				status[y*4] = lattice.BoundaryNode
			}
			grid := lattice.NewRasterBuilder().
				WithRows(4).
				WithCols(4).
				WithNodeStatus(status).
				Build()

			model, err := ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "off", 1: "on"}).
				WithTransitions([]ca.Transition{
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 0, Orientation: lattice.Horizontal},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
						1.0, "ignite"),
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 1, Orientation: lattice.Horizontal},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
						1.0, "ignite"),
					ca.NewPairTransition(
						ca.Pair{From: 1, To: 0, Orientation: lattice.Horizontal},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Horizontal},
						1.0, "ignite"),
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 0, Orientation: lattice.Vertical},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
						1.0, "ignite"),
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 1, Orientation: lattice.Vertical},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
						1.0, "ignite"),
					ca.NewPairTransition(
						ca.Pair{From: 1, To: 0, Orientation: lattice.Vertical},
						ca.Pair{From: 1, To: 1, Orientation: lattice.Vertical},
						1.0, "ignite"),
				}).
				WithInitialCellStates(make([]int, 16)).
				WithOrientations(2).
				WithSeed(11).
				Build()
			Expect(err).ToNot(HaveOccurred())

			model.Run(100.0)

			cells := model.CellStates()
			for y := 0; y < 4; y++ {
				Expect(cells[y*4]).To(Equal(0),
					"boundary cell in row %d changed state", y)
				for x := 1; x < 4; x++ {
					Expect(cells[y*4+x]).To(Equal(1),
						"core cell (%d,%d) never ignited", x, y)
				}
			}
			expectLinkStatesConsistent(model, grid)
		})
	})

	Context("horizon policy", func() {
		// Two mutually inverse rules keep a single link firing forever, so
		// the queue never drains and the run stops only at the horizon.
		buildPingPong := func(seed int64) *ca.Model {
			grid := lattice.NewRasterBuilder().
				WithRows(1).
				WithCols(2).
				Build()

			model, err := ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "a", 1: "b"}).
				WithTransitions([]ca.Transition{
					ca.NewPairTransition(
						ca.Pair{From: 0, To: 1, Orientation: lattice.Horizontal},
						ca.Pair{From: 1, To: 0, Orientation: lattice.Horizontal},
						1.0, "flip"),
					ca.NewPairTransition(
						ca.Pair{From: 1, To: 0, Orientation: lattice.Horizontal},
						ca.Pair{From: 0, To: 1, Orientation: lattice.Horizontal},
						1.0, "flop"),
				}).
				WithInitialCellStates([]int{0, 1}).
				WithOrientations(2).
				WithSeed(seed).
				Build()
			Expect(err).ToNot(HaveOccurred())
			return model
		}

		It("should apply the event that crosses the horizon and stop", func() {
			model := buildPingPong(5)
			model.Run(5.0)

			Expect(model.CurrentTime()).To(BeNumerically(">=", 5.0))
			Expect(model.EventsApplied()).To(BeNumerically(">", 0))
		})

		It("should advance identically when run in chunks", func() {
			whole := buildPingPong(5)
			whole.Run(5.0)

			chunked := buildPingPong(5)
			chunked.Run(1.0)
			chunked.Run(2.5)
			chunked.Run(5.0)

			Expect(chunked.CurrentTime()).To(Equal(whole.CurrentTime()))
			Expect(chunked.EventsApplied()).To(Equal(whole.EventsApplied()))
			Expect(chunked.CellStates()).To(Equal(whole.CellStates()))
		})
	})

	Context("determinism", func() {
		buildWeathering := func(seed int64) (*ca.Model, *lattice.Raster) {
			grid := lattice.NewRasterBuilder().
				WithRows(10).
				WithCols(10).
				WithPerimeterBoundary().
				Build()

			initial := make([]int, 100)
			initial[44] = 1
			initial[55] = 1

			model, err := ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "rock", 1: "saprolite"}).
				WithTransitions([]ca.Transition{
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
				}).
				WithInitialCellStates(initial).
				WithOrientations(2).
				WithSeed(seed).
				Build()
			Expect(err).ToNot(HaveOccurred())
			return model, grid
		}

		It("should reproduce the trajectory given the same seed", func() {
			first, _ := buildWeathering(42)
			firstRec := &recorder{}
			first.AcceptHook(firstRec)
			first.Run(5.0)

			second, _ := buildWeathering(42)
			secondRec := &recorder{}
			second.AcceptHook(secondRec)
			second.Run(5.0)

			Expect(second.CellStates()).To(Equal(first.CellStates()))
			Expect(second.LinkStates()).To(Equal(first.LinkStates()))
			Expect(second.CurrentTime()).To(Equal(first.CurrentTime()))
			Expect(secondRec.infos).To(Equal(firstRec.infos))
		})

		It("should keep boundary cells frozen across repeated runs", func() {
			model, grid := buildWeathering(42)
			model.Run(2.0)
			model.Run(4.0)
			model.Run(6.0)

			cells := model.CellStates()
			for n := 0; n < grid.NumNodes(); n++ {
				if !grid.IsCore(n) {
					Expect(cells[n]).To(Equal(0))
				}
			}
			expectLinkStatesConsistent(model, grid)
		})
	})

	Context("state reload and targeted invalidation", func() {
		var (
			grid  *lattice.Raster
			model *ca.Model
		)

		BeforeEach(func() {
			grid = lattice.NewRasterBuilder().
				WithRows(2).
				WithCols(2).
				Build()

			var err error
			model, err = ca.NewBuilder().
				WithGrid(grid).
				WithCellStateNames(map[int]string{0: "off", 1: "on"}).
				WithTransitions([]ca.Transition{
					ca.NewTransition(1, 3, 1.0, ""),
				}).
				WithInitialCellStates([]int{0, 0, 0, 0}).
				WithOrientations(2).
				Build()
			Expect(err).ToNot(HaveOccurred())
		})

		It("should re-derive and reschedule after SetCellStates", func() {
			Expect(model.SetCellStates([]int{0, 1, 0, 1})).To(Succeed())

			expectLinkStatesConsistent(model, grid)
			model.Run(1000.0)
			Expect(model.CellStates()).To(Equal([]int{1, 1, 1, 1}))
		})

		It("should reject a reload with a bad length or state", func() {
			Expect(model.SetCellStates([]int{0, 1})).To(
				BeAssignableToTypeOf(&ca.ConfigError{}))
			Expect(model.SetCellStates([]int{0, 1, 0, 9})).To(
				BeAssignableToTypeOf(&ca.ConfigError{}))
		})

		It("should refresh the identified links on InvalidateLinks", func() {
			before := model.NextUpdateTime(0)
			Expect(before).To(Equal(ca.Never))

			model.InvalidateLinks([]int{0, lattice.NoLink})

			// Link 0 still has no outgoing transitions, so it stays parked.
			Expect(model.NextUpdateTime(0)).To(Equal(ca.Never))
			expectLinkStatesConsistent(model, grid)
		})
	})
})
