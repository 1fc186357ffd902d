package lattice_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lattica/lattice"
)

var _ = Describe("Hex", func() {
	Context("oriented, 2x2", func() {
		var grid *lattice.Hex

		BeforeEach(func() {
			grid = lattice.NewHexBuilder().
				WithRows(2).
				WithCols(2).
				WithOrientations(3).
				Build()
		})

		It("should wire east and the two upward diagonals", func() {
			// Row 0: 0-1 east, 0-2 northeast, 1-3 northeast, 1-2 northwest.
			// Row 1: 2-3 east.
			Expect(grid.NumActiveLinks()).To(Equal(5))

			type edge struct{ tail, head, orient int }
			var edges []edge
			for l := 0; l < grid.NumActiveLinks(); l++ {
				tail, head := grid.LinkEnds(l)
				edges = append(edges, edge{tail, head, grid.LinkOrientation(l)})
			}
			Expect(edges).To(ConsistOf(
				edge{0, 1, lattice.HexEast},
				edge{0, 2, lattice.HexNorthEast},
				edge{1, 3, lattice.HexNorthEast},
				edge{1, 2, lattice.HexNorthWest},
				edge{2, 3, lattice.HexEast},
			))
		})

		It("should report three orientation classes", func() {
			Expect(grid.NumOrientations()).To(Equal(3))
		})
	})

	Context("non-oriented", func() {
		It("should collapse every link to orientation zero", func() {
			grid := lattice.NewHexBuilder().
				WithRows(3).
				WithCols(3).
				Build()

			Expect(grid.NumOrientations()).To(Equal(1))
			for l := 0; l < grid.NumActiveLinks(); l++ {
				Expect(grid.LinkOrientation(l)).To(Equal(0))
			}
		})
	})

	Context("odd-r row offset", func() {
		It("should shift diagonal neighbors on odd rows", func() {
			grid := lattice.NewHexBuilder().
				WithRows(3).
				WithCols(3).
				WithOrientations(3).
				Build()

			// Node 4 is (1,1), an odd row: northeast is (2,2)=8,
			// northwest is (1,2)=7.
			hasEdge := func(tail, head, orient int) bool {
				for l := 0; l < grid.NumActiveLinks(); l++ {
					t, h := grid.LinkEnds(l)
					if t == tail && h == head && grid.LinkOrientation(l) == orient {
						return true
					}
				}
				return false
			}
			Expect(hasEdge(4, 8, lattice.HexNorthEast)).To(BeTrue())
			Expect(hasEdge(4, 7, lattice.HexNorthWest)).To(BeTrue())

			// Node 1 is (1,0), an even row: northeast is (1,1)=4,
			// northwest is (0,1)=3.
			Expect(hasEdge(1, 4, lattice.HexNorthEast)).To(BeTrue())
			Expect(hasEdge(1, 3, lattice.HexNorthWest)).To(BeTrue())
		})
	})

	It("should panic on an unsupported orientation count", func() {
		Expect(func() {
			lattice.NewHexBuilder().WithOrientations(2)
		}).To(Panic())
	})

	Context("with a perimeter boundary", func() {
		It("should keep only links with a core endpoint", func() {
			grid := lattice.NewHexBuilder().
				WithRows(3).
				WithCols(3).
				WithPerimeterBoundary().
				Build()

			for l := 0; l < grid.NumActiveLinks(); l++ {
				tail, head := grid.LinkEnds(l)
				Expect(grid.IsCore(tail) || grid.IsCore(head)).To(BeTrue())
			}
		})
	})
})
