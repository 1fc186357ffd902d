package lattice

import "fmt"

// Hex is a hexagonal lattice in odd-r offset coordinates. Nodes are
// numbered row-major. Each node links to its east, northeast, and
// northwest neighbors, so every interior node has degree six. With one
// orientation class the lattice is non-oriented; with three, east links
// carry HexEast, and the two upward diagonals HexNorthEast and
// HexNorthWest.
type Hex struct {
	rows, cols   int
	orientations int
	status       []NodeStatus
	links        []link
	incidence    [][]int
}

// HexBuilder can build hex lattices.
type HexBuilder struct {
	rows, cols        int
	orientations      int
	status            []NodeStatus
	perimeterBoundary bool
}

// NewHexBuilder returns a builder for a non-oriented hex lattice.
func NewHexBuilder() HexBuilder {
	return HexBuilder{orientations: 1}
}

// WithRows sets the number of node rows.
func (b HexBuilder) WithRows(rows int) HexBuilder {
	b.rows = rows
	return b
}

// WithCols sets the number of node columns.
func (b HexBuilder) WithCols(cols int) HexBuilder {
	b.cols = cols
	return b
}

// WithOrientations selects 1 (non-oriented) or 3 (oriented) link classes.
func (b HexBuilder) WithOrientations(n int) HexBuilder {
	if n != 1 && n != 3 {
		panic(fmt.Sprintf("hex lattice supports 1 or 3 orientations, got %d", n))
	}
	b.orientations = n
	return b
}

// WithPerimeterBoundary marks every edge node as a boundary node.
func (b HexBuilder) WithPerimeterBoundary() HexBuilder {
	b.perimeterBoundary = true
	return b
}

// WithNodeStatus sets an explicit per-node status array.
func (b HexBuilder) WithNodeStatus(status []NodeStatus) HexBuilder {
	b.status = status
	return b
}

// Build creates the lattice.
func (b HexBuilder) Build() *Hex {
	if b.rows < 1 || b.cols < 1 {
		panic(fmt.Sprintf("invalid hex shape %dx%d", b.rows, b.cols))
	}
	numNodes := b.rows * b.cols

	status := b.status
	if status == nil {
		status = make([]NodeStatus, numNodes)
		if b.perimeterBoundary {
			for y := 0; y < b.rows; y++ {
				for x := 0; x < b.cols; x++ {
					if x == 0 || x == b.cols-1 || y == 0 || y == b.rows-1 {
						status[y*b.cols+x] = BoundaryNode
					}
				}
			}
		}
	}
	if len(status) != numNodes {
		panic(fmt.Sprintf("status array has %d entries, grid has %d nodes",
			len(status), numNodes))
	}

	g := &Hex{
		rows:         b.rows,
		cols:         b.cols,
		orientations: b.orientations,
		status:       status,
	}
	g.createLinks()
	width := maxDegree(numNodes, g.links)
	g.incidence = buildIncidence(numNodes, width, g.links)
	return g
}

func (g *Hex) createLinks() {
	for y := 0; y < g.rows; y++ {
		shift := y % 2
		for x := 0; x < g.cols; x++ {
			tail := y*g.cols + x
			if x < g.cols-1 {
				g.addLink(tail, tail+1, HexEast)
			}
			if y < g.rows-1 {
				ne := x + shift
				if ne < g.cols {
					g.addLink(tail, (y+1)*g.cols+ne, HexNorthEast)
				}
				nw := x - 1 + shift
				if nw >= 0 {
					g.addLink(tail, (y+1)*g.cols+nw, HexNorthWest)
				}
			}
		}
	}
}

func (g *Hex) addLink(tail, head, orient int) {
	if g.status[tail] != CoreNode && g.status[head] != CoreNode {
		return
	}
	if g.orientations == 1 {
		orient = 0
	}
	g.links = append(g.links, link{tail: tail, head: head, orient: orient})
}

// NumOrientations returns the number of link orientation classes.
func (g *Hex) NumOrientations() int { return g.orientations }

// Rows returns the number of node rows.
func (g *Hex) Rows() int { return g.rows }

// Cols returns the number of node columns.
func (g *Hex) Cols() int { return g.cols }

func (g *Hex) NumNodes() int { return g.rows * g.cols }

func (g *Hex) NumActiveLinks() int { return len(g.links) }

func (g *Hex) LinkEnds(l int) (tail, head int) {
	return g.links[l].tail, g.links[l].head
}

func (g *Hex) LinkOrientation(l int) int { return g.links[l].orient }

func (g *Hex) IsCore(node int) bool { return g.status[node] == CoreNode }

func (g *Hex) IncidentActiveLinks(node int) []int { return g.incidence[node] }
