package lattice

import "fmt"

// Raster is an axis-aligned rectangular lattice. Nodes are numbered
// row-major, node = y*cols + x. Horizontal links point west-to-east and
// carry orientation 0; vertical links point south-to-north and carry
// orientation 1.
type Raster struct {
	rows, cols int
	status     []NodeStatus
	links      []link
	incidence  [][]int
}

// RasterBuilder can build raster lattices.
type RasterBuilder struct {
	rows, cols        int
	status            []NodeStatus
	perimeterBoundary bool
}

// NewRasterBuilder returns a builder with every node core by default.
func NewRasterBuilder() RasterBuilder {
	return RasterBuilder{}
}

// WithRows sets the number of node rows.
func (b RasterBuilder) WithRows(rows int) RasterBuilder {
	b.rows = rows
	return b
}

// WithCols sets the number of node columns.
func (b RasterBuilder) WithCols(cols int) RasterBuilder {
	b.cols = cols
	return b
}

// WithPerimeterBoundary marks every edge node as a boundary node.
func (b RasterBuilder) WithPerimeterBoundary() RasterBuilder {
	b.perimeterBoundary = true
	return b
}

// WithNodeStatus sets an explicit per-node status array. It overrides
// WithPerimeterBoundary.
func (b RasterBuilder) WithNodeStatus(status []NodeStatus) RasterBuilder {
	b.status = status
	return b
}

// Build creates the lattice.
func (b RasterBuilder) Build() *Raster {
	if b.rows < 1 || b.cols < 1 {
		panic(fmt.Sprintf("invalid raster shape %dx%d", b.rows, b.cols))
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

	g := &Raster{
		rows:   b.rows,
		cols:   b.cols,
		status: status,
	}
	g.createLinks()
	width := maxDegree(numNodes, g.links)
	g.incidence = buildIncidence(numNodes, width, g.links)
	return g
}

// createLinks enumerates active links node by node, east neighbor first,
// then north neighbor. The orientation class comes from the y difference
// between head and tail, normalized so that dy=0 is horizontal and dy=1
// vertical.
func (g *Raster) createLinks() {
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			tail := y*g.cols + x
			if x < g.cols-1 {
				g.addLink(tail, tail+1)
			}
			if y < g.rows-1 {
				g.addLink(tail, tail+g.cols)
			}
		}
	}
}

func (g *Raster) addLink(tail, head int) {
	if g.status[tail] != CoreNode && g.status[head] != CoreNode {
		return
	}
	dy := head/g.cols - tail/g.cols
	orient := Horizontal
	if dy != 0 {
		orient = Vertical
	}
	g.links = append(g.links, link{tail: tail, head: head, orient: orient})
}

// Rows returns the number of node rows.
func (g *Raster) Rows() int { return g.rows }

// Cols returns the number of node columns.
func (g *Raster) Cols() int { return g.cols }

// NodeXY returns the column and row of a node.
func (g *Raster) NodeXY(node int) (x, y int) {
	return node % g.cols, node / g.cols
}

func (g *Raster) NumNodes() int { return g.rows * g.cols }

func (g *Raster) NumActiveLinks() int { return len(g.links) }

func (g *Raster) LinkEnds(l int) (tail, head int) {
	return g.links[l].tail, g.links[l].head
}

func (g *Raster) LinkOrientation(l int) int { return g.links[l].orient }

func (g *Raster) IsCore(node int) bool { return g.status[node] == CoreNode }

func (g *Raster) IncidentActiveLinks(node int) []int { return g.incidence[node] }
