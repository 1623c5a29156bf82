package graph

/*
AdjacencyMatrixGraph implements Graph by using adjacency matrix.
Every vertex occupies a slot; row of slot holds a cell for each destination slot.
Rows grow on demand, so missing tail of row means "no edge".
V represents the number of vertices, E represents the number of edges

Memory complexity: O(V^2)

Time complexity:

	HasVertex: O(1)
	GetEdge: O(1)
	GetVertices: O(V log V)
	GetNeighbors: O(V)
	AddVertex: O(1)
	RemoveVertex: O(V)
	AddEdge: O(1)
	SetEdge: O(1)
	RemoveEdge: O(1)
*/
type AdjacencyMatrixGraph struct {
	slots    map[VertexID]int
	vertices []VertexID
	occupied []bool
	matrix   [][]matrixCell
	free     []int
}

type matrixCell struct {
	weight  float64
	present bool
}

// NewAdjacencyMatrixGraph returns empty adjacency matrix graph
func NewAdjacencyMatrixGraph() *AdjacencyMatrixGraph {
	g := &AdjacencyMatrixGraph{}
	g.Clear()
	return g
}

func (g *AdjacencyMatrixGraph) cell(i, j int) matrixCell {
	row := g.matrix[i]
	if j >= len(row) {
		return matrixCell{}
	}
	return row[j]
}

func (g *AdjacencyMatrixGraph) setCell(i, j int, c matrixCell) {
	row := g.matrix[i]
	if j >= len(row) {
		if !c.present {
			return
		}
		grown := make([]matrixCell, j+1, max(j+1, 2*len(row)))
		copy(grown, row)
		row = grown
		g.matrix[i] = row
	}
	row[j] = c
}

func (g *AdjacencyMatrixGraph) HasVertex(x VertexID) bool {
	_, ok := g.slots[x]
	return ok
}

func (g *AdjacencyMatrixGraph) GetVertices() []VertexID {
	vertices := make([]VertexID, 0, len(g.slots))
	for x := range g.slots {
		vertices = append(vertices, x)
	}
	return sortVertices(vertices)
}

func (g *AdjacencyMatrixGraph) GetEdge(x, y VertexID) (float64, bool, error) {
	i, ok := g.slots[x]
	if !ok {
		return 0, false, errVertexNotFound(x)
	}
	j, ok := g.slots[y]
	if !ok {
		return 0, false, nil
	}
	c := g.cell(i, j)
	return c.weight, c.present, nil
}

// GetNeighbors returns neighbors in order of their slots
func (g *AdjacencyMatrixGraph) GetNeighbors(x VertexID) ([]VertexID, error) {
	i, ok := g.slots[x]
	if !ok {
		return nil, errVertexNotFound(x)
	}
	neighbors := make([]VertexID, 0)
	for j, c := range g.matrix[i] {
		if c.present {
			neighbors = append(neighbors, g.vertices[j])
		}
	}
	return neighbors, nil
}

func (g *AdjacencyMatrixGraph) AddVertex(x VertexID) error {
	if g.HasVertex(x) {
		return errVertexExists(x)
	}
	var slot int
	if n := len(g.free); n > 0 {
		slot = g.free[n-1]
		g.free = g.free[:n-1]
		g.vertices[slot] = x
		g.occupied[slot] = true
	} else {
		slot = len(g.vertices)
		g.vertices = append(g.vertices, x)
		g.occupied = append(g.occupied, true)
		g.matrix = append(g.matrix, nil)
	}
	g.slots[x] = slot
	return nil
}

func (g *AdjacencyMatrixGraph) RemoveVertex(x VertexID) bool {
	slot, ok := g.slots[x]
	if !ok {
		return false
	}
	for i := range g.matrix {
		if g.occupied[i] {
			g.setCell(i, slot, matrixCell{})
		}
	}
	g.matrix[slot] = nil
	g.occupied[slot] = false
	g.free = append(g.free, slot)
	delete(g.slots, x)
	return true
}

func (g *AdjacencyMatrixGraph) AddEdge(x, y VertexID, weight float64) error {
	i, ok := g.slots[x]
	if !ok {
		return errVertexNotFound(x)
	}
	j, ok := g.slots[y]
	if !ok {
		return errVertexNotFound(y)
	}
	if g.cell(i, j).present {
		return errEdgeExists(x, y)
	}
	g.setCell(i, j, matrixCell{weight: weight, present: true})
	return nil
}

func (g *AdjacencyMatrixGraph) SetEdge(x, y VertexID, weight float64) error {
	i, ok := g.slots[x]
	if !ok {
		return errVertexNotFound(x)
	}
	j, ok := g.slots[y]
	if !ok {
		return errVertexNotFound(y)
	}
	if !g.cell(i, j).present {
		return errEdgeNotFound(x, y)
	}
	g.setCell(i, j, matrixCell{weight: weight, present: true})
	return nil
}

func (g *AdjacencyMatrixGraph) RemoveEdge(x, y VertexID) bool {
	i, ok := g.slots[x]
	if !ok {
		return false
	}
	j, ok := g.slots[y]
	if !ok || !g.cell(i, j).present {
		return false
	}
	g.setCell(i, j, matrixCell{})
	return true
}

func (g *AdjacencyMatrixGraph) Clear() {
	g.slots = make(map[VertexID]int)
	g.vertices = make([]VertexID, 0)
	g.occupied = make([]bool, 0)
	g.matrix = make([][]matrixCell, 0)
	g.free = make([]int, 0)
}
