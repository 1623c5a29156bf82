package graph

/*
AdjacencyListGraph implements Graph by using adjacency lists.
V represents the number of vertices, E represents the number of edges

Memory complexity: O(V + E)

Time complexity:

	HasVertex: O(1)
	GetEdge: O(out-degree)
	GetVertices: O(V log V)
	GetNeighbors: O(1)
	AddVertex: O(1)
	RemoveVertex: O(E)
	AddEdge: O(1) (after presence check of O(out-degree))
	SetEdge: O(out-degree)
	RemoveEdge: O(out-degree)
*/
type AdjacencyListGraph struct {
	adjacency map[VertexID]*adjacencyList
}

type adjacencyList struct {
	neighbors []VertexID
	weights   []float64
}

func (list *adjacencyList) find(y VertexID) int {
	for i, neighbor := range list.neighbors {
		if neighbor == y {
			return i
		}
	}
	return -1
}

func (list *adjacencyList) remove(idx int) {
	neighbors := make([]VertexID, 0, len(list.neighbors)-1)
	neighbors = append(neighbors, list.neighbors[:idx]...)
	list.neighbors = append(neighbors, list.neighbors[idx+1:]...)
	weights := make([]float64, 0, len(list.weights)-1)
	weights = append(weights, list.weights[:idx]...)
	list.weights = append(weights, list.weights[idx+1:]...)
}

// NewAdjacencyListGraph returns empty adjacency list graph
func NewAdjacencyListGraph() *AdjacencyListGraph {
	return &AdjacencyListGraph{
		adjacency: make(map[VertexID]*adjacencyList),
	}
}

func (g *AdjacencyListGraph) HasVertex(x VertexID) bool {
	_, ok := g.adjacency[x]
	return ok
}

func (g *AdjacencyListGraph) GetVertices() []VertexID {
	vertices := make([]VertexID, 0, len(g.adjacency))
	for x := range g.adjacency {
		vertices = append(vertices, x)
	}
	return sortVertices(vertices)
}

func (g *AdjacencyListGraph) GetEdge(x, y VertexID) (float64, bool, error) {
	list, ok := g.adjacency[x]
	if !ok {
		return 0, false, errVertexNotFound(x)
	}
	idx := list.find(y)
	if idx < 0 {
		return 0, false, nil
	}
	return list.weights[idx], true, nil
}

// GetNeighbors returns neighbors in order of edges insertion.
// Returned slice is the stored one: it must not be modified by caller and it stays valid until next mutation of graph
func (g *AdjacencyListGraph) GetNeighbors(x VertexID) ([]VertexID, error) {
	list, ok := g.adjacency[x]
	if !ok {
		return nil, errVertexNotFound(x)
	}
	return list.neighbors[:len(list.neighbors):len(list.neighbors)], nil
}

func (g *AdjacencyListGraph) AddVertex(x VertexID) error {
	if g.HasVertex(x) {
		return errVertexExists(x)
	}
	g.adjacency[x] = &adjacencyList{
		neighbors: make([]VertexID, 0),
		weights:   make([]float64, 0),
	}
	return nil
}

func (g *AdjacencyListGraph) RemoveVertex(x VertexID) bool {
	if !g.HasVertex(x) {
		return false
	}
	for _, list := range g.adjacency {
		if idx := list.find(x); idx >= 0 {
			list.remove(idx)
		}
	}
	delete(g.adjacency, x)
	return true
}

func (g *AdjacencyListGraph) AddEdge(x, y VertexID, weight float64) error {
	list, ok := g.adjacency[x]
	if !ok {
		return errVertexNotFound(x)
	}
	if !g.HasVertex(y) {
		return errVertexNotFound(y)
	}
	if list.find(y) >= 0 {
		return errEdgeExists(x, y)
	}
	list.neighbors = append(list.neighbors, y)
	list.weights = append(list.weights, weight)
	return nil
}

func (g *AdjacencyListGraph) SetEdge(x, y VertexID, weight float64) error {
	list, ok := g.adjacency[x]
	if !ok {
		return errVertexNotFound(x)
	}
	if !g.HasVertex(y) {
		return errVertexNotFound(y)
	}
	idx := list.find(y)
	if idx < 0 {
		return errEdgeNotFound(x, y)
	}
	list.weights[idx] = weight
	return nil
}

func (g *AdjacencyListGraph) RemoveEdge(x, y VertexID) bool {
	list, ok := g.adjacency[x]
	if !ok {
		return false
	}
	idx := list.find(y)
	if idx < 0 {
		return false
	}
	list.remove(idx)
	return true
}

func (g *AdjacencyListGraph) Clear() {
	g.adjacency = make(map[VertexID]*adjacencyList)
}
