package graph

import (
	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// ContractedRouter answers shortest path queries by contraction hierarchies.
//
// Router is built on snapshot of a graph: further modifications of source graph are not visible to it.
// Preparation is expensive, but queries are way faster than MinPath, so it fits bulk routing (e.g. seeding cars).
type ContractedRouter struct {
	vertices map[VertexID]struct{}
	engine   ch.Graph
}

// NewContractedRouter copies vertices and edges of given graph and prepares contraction hierarchies
func NewContractedRouter(g Graph) (*ContractedRouter, error) {
	router := &ContractedRouter{
		vertices: make(map[VertexID]struct{}),
		engine:   ch.Graph{},
	}
	vertices := g.GetVertices()
	for _, x := range vertices {
		err := router.engine.CreateVertex(int64(x))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex %d", x)
		}
		router.vertices[x] = struct{}{}
	}
	for _, edge := range Edges(g) {
		err := router.engine.AddEdge(int64(edge.From), int64(edge.To), edge.Weight)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add edge %d->%d", edge.From, edge.To)
		}
	}
	if len(vertices) > 0 {
		router.engine.PrepareContractionHierarchies()
	}
	return router, nil
}

// ShortestPath returns path in the same shape as MinPath does
func (router *ContractedRouter) ShortestPath(source, target VertexID) (*Path, error) {
	if _, ok := router.vertices[source]; !ok {
		return nil, errors.Wrap(errVertexNotFound(source), "Can't find source")
	}
	if _, ok := router.vertices[target]; !ok {
		return nil, errors.Wrap(errVertexNotFound(target), "Can't find target")
	}
	if source == target {
		return &Path{Length: 0, Vertices: []VertexID{}}, nil
	}
	cost, vertices := router.engine.ShortestPath(int64(source), int64(target))
	if cost < 0 || len(vertices) == 0 {
		return nil, errors.Wrapf(ErrPathNotFound, "%d->%d", source, target)
	}
	path := &Path{
		Length:   cost,
		Vertices: make([]VertexID, 0, len(vertices)),
	}
	for i, v := range vertices {
		// Engine includes source vertex
		if i == 0 && VertexID(v) == source {
			continue
		}
		path.Vertices = append(path.Vertices, VertexID(v))
	}
	return path, nil
}
