package graph

import (
	"github.com/pkg/errors"
)

const (
	// Below this amount of vertices memory of adjacency matrix does not really matter
	matrixVerticesThreshold = 500
	// Adjacency matrix is chosen when amount of edges is at least V*(V-matrixDensityOffset)
	matrixDensityOffset = 100
)

func initGraph(g Graph, vertexCount int, edges []Edge) error {
	for i := 0; i < vertexCount; i++ {
		err := g.AddVertex(VertexID(i))
		if err != nil {
			return errors.Wrap(err, "Can't add vertex")
		}
	}
	for _, edge := range edges {
		err := g.AddEdge(edge.From, edge.To, edge.Weight)
		if err != nil {
			return errors.Wrap(err, "Can't add edge")
		}
	}
	return nil
}

// CreateAdjacencyListGraph returns adjacency list graph with vertices [0, vertexCount) and given edges
func CreateAdjacencyListGraph(vertexCount int, edges []Edge) (*AdjacencyListGraph, error) {
	g := NewAdjacencyListGraph()
	if err := initGraph(g, vertexCount, edges); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateAdjacencyMatrixGraph returns adjacency matrix graph with vertices [0, vertexCount) and given edges
func CreateAdjacencyMatrixGraph(vertexCount int, edges []Edge) (*AdjacencyMatrixGraph, error) {
	g := NewAdjacencyMatrixGraph()
	if err := initGraph(g, vertexCount, edges); err != nil {
		return nil, err
	}
	return g, nil
}

// UseMatrix reports whether adjacency matrix should be used for graph of given size.
//
// The main disadvantage of adjacency matrix is its memory complexity (it is better in almost everything else),
// but it does not matter if either vertex count is small or adjacency lists would consume about that much memory anyway.
func UseMatrix(vertexCount, edgeCount int) bool {
	return vertexCount < matrixVerticesThreshold || edgeCount >= vertexCount*(vertexCount-matrixDensityOffset)
}

// CreateGraph returns graph with vertices [0, vertexCount) and given edges.
// Implementation is picked by UseMatrix
func CreateGraph(vertexCount int, edges []Edge) (Graph, error) {
	var g Graph
	if UseMatrix(vertexCount, len(edges)) {
		g = NewAdjacencyMatrixGraph()
	} else {
		g = NewAdjacencyListGraph()
	}
	if err := initGraph(g, vertexCount, edges); err != nil {
		return nil, err
	}
	return g, nil
}
