package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// VertexID is identifier of a vertex. It is 4 bytes wide to match binary format
type VertexID int32

// Edge is a directed weighted connection between two vertices. Used for bulk graph construction
type Edge struct {
	From   VertexID
	To     VertexID
	Weight float64
}

var (
	ErrVertexExists    = errors.New("vertex already exists")
	ErrVertexNotFound  = errors.New("vertex does not exist")
	ErrEdgeExists      = errors.New("edge already exists")
	ErrEdgeNotFound    = errors.New("edge does not exist")
	ErrFormat          = errors.New("invalid graph format")
	ErrVersionMismatch = errors.New("unsupported graph format version")
	ErrPathNotFound    = errors.New("path not found")
)

// Graph is a directed weighted graph.
//
// Two implementations are provided: AdjacencyListGraph (memory O(V+E)) and AdjacencyMatrixGraph (memory O(V^2), but O(1) edge access).
// Use CreateGraph to pick one depending on expected size and density.
type Graph interface {
	// HasVertex reports whether vertex exists
	HasVertex(x VertexID) bool
	// GetVertices returns all vertices in ascending order
	GetVertices() []VertexID
	// GetEdge returns weight of edge x->y. Second value is false if there is no such edge
	GetEdge(x, y VertexID) (float64, bool, error)
	// GetNeighbors returns every vertex y having edge x->y
	GetNeighbors(x VertexID) ([]VertexID, error)
	AddVertex(x VertexID) error
	// RemoveVertex removes vertex and every edge referencing it. Returns false if there was no such vertex
	RemoveVertex(x VertexID) bool
	AddEdge(x, y VertexID, weight float64) error
	SetEdge(x, y VertexID, weight float64) error
	// RemoveEdge returns false if there was no such edge
	RemoveEdge(x, y VertexID) bool
	// Clear drops all vertices and edges
	Clear()
}

func errVertexExists(x VertexID) error {
	return errors.Wrapf(ErrVertexExists, "vertex %d", x)
}

func errVertexNotFound(x VertexID) error {
	return errors.Wrapf(ErrVertexNotFound, "vertex %d", x)
}

func errEdgeExists(x, y VertexID) error {
	return errors.Wrapf(ErrEdgeExists, "edge %d->%d", x, y)
}

func errEdgeNotFound(x, y VertexID) error {
	return errors.Wrapf(ErrEdgeNotFound, "edge %d->%d", x, y)
}

func sortVertices(vertices []VertexID) []VertexID {
	sort.Slice(vertices, func(i, j int) bool {
		return vertices[i] < vertices[j]
	})
	return vertices
}

// Dump returns human readable representation of graph: every vertex followed by its outgoing edges
func Dump(g Graph) string {
	var b strings.Builder
	for _, x := range g.GetVertices() {
		fmt.Fprintf(&b, "%d\n", x)
		neighbors, _ := g.GetNeighbors(x)
		for _, y := range neighbors {
			weight, _, _ := g.GetEdge(x, y)
			fmt.Fprintf(&b, " ---%v--->%d\n", weight, y)
		}
	}
	return b.String()
}

// Edges returns every edge of graph. Edges are grouped by source vertex in ascending order
func Edges(g Graph) []Edge {
	edges := []Edge{}
	for _, x := range g.GetVertices() {
		neighbors, _ := g.GetNeighbors(x)
		for _, y := range neighbors {
			weight, _, _ := g.GetEdge(x, y)
			edges = append(edges, Edge{From: x, To: y, Weight: weight})
		}
	}
	return edges
}
