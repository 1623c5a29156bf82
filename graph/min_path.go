package graph

import (
	"math"

	"github.com/pkg/errors"
)

// DistanceFunc returns cost of moving along edge x->y
type DistanceFunc func(x, y VertexID) float64

// Path is a result of shortest path search
type Path struct {
	Length float64
	// Vertices to traverse after the source one (source itself is not included)
	Vertices []VertexID
}

type vertexState struct {
	distance float64
	reached  bool
	visited  bool
	path     []VertexID
}

// EdgeWeight returns DistanceFunc which uses weights of graph's edges
func EdgeWeight(g Graph) DistanceFunc {
	return func(x, y VertexID) float64 {
		weight, _, _ := g.GetEdge(x, y)
		return weight
	}
}

// MinPath finds optimal path from source to target by Dijkstra's algorithm.
// If distance is nil then edge weights are used.
//
// Minimum is extracted by linear scan over all vertices, so overall complexity is O(V^2).
// Every vertex keeps its whole best path instead of predecessor pointer.
func MinPath(g Graph, source, target VertexID, distance DistanceFunc) (*Path, error) {
	if !g.HasVertex(source) {
		return nil, errors.Wrap(errVertexNotFound(source), "Can't find source")
	}
	if !g.HasVertex(target) {
		return nil, errors.Wrap(errVertexNotFound(target), "Can't find target")
	}
	if source == target {
		return &Path{Length: 0, Vertices: []VertexID{}}, nil
	}
	if distance == nil {
		distance = EdgeWeight(g)
	}

	vertices := g.GetVertices()
	states := make(map[VertexID]*vertexState, len(vertices))
	for _, x := range vertices {
		states[x] = &vertexState{}
	}
	states[source].reached = true
	states[source].path = []VertexID{}

	for {
		var current VertexID
		var currentState *vertexState
		for _, x := range vertices {
			state := states[x]
			if state.visited || !state.reached {
				continue
			}
			if currentState == nil || state.distance < currentState.distance {
				current, currentState = x, state
			}
		}
		if currentState == nil || current == target {
			break
		}
		currentState.visited = true

		neighbors, err := g.GetNeighbors(current)
		if err != nil {
			return nil, errors.Wrap(err, "Can't get neighbors")
		}
		for _, y := range neighbors {
			state := states[y]
			if state.visited {
				continue
			}
			newDistance := currentState.distance + distance(current, y)
			// Impassable edge
			if math.IsInf(newDistance, 1) {
				continue
			}
			if !state.reached || newDistance < state.distance {
				state.distance = newDistance
				state.reached = true
				newPath := make([]VertexID, len(currentState.path), len(currentState.path)+1)
				copy(newPath, currentState.path)
				state.path = append(newPath, y)
			}
		}
	}

	targetState := states[target]
	if !targetState.reached {
		return nil, errors.Wrapf(ErrPathNotFound, "%d->%d", source, target)
	}
	return &Path{Length: targetState.distance, Vertices: targetState.path}, nil
}
