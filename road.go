package trafficsim

import (
	"fmt"

	"github.com/LdDl/trafficsim/graph"
)

// RoadKey identifies road by its edge in graph
type RoadKey struct {
	From graph.VertexID
	To   graph.VertexID
}

func (key RoadKey) String() string {
	return fmt.Sprintf("%d->%d", key.From, key.To)
}

// Road is a set of static attributes of graph's edge
type Road struct {
	// Quality is in [0, 1]: 1 means ideal road
	Quality float64
	// Lanes is at least 1
	Lanes int
	Name  string
}

// RoadRecord binds road attributes to an edge
type RoadRecord struct {
	From graph.VertexID
	To   graph.VertexID
	Road Road
}

// DefaultRoad is used for every edge without explicit road attributes
func DefaultRoad() Road {
	return Road{
		Quality: 1.0,
		Lanes:   1,
	}
}
