package trafficsim

import (
	"time"

	"github.com/LdDl/trafficsim/graph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// wayDirection is single edge candidate produced by way segment
type wayDirection struct {
	key  RoadKey
	geom orb.LineString
	road Road
}

// buildNetwork splits ways into segments between junctions and turns them into graph edges
func (data *osmDataRaw) buildNetwork(cfg *OsmConfiguration) (*Network, error) {
	st := time.Now()

	missingNodes := 0
	for _, way := range data.ways {
		kept := way.Nodes[:0]
		for _, nodeID := range way.Nodes {
			if _, ok := data.nodes[nodeID]; !ok {
				missingNodes++
				continue
			}
			kept = append(kept, nodeID)
		}
		way.Nodes = kept
	}
	if missingNodes > 0 && cfg.Verbose {
		log.WithField("references", missingNodes).Warning("Ways refer to nodes absent in the data")
	}

	// Endpoints and signals are counted twice so ways are always split there
	for _, way := range data.ways {
		if len(way.Nodes) < 2 {
			continue
		}
		for i, nodeID := range way.Nodes {
			node := data.nodes[nodeID]
			node.useCount++
			if i == 0 || i == len(way.Nodes)-1 || node.controlType == IS_SIGNAL {
				node.useCount++
			}
		}
	}

	net := newNetwork(cfg.Units)
	vertices := make(map[osm.NodeID]graph.VertexID)
	vertexOf := func(nodeID osm.NodeID) graph.VertexID {
		if vertex, ok := vertices[nodeID]; ok {
			return vertex
		}
		vertex := graph.VertexID(len(vertices))
		vertices[nodeID] = vertex
		net.OSMNodes[vertex] = nodeID
		net.Positions[vertex] = data.nodes[nodeID].Point
		return vertex
	}

	directions := []wayDirection{}
	index := make(map[RoadKey]int)
	addDirection := func(direction wayDirection) {
		if idx, ok := index[direction.key]; ok {
			// Parallel segments between the same pair of junctions: the shorter one wins
			if geo.LengthHaversign(direction.geom) < geo.LengthHaversign(directions[idx].geom) {
				directions[idx] = direction
			}
			return
		}
		index[direction.key] = len(directions)
		directions = append(directions, direction)
	}

	loops := 0
	for _, way := range data.ways {
		for _, segment := range data.splitWay(way) {
			if segment[0] == segment[len(segment)-1] {
				loops++
				continue
			}
			source := vertexOf(segment[0])
			target := vertexOf(segment[len(segment)-1])
			geom := make(orb.LineString, 0, len(segment))
			for _, nodeID := range segment {
				geom = append(geom, data.nodes[nodeID].Point)
			}
			reversed := geom.Clone()
			reversed.Reverse()
			forward := wayDirection{
				key:  RoadKey{From: source, To: target},
				geom: geom,
				road: roadFromHighway(way.Highway, way.forwardLanes(), way.Name),
			}
			backward := wayDirection{
				key:  RoadKey{From: target, To: source},
				geom: reversed,
				road: roadFromHighway(way.Highway, way.backwardLanes(), way.Name),
			}
			switch {
			case way.Oneway && way.IsReversed:
				addDirection(backward)
			case way.Oneway:
				addDirection(forward)
			default:
				addDirection(forward)
				addDirection(backward)
			}
		}
	}
	if loops > 0 && cfg.Verbose {
		log.WithField("segments", loops).Warning("Closed segments without junctions have been skipped")
	}

	scale := cfg.scale()
	edges := make([]graph.Edge, 0, len(directions))
	for _, direction := range directions {
		edges = append(edges, graph.Edge{
			From:   direction.key.From,
			To:     direction.key.To,
			Weight: geo.LengthHaversign(direction.geom) * scale,
		})
		net.Roads = append(net.Roads, RoadRecord{From: direction.key.From, To: direction.key.To, Road: direction.road})
		net.Geometries[direction.key] = direction.geom
	}

	g, err := graph.CreateGraph(len(vertices), edges)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create graph")
	}
	net.Graph = g

	for nodeID, vertex := range vertices {
		if data.nodes[nodeID].controlType != IS_SIGNAL {
			continue
		}
		neighbors, err := g.GetNeighbors(vertex)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't get neighbors of signal vertex %d", vertex)
		}
		net.Lights[vertex] = NewTrafficLight(DefaultTrafficLightRatio, DefaultTrafficLightTime, neighbors[:len(neighbors)/2], true)
	}

	if cfg.Verbose {
		log.WithFields(log.Fields{
			"vertices":       len(vertices),
			"edges":          len(edges),
			"traffic_lights": len(net.Lights),
			"elapsed":        time.Since(st),
		}).Info("Road network has been prepared")
	}
	return net, nil
}

// splitWay cuts way at every node which is used more than once
func (data *osmDataRaw) splitWay(way *Way) [][]osm.NodeID {
	if len(way.Nodes) < 2 {
		return nil
	}
	segments := [][]osm.NodeID{}
	start := 0
	for i := 1; i < len(way.Nodes); i++ {
		if data.nodes[way.Nodes[i]].useCount > 1 || i == len(way.Nodes)-1 {
			segments = append(segments, way.Nodes[start:i+1])
			start = i
		}
	}
	return segments
}
