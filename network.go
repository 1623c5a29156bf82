package trafficsim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/trafficsim/graph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// Network is road graph together with road attributes, traffic lights and geometry of imported OSM data
type Network struct {
	Graph      graph.Graph
	Roads      []RoadRecord
	Lights     map[graph.VertexID]*TrafficLight
	Positions  map[graph.VertexID]orb.Point
	Geometries map[RoadKey]orb.LineString
	OSMNodes   map[graph.VertexID]osm.NodeID
	// Units of edge weights
	Units string
}

func newNetwork(units string) *Network {
	if units == "" {
		units = UnitsMeters
	}
	return &Network{
		Roads:      []RoadRecord{},
		Lights:     make(map[graph.VertexID]*TrafficLight),
		Positions:  make(map[graph.VertexID]orb.Point),
		Geometries: make(map[RoadKey]orb.LineString),
		OSMNodes:   make(map[graph.VertexID]osm.NodeID),
		Units:      units,
	}
}

// NetworkFromGraph wraps bare graph (e.g. deserialized one) which has no geometry nor road attributes
func NetworkFromGraph(g graph.Graph) *Network {
	net := newNetwork("")
	net.Graph = g
	return net
}

// NewSimulation returns simulation over the network
func (net *Network) NewSimulation(options ...func(*Simulation)) *Simulation {
	return NewSimulation(net.Graph, net.Lights, net.Roads, options...)
}

// ExportToCSV writes roads and vertices into '<fname>_roads.csv' and '<fname>_vertices.csv'
func (net *Network) ExportToCSV(fname string) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameRoads := fnameParts[0] + "_roads.csv"
	fnameVertices := fnameParts[0] + "_vertices.csv"

	err := net.exportRoadsToCSV(fnameRoads)
	if err != nil {
		return errors.Wrap(err, "Can't export roads")
	}

	err = net.exportVerticesToCSV(fnameVertices)
	if err != nil {
		return errors.Wrap(err, "Can't export vertices")
	}
	return nil
}

func (net *Network) exportRoadsToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"source_vertex", "target_vertex", "weight", "units", "lanes", "quality", "name", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, record := range net.Roads {
		key := RoadKey{From: record.From, To: record.To}
		weight, _, err := net.Graph.GetEdge(record.From, record.To)
		if err != nil {
			return errors.Wrapf(err, "Can't get weight of road %s", key)
		}
		geom := ""
		if line, ok := net.Geometries[key]; ok {
			geom = wkt.MarshalString(line)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", record.From),
			fmt.Sprintf("%d", record.To),
			fmt.Sprintf("%f", weight),
			net.Units,
			fmt.Sprintf("%d", record.Road.Lanes),
			fmt.Sprintf("%f", record.Road.Quality),
			record.Road.Name,
			geom,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write road")
		}
	}
	return nil
}

func (net *Network) exportVerticesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "osm_node_id", "control_type", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, vertex := range net.Graph.GetVertices() {
		controlType := NOT_SIGNAL
		if _, ok := net.Lights[vertex]; ok {
			controlType = IS_SIGNAL
		}
		geom := ""
		if pt, ok := net.Positions[vertex]; ok {
			geom = wkt.MarshalString(pt)
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", vertex),
			fmt.Sprintf("%d", net.OSMNodes[vertex]),
			controlType.String(),
			geom,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write vertex")
		}
	}
	return nil
}
