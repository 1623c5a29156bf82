package trafficsim

import (
	"sort"

	"github.com/LdDl/trafficsim/graph"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

func lineCoordinates(line orb.LineString) [][]float64 {
	pts := make([][]float64, len(line))
	for i := range line {
		pts[i] = []float64{line[i].Lon(), line[i].Lat()}
	}
	return pts
}

func sortedLightVertices(lights map[graph.VertexID]TrafficLight) []graph.VertexID {
	vertices := lo.Keys(lights)
	sort.Slice(vertices, func(i, j int) bool {
		return vertices[i] < vertices[j]
	})
	return vertices
}

// SnapshotGeoJSON returns FeatureCollection of roads, traffic lights and cars.
// Features without known geometry are skipped
func (net *Network) SnapshotGeoJSON(cars []SimulatedCar, lights map[graph.VertexID]TrafficLight) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, record := range net.Roads {
		key := RoadKey{From: record.From, To: record.To}
		line, ok := net.roadGeometry(key)
		if !ok {
			continue
		}
		feature := geojson.NewLineStringFeature(lineCoordinates(line))
		feature.SetProperty("kind", "road")
		feature.SetProperty("from", record.From)
		feature.SetProperty("to", record.To)
		feature.SetProperty("name", record.Road.Name)
		feature.SetProperty("lanes", record.Road.Lanes)
		feature.SetProperty("quality", record.Road.Quality)
		fc.AddFeature(feature)
	}

	for _, vertex := range sortedLightVertices(lights) {
		pt, ok := net.Positions[vertex]
		if !ok {
			continue
		}
		light := lights[vertex]
		feature := geojson.NewPointFeature([]float64{pt.Lon(), pt.Lat()})
		feature.SetProperty("kind", "traffic_light")
		feature.SetProperty("vertex", vertex)
		feature.SetProperty("primary_green", light.IsOn())
		feature.SetProperty("ratio", light.Ratio)
		fc.AddFeature(feature)
	}

	for i := range cars {
		car := &cars[i]
		line, ok := net.roadGeometry(car.Road())
		if !ok {
			continue
		}
		pt := pointAlongLine(line, car.RoadProgress)
		feature := geojson.NewPointFeature([]float64{pt.Lon(), pt.Lat()})
		feature.SetProperty("kind", "car")
		feature.SetProperty("id", car.ID.String())
		feature.SetProperty("label", car.Label)
		feature.SetProperty("lane", car.CurrentLane)
		feature.SetProperty("speed", car.CurrentSpeed)
		if car.StandingReason != nil {
			feature.SetProperty("standing_reason", *car.StandingReason)
		}
		fc.AddFeature(feature)
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal GeoJSON")
	}
	return b, nil
}
