package trafficsim

import (
	"math"

	"github.com/LdDl/trafficsim/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// TravelCost returns traffic-aware graph.DistanceFunc for given car.
//
// Cost of a road is its travel time at car's speed on that road (with respect to road quality),
// multiplied by 1 + load, where load is amount of cars on the road divided by road capacity (lanes * length / CarGap)
func (sim *Simulation) TravelCost(car Car) graph.DistanceFunc {
	occupancy := lo.MapValues(lo.GroupBy(sim.cars.Snapshot(), func(c SimulatedCar) RoadKey {
		return c.Road()
	}), func(cars []SimulatedCar, _ RoadKey) int {
		return len(cars)
	})
	probe := SimulatedCar{AverageSpeed: car.AverageSpeed, OffroadQuality: car.OffroadQuality}
	return func(x, y graph.VertexID) float64 {
		key := RoadKey{From: x, To: y}
		road := sim.roadOrDefault(key)
		length := sim.roadLength(key)
		speed := probe.Speed(road.Quality)
		if speed <= 0 {
			return math.Inf(1)
		}
		capacity := math.Max(1, float64(road.Lanes)*length/CarGap)
		load := float64(occupancy[key]) / capacity
		return length / speed * (1 + load)
	}
}

// PlanRoute returns the cheapest route (including both ends) for given car with respect to current traffic
func (sim *Simulation) PlanRoute(car Car, from, to graph.VertexID) ([]graph.VertexID, error) {
	path, err := graph.MinPath(sim.graph, from, to, sim.TravelCost(car))
	if err != nil {
		return nil, errors.Wrapf(err, "Can't plan route %d->%d", from, to)
	}
	return append([]graph.VertexID{from}, path.Vertices...), nil
}

// AddCarTo plans route for car and adds it to simulation. Route of given car is ignored
func (sim *Simulation) AddCarTo(car Car, from, to graph.VertexID) (uuid.UUID, error) {
	route, err := sim.PlanRoute(car, from, to)
	if err != nil {
		return uuid.Nil, err
	}
	car.Route = route
	return sim.AddCar(car)
}
