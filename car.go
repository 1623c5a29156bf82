package trafficsim

import (
	"fmt"

	"github.com/LdDl/trafficsim/graph"
	"github.com/google/uuid"
)

// Car describes a vehicle to be injected into simulation
type Car struct {
	AverageSpeed float64
	// OffroadQuality is capability of driving on non-ideal road, in [0, 1]
	OffroadQuality float64
	Label          string
	// Route is ordered sequence of vertices to traverse. It must contain at least two vertices
	Route []graph.VertexID
}

// SimulatedCar is runtime state of a car
type SimulatedCar struct {
	ID             uuid.UUID
	AverageSpeed   float64
	OffroadQuality float64
	Label          string

	CurrentRoadFrom graph.VertexID
	CurrentRoadTo   graph.VertexID
	// Route holds vertices left to traverse after CurrentRoadTo
	Route []graph.VertexID
	// RoadProgress is traversed fraction of current road, in [0, 1]
	RoadProgress float64
	CurrentLane  int
	Finished     bool
	// StandingReason is vertex which blocks the car. Nil if car is not blocked
	StandingReason *graph.VertexID

	TotalDistance float64
	TotalTime     float64
	CurrentSpeed  float64
}

func newSimulatedCar(car Car) *SimulatedCar {
	route := make([]graph.VertexID, len(car.Route)-2)
	copy(route, car.Route[2:])
	return &SimulatedCar{
		ID:              uuid.New(),
		AverageSpeed:    car.AverageSpeed,
		OffroadQuality:  car.OffroadQuality,
		Label:           car.Label,
		CurrentRoadFrom: car.Route[0],
		CurrentRoadTo:   car.Route[1],
		Route:           route,
	}
}

// Road returns key of currently occupied road
func (car *SimulatedCar) Road() RoadKey {
	return RoadKey{From: car.CurrentRoadFrom, To: car.CurrentRoadTo}
}

// Speed returns top speed of car on road of given quality.
// Both road quality and offroad capability discount average speed linearly
func (car *SimulatedCar) Speed(roadQuality float64) float64 {
	return car.AverageSpeed - car.AverageSpeed*(1-roadQuality)*(1-car.OffroadQuality)
}

// clone returns deep copy, so it can be mutated without touching shared state
func (car *SimulatedCar) clone() SimulatedCar {
	copied := *car
	copied.Route = make([]graph.VertexID, len(car.Route))
	copy(copied.Route, car.Route)
	if car.StandingReason != nil {
		reason := *car.StandingReason
		copied.StandingReason = &reason
	}
	return copied
}

func (car *SimulatedCar) String() string {
	label := ""
	if car.Label != "" {
		label = fmt.Sprintf("'%s' ", car.Label)
	}
	return fmt.Sprintf("Car %s %s%d----%d%%--->%d", car.ID, label, car.CurrentRoadFrom, int(car.RoadProgress*100), car.CurrentRoadTo)
}
