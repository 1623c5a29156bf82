package trafficsim

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/LdDl/trafficsim/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger
}

func newTestSimulation(t *testing.T, vertexCount int, edges []graph.Edge, lights map[graph.VertexID]*TrafficLight, roads []RoadRecord) *Simulation {
	t.Helper()
	g, err := graph.CreateGraph(vertexCount, edges)
	require.NoError(t, err)
	sim := NewSimulation(g, lights, roads, WithLogger(quietLogger()))
	require.NoError(t, sim.prepare())
	return sim
}

// starEdges returns two-way roads between center 0 and vertices 1..3
func starEdges(length float64) []graph.Edge {
	edges := []graph.Edge{}
	for i := graph.VertexID(1); i <= 3; i++ {
		edges = append(edges, graph.Edge{From: 0, To: i, Weight: length}, graph.Edge{From: i, To: 0, Weight: length})
	}
	return edges
}

func carByID(t *testing.T, sim *Simulation, id uuid.UUID) SimulatedCar {
	t.Helper()
	car, ok := lo.Find(sim.Cars(), func(c SimulatedCar) bool {
		return c.ID == id
	})
	require.True(t, ok, "car %s should be alive", id)
	return car
}

func TestPrepareDerivesRoadsAndLights(t *testing.T) {
	roads := []RoadRecord{{From: 0, To: 1, Road: Road{Quality: 0.5, Lanes: 2, Name: "kar"}}}
	sim := NewSimulation(nil, nil, roads, WithTrafficLightTime(90), WithLogger(quietLogger()))
	g, err := graph.CreateGraph(4, starEdges(100))
	require.NoError(t, err)
	sim.graph = g
	require.NoError(t, sim.prepare())

	road, ok := sim.Road(0, 1)
	require.True(t, ok)
	assert.Equal(t, Road{Quality: 0.5, Lanes: 2, Name: "kar"}, road)
	road, ok = sim.Road(1, 0)
	require.True(t, ok)
	assert.Equal(t, DefaultRoad(), road)
	assert.Len(t, sim.Roads(), 6)

	lights := sim.TrafficLights()
	require.Len(t, lights, 1)
	light := lights[0]
	assert.Equal(t, 0.5, light.Ratio)
	assert.Equal(t, 90.0, light.TotalTime)
	assert.True(t, light.AutoAdjust)
	neighbors, _ := g.GetNeighbors(0)
	assert.Equal(t, neighbors[:1], light.PrimaryDirections)
}

func TestPrepareKeepsExplicitLights(t *testing.T) {
	explicit := NewTrafficLight(0.3, 20, []graph.VertexID{2}, false)
	sim := newTestSimulation(t, 4, starEdges(100), map[graph.VertexID]*TrafficLight{0: explicit}, nil)
	lights := sim.TrafficLights()
	require.Len(t, lights, 1)
	assert.Equal(t, 0.3, lights[0].Ratio)
	assert.Equal(t, []graph.VertexID{2}, lights[0].PrimaryDirections)
}

func TestCarSpeed(t *testing.T) {
	car := SimulatedCar{AverageSpeed: 100, OffroadQuality: 0.5}
	assert.Equal(t, 100.0, car.Speed(1))
	assert.Equal(t, 75.0, car.Speed(0.5))
	assert.Equal(t, 50.0, car.Speed(0))
	offroad := SimulatedCar{AverageSpeed: 100, OffroadQuality: 1}
	assert.Equal(t, 100.0, offroad.Speed(0))
}

func TestAddCarValidation(t *testing.T) {
	sim := newTestSimulation(t, 3, []graph.Edge{{From: 0, To: 1, Weight: 10}, {From: 1, To: 2, Weight: 10}}, nil, nil)

	_, err := sim.AddCar(Car{AverageSpeed: 1, Route: []graph.VertexID{0}})
	assert.Equal(t, ErrInvalidRoute, errors.Cause(err))
	_, err = sim.AddCar(Car{AverageSpeed: 1, Route: []graph.VertexID{0, 2}})
	assert.Equal(t, ErrInvalidRoute, errors.Cause(err))
	_, err = sim.AddCar(Car{AverageSpeed: 1, Route: []graph.VertexID{5, 0}})
	assert.Equal(t, graph.ErrVertexNotFound, errors.Cause(err))

	route := []graph.VertexID{0, 1, 2}
	id, err := sim.AddCar(Car{AverageSpeed: 1, Label: "ok", Route: route})
	require.NoError(t, err)
	car := carByID(t, sim, id)
	assert.Equal(t, graph.VertexID(0), car.CurrentRoadFrom)
	assert.Equal(t, graph.VertexID(1), car.CurrentRoadTo)
	assert.Equal(t, []graph.VertexID{2}, car.Route)
	assert.Equal(t, "ok", car.Label)
	// Caller's route is not consumed
	assert.Equal(t, []graph.VertexID{0, 1, 2}, route)
}

func TestCarAdvancesAndFinishes(t *testing.T) {
	roads := []RoadRecord{{From: 1, To: 2, Road: Road{Quality: 0.5, Lanes: 1}}}
	sim := newTestSimulation(t, 3, []graph.Edge{{From: 0, To: 1, Weight: 100}, {From: 1, To: 2, Weight: 100}}, nil, roads)
	id, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 0.5, Route: []graph.VertexID{0, 1, 2}})
	require.NoError(t, err)

	sim.update(0)
	car := carByID(t, sim, id)
	assert.Zero(t, car.RoadProgress)

	sim.update(1)
	car = carByID(t, sim, id)
	assert.InDelta(t, 0.1, car.RoadProgress, 1e-9)
	assert.InDelta(t, 10, car.TotalDistance, 1e-9)
	assert.InDelta(t, 10, car.CurrentSpeed, 1e-9)
	assert.InDelta(t, 1, car.TotalTime, 1e-9)
	assert.Nil(t, car.StandingReason)

	// Overshoot is not carried to the next road
	sim.update(10)
	car = carByID(t, sim, id)
	assert.Equal(t, graph.VertexID(1), car.CurrentRoadFrom)
	assert.Equal(t, graph.VertexID(2), car.CurrentRoadTo)
	assert.Zero(t, car.RoadProgress)
	assert.Empty(t, car.Route)
	assert.InDelta(t, 100, car.TotalDistance, 1e-9)

	// Quality 0.5 with offroad quality 0.5 gives 7.5 units per time unit
	sim.update(2)
	car = carByID(t, sim, id)
	assert.InDelta(t, 0.15, car.RoadProgress, 1e-9)

	sim.update(20)
	assert.Empty(t, sim.Cars())
	assert.Equal(t, 5, sim.Cycle())
}

func TestCarFollowing(t *testing.T) {
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, nil)
	slow, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)
	sim.update(1)

	fast, err := sim.AddCar(Car{AverageSpeed: 50, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)
	sim.update(1)

	slowCar := carByID(t, sim, slow)
	fastCar := carByID(t, sim, fast)
	assert.InDelta(t, 0.2, slowCar.RoadProgress, 1e-9)
	assert.InDelta(t, 0.15, fastCar.RoadProgress, 1e-9)
	assert.InDelta(t, 15, fastCar.TotalDistance, 1e-9)
	assert.Equal(t, 0, fastCar.CurrentLane)
}

func TestCarsInsertedTogetherDoNotOverlap(t *testing.T) {
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, nil)
	first, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)
	second, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)

	sim.update(1)
	assert.InDelta(t, 0.1, carByID(t, sim, first).RoadProgress, 1e-9)
	// The second car has to wait for the gap
	assert.InDelta(t, 0.05, carByID(t, sim, second).RoadProgress, 1e-9)
}

func TestLaneChange(t *testing.T) {
	roads := []RoadRecord{{From: 0, To: 1, Road: Road{Quality: 1, Lanes: 2}}}
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, roads)
	slow, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)
	sim.update(1)

	fast, err := sim.AddCar(Car{AverageSpeed: 50, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
	require.NoError(t, err)
	sim.update(1)

	slowCar := carByID(t, sim, slow)
	fastCar := carByID(t, sim, fast)
	assert.Equal(t, 0, slowCar.CurrentLane)
	assert.Equal(t, 1, fastCar.CurrentLane)
	assert.InDelta(t, 0.5, fastCar.RoadProgress, 1e-9)
	assert.Nil(t, fastCar.StandingReason)
}

func TestLaneChangeRequiresRoom(t *testing.T) {
	roads := []RoadRecord{{From: 0, To: 1, Road: Road{Quality: 1, Lanes: 2}}}
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, roads)
	for i := 0; i < 3; i++ {
		_, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
		require.NoError(t, err)
	}
	// Hand-place cars: blocker ahead on lane 0, neighbour alongside on lane 1, follower behind on lane 0
	blocker, _ := sim.cars.At(0)
	blocker.RoadProgress = 0.3
	neighbour, _ := sim.cars.At(1)
	neighbour.RoadProgress = 0.22
	neighbour.CurrentLane = 1
	neighbour.AverageSpeed = 0
	follower, _ := sim.cars.At(2)
	follower.RoadProgress = 0.2
	follower.AverageSpeed = 50
	blocker.AverageSpeed = 0

	sim.update(1)
	cars := sim.Cars()
	assert.Equal(t, 0, cars[2].CurrentLane)
	assert.InDelta(t, 0.25, cars[2].RoadProgress, 1e-9)
}

func TestTrafficLightStopsCar(t *testing.T) {
	light := NewTrafficLight(0.5, 10, []graph.VertexID{1}, false)
	sim := newTestSimulation(t, 4, starEdges(10), map[graph.VertexID]*TrafficLight{0: light}, nil)

	secondary, err := sim.AddCar(Car{AverageSpeed: 100, OffroadQuality: 1, Route: []graph.VertexID{2, 0, 1}})
	require.NoError(t, err)
	primary, err := sim.AddCar(Car{AverageSpeed: 100, OffroadQuality: 1, Route: []graph.VertexID{1, 0, 3}})
	require.NoError(t, err)

	sim.update(1)

	stopped := carByID(t, sim, secondary)
	assert.Equal(t, 1.0, stopped.RoadProgress)
	require.NotNil(t, stopped.StandingReason)
	assert.Equal(t, graph.VertexID(0), *stopped.StandingReason)
	assert.Equal(t, graph.VertexID(2), stopped.CurrentRoadFrom)

	passed := carByID(t, sim, primary)
	assert.Equal(t, graph.VertexID(0), passed.CurrentRoadFrom)
	assert.Equal(t, graph.VertexID(3), passed.CurrentRoadTo)

	lights := sim.TrafficLights()
	assert.Equal(t, 1.0, lights[0].SecondaryStats)
	assert.Zero(t, lights[0].PrimaryStats)
	assert.InDelta(t, 0.1, lights[0].CurrentRatio, 1e-9)

	// Once clock passes the primary share, secondary direction gets green
	sim.update(5)
	passedLater := carByID(t, sim, secondary)
	assert.Equal(t, 1.0, passedLater.RoadProgress)
	sim.update(1)
	passedLater = carByID(t, sim, secondary)
	assert.Equal(t, graph.VertexID(0), passedLater.CurrentRoadFrom)
	assert.Nil(t, passedLater.StandingReason)
}

func TestNextRoadClearance(t *testing.T) {
	sim := newTestSimulation(t, 3, []graph.Edge{{From: 0, To: 1, Weight: 100}, {From: 1, To: 2, Weight: 100}}, nil, nil)
	front, err := sim.AddCar(Car{AverageSpeed: 0, OffroadQuality: 1, Route: []graph.VertexID{1, 2}})
	require.NoError(t, err)
	back, err := sim.AddCar(Car{AverageSpeed: 100, OffroadQuality: 1, Route: []graph.VertexID{0, 1, 2}})
	require.NoError(t, err)
	frontCar, _ := sim.cars.At(0)
	frontCar.RoadProgress = 0.02
	reason := graph.VertexID(2)
	frontCar.StandingReason = &reason

	sim.update(2)
	backCar := carByID(t, sim, back)
	assert.Equal(t, graph.VertexID(0), backCar.CurrentRoadFrom)
	assert.Equal(t, 1.0, backCar.RoadProgress)
	// Front car is stationary, so it has lost its reason on this tick
	assert.Nil(t, backCar.StandingReason)

	// Front car is processed first, so the gap is already free for the back one
	frontCar.AverageSpeed = 10
	sim.update(1)
	assert.InDelta(t, 0.12, carByID(t, sim, front).RoadProgress, 1e-9)
	backCar = carByID(t, sim, back)
	assert.Equal(t, graph.VertexID(1), backCar.CurrentRoadFrom)
	assert.Zero(t, backCar.RoadProgress)
}

func TestCarsKeepGap(t *testing.T) {
	edges := []graph.Edge{
		{From: 0, To: 1, Weight: 100},
		{From: 1, To: 2, Weight: 60},
		{From: 2, To: 0, Weight: 80},
	}
	roads := []RoadRecord{{From: 1, To: 2, Road: Road{Quality: 0.6, Lanes: 2}}}
	sim := newTestSimulation(t, 3, edges, nil, roads)
	rnd := rand.New(rand.NewSource(1))
	lengths := map[RoadKey]float64{{0, 1}: 100, {1, 2}: 60, {2, 0}: 80}

	for tick := 0; tick < 500; tick++ {
		entranceFree := lo.NoneBy(sim.Cars(), func(c SimulatedCar) bool {
			return c.Road() == RoadKey{From: 0, To: 1} && c.CurrentLane == 0 && c.RoadProgress*100 < CarGap
		})
		if entranceFree && rnd.Intn(3) == 0 {
			route := []graph.VertexID{0, 1, 2, 0, 1, 2, 0}
			_, err := sim.AddCar(Car{AverageSpeed: 5 + rnd.Float64()*40, OffroadQuality: rnd.Float64(), Route: route})
			require.NoError(t, err)
		}
		sim.update(0.1 + rnd.Float64())

		cars := sim.Cars()
		for i := range cars {
			for j := i + 1; j < len(cars); j++ {
				if cars[i].Road() != cars[j].Road() || cars[i].CurrentLane != cars[j].CurrentLane {
					continue
				}
				distance := (cars[i].RoadProgress - cars[j].RoadProgress) * lengths[cars[i].Road()]
				if distance < 0 {
					distance = -distance
				}
				require.GreaterOrEqual(t, distance, CarGap-1e-6, "tick %d: cars %s and %s are too close", tick, cars[i].ID, cars[j].ID)
			}
		}
	}
}

func TestEventsOrder(t *testing.T) {
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, nil)
	calls := []string{}
	sim.On(EventUpdate, func(delta float64) {
		calls = append(calls, "first")
		assert.Equal(t, 0.5, delta)
	})
	sim.On(EventUpdate, func(delta float64) {
		calls = append(calls, "second")
	})
	sim.On("other", func(delta float64) {
		calls = append(calls, "other")
	})
	sim.update(0.5)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPlanRouteAvoidsCongestion(t *testing.T) {
	edges := []graph.Edge{
		{From: 0, To: 1, Weight: 100},
		{From: 1, To: 3, Weight: 100},
		{From: 0, To: 2, Weight: 100},
		{From: 2, To: 3, Weight: 110},
	}
	sim := newTestSimulation(t, 4, edges, nil, nil)
	car := Car{AverageSpeed: 10, OffroadQuality: 1}

	route, err := sim.PlanRoute(car, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{0, 1, 3}, route)

	for i := 0; i < 10; i++ {
		_, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
		require.NoError(t, err)
	}
	route, err = sim.PlanRoute(car, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []graph.VertexID{0, 2, 3}, route)

	id, err := sim.AddCarTo(car, 0, 3)
	require.NoError(t, err)
	planned := carByID(t, sim, id)
	assert.Equal(t, graph.VertexID(2), planned.CurrentRoadTo)
	assert.Equal(t, []graph.VertexID{3}, planned.Route)

	_, err = sim.AddCarTo(car, 3, 0)
	assert.Equal(t, graph.ErrPathNotFound, errors.Cause(err))
}

func TestStartStop(t *testing.T) {
	g, err := graph.CreateGraph(4, starEdges(1000))
	require.NoError(t, err)
	sim := NewSimulation(g, nil, nil, WithMaxTPS(500), WithLogger(quietLogger()))

	ticks := 0
	var ticksMu sync.Mutex
	sim.On(EventUpdate, func(delta float64) {
		ticksMu.Lock()
		ticks++
		ticksMu.Unlock()
	})

	require.NoError(t, sim.Start())
	assert.Equal(t, ErrAlreadyRunning, sim.Start())

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 40)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				id, err := sim.AddCar(Car{AverageSpeed: 1, OffroadQuality: 1, Route: []graph.VertexID{1, 0, 2}})
				assert.NoError(t, err)
				ids <- id
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	close(ids)

	startCycle := sim.Cycle()
	require.Eventually(t, func() bool {
		return sim.Cycle() > startCycle+2
	}, 5*time.Second, time.Millisecond)

	alive := lo.SliceToMap(sim.Cars(), func(c SimulatedCar) (uuid.UUID, SimulatedCar) {
		return c.ID, c
	})
	for id := range ids {
		car, ok := alive[id]
		require.True(t, ok)
		assert.Greater(t, car.TotalTime, 0.0)
	}

	sim.Stop()
	stoppedAt := sim.Cycle()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stoppedAt, sim.Cycle())
	ticksMu.Lock()
	assert.Equal(t, stoppedAt, ticks)
	ticksMu.Unlock()

	// Stopped simulation may be started again
	require.NoError(t, sim.Start())
	sim.Stop()
}

func TestPlanRouteForStandingCar(t *testing.T) {
	sim := newTestSimulation(t, 3, []graph.Edge{{From: 0, To: 1, Weight: 100}, {From: 1, To: 2, Weight: 100}}, nil, nil)
	_, err := sim.PlanRoute(Car{AverageSpeed: 0, OffroadQuality: 1}, 0, 2)
	assert.Equal(t, graph.ErrPathNotFound, errors.Cause(err))
}

func TestLaneChangePicksFurthestLane(t *testing.T) {
	roads := []RoadRecord{{From: 0, To: 1, Road: Road{Quality: 1, Lanes: 3}}}
	sim := newTestSimulation(t, 2, []graph.Edge{{From: 0, To: 1, Weight: 100}}, nil, roads)
	for i := 0; i < 4; i++ {
		_, err := sim.AddCar(Car{AverageSpeed: 0, OffroadQuality: 1, Route: []graph.VertexID{0, 1}})
		require.NoError(t, err)
	}
	// Standing cars on every lane, the right one has the most room
	placements := []struct {
		lane     int
		progress float64
	}{
		{lane: 1, progress: 0.45},
		{lane: 0, progress: 0.5},
		{lane: 2, progress: 0.7},
		{lane: 1, progress: 0.4},
	}
	for i, placement := range placements {
		car, ok := sim.cars.At(i)
		require.True(t, ok)
		car.CurrentLane = placement.lane
		car.RoadProgress = placement.progress
	}
	follower, _ := sim.cars.At(3)
	follower.AverageSpeed = 50

	sim.update(1)
	cars := sim.Cars()
	assert.Equal(t, 2, cars[3].CurrentLane)
	assert.InDelta(t, 0.65, cars[3].RoadProgress, 1e-9)
}

func TestStandingReasonPropagates(t *testing.T) {
	light := NewTrafficLight(0.5, 10, []graph.VertexID{1}, false)
	sim := newTestSimulation(t, 4, starEdges(100), map[graph.VertexID]*TrafficLight{0: light}, nil)
	front, err := sim.AddCar(Car{AverageSpeed: 100, OffroadQuality: 1, Route: []graph.VertexID{2, 0, 1}})
	require.NoError(t, err)
	back, err := sim.AddCar(Car{AverageSpeed: 100, OffroadQuality: 1, Route: []graph.VertexID{2, 0, 1}})
	require.NoError(t, err)
	frontCar, _ := sim.cars.At(0)
	frontCar.RoadProgress = 0.98
	backCar, _ := sim.cars.At(1)
	backCar.RoadProgress = 0.9

	sim.update(1)

	stopped := carByID(t, sim, front)
	assert.Equal(t, 1.0, stopped.RoadProgress)
	require.NotNil(t, stopped.StandingReason)
	assert.Equal(t, graph.VertexID(0), *stopped.StandingReason)

	queued := carByID(t, sim, back)
	assert.InDelta(t, 0.95, queued.RoadProgress, 1e-9)
	require.NotNil(t, queued.StandingReason)
	assert.Equal(t, graph.VertexID(0), *queued.StandingReason)
}
