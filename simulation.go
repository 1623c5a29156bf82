package trafficsim

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LdDl/trafficsim/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRoute   = errors.New("invalid route")
	ErrAlreadyRunning = errors.New("simulation is already running")
)

// Simulation owns road network, traffic lights and live cars and advances them in a self-paced tick loop.
//
// Tick loop runs in a single dedicated goroutine. Cars may be added from any goroutine while it runs.
// Subscribe to EventUpdate to observe ticks: handlers are called on the simulation goroutine.
type Simulation struct {
	EventEmitter

	graph graph.Graph
	roads map[RoadKey]*Road

	lightsMu sync.Mutex
	lights   map[graph.VertexID]*TrafficLight

	cars  carList
	cycle atomic.Int64

	maxTPS           float64
	trafficLightTime float64
	logger           log.FieldLogger

	runMu  sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewSimulation returns simulation over given graph.
// Lights are keyed by vertex; roads override default attributes of matching edges.
// Missing roads and traffic lights are derived from graph topology on Start()
func NewSimulation(g graph.Graph, lights map[graph.VertexID]*TrafficLight, roads []RoadRecord, options ...func(*Simulation)) *Simulation {
	sim := &Simulation{
		graph:            g,
		roads:            make(map[RoadKey]*Road, len(roads)),
		lights:           make(map[graph.VertexID]*TrafficLight, len(lights)),
		trafficLightTime: DefaultTrafficLightTime,
		logger:           log.StandardLogger(),
	}
	for _, record := range roads {
		road := record.Road
		sim.roads[RoadKey{From: record.From, To: record.To}] = &road
	}
	for vertex, light := range lights {
		if light != nil {
			sim.lights[vertex] = light
		}
	}
	for _, option := range options {
		option(sim)
	}
	return sim
}

// Start derives missing roads and traffic lights from graph and launches tick loop
func (sim *Simulation) Start() error {
	sim.runMu.Lock()
	defer sim.runMu.Unlock()
	if sim.cancel != nil {
		return ErrAlreadyRunning
	}
	err := sim.prepare()
	if err != nil {
		return errors.Wrap(err, "Can't prepare simulation")
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	sim.cancel = cancel
	sim.group = group
	group.Go(func() error {
		return sim.run(ctx)
	})
	sim.logger.WithFields(log.Fields{
		"roads":          len(sim.roads),
		"traffic_lights": len(sim.lights),
		"max_tps":        sim.maxTPS,
	}).Info("Simulation started")
	return nil
}

// Stop terminates tick loop and waits for the tick in progress to complete
func (sim *Simulation) Stop() {
	sim.runMu.Lock()
	defer sim.runMu.Unlock()
	if sim.cancel == nil {
		return
	}
	sim.cancel()
	if err := sim.group.Wait(); err != nil {
		sim.logger.WithError(err).Error("Tick loop failed")
	}
	sim.cancel = nil
	sim.group = nil
	sim.logger.WithField("cycle", sim.Cycle()).Info("Simulation stopped")
}

// prepare creates default road for every edge without one and traffic light for every vertex with 3+ neighbors
func (sim *Simulation) prepare() error {
	sim.lightsMu.Lock()
	defer sim.lightsMu.Unlock()
	for _, vertex := range sim.graph.GetVertices() {
		neighbors, err := sim.graph.GetNeighbors(vertex)
		if err != nil {
			return errors.Wrap(err, "Can't get neighbors")
		}
		for _, neighbor := range neighbors {
			key := RoadKey{From: vertex, To: neighbor}
			if _, ok := sim.roads[key]; !ok {
				road := DefaultRoad()
				sim.roads[key] = &road
			}
		}
		if _, ok := sim.lights[vertex]; !ok && len(neighbors) >= 3 {
			sim.lights[vertex] = NewTrafficLight(DefaultTrafficLightRatio, sim.trafficLightTime, neighbors[:len(neighbors)/2], true)
		}
	}
	return nil
}

// run executes ticks until context is cancelled.
// Delta of a tick is measured duration of the previous one; when max TPS is set, idle time is slept out and delta becomes the target period
func (sim *Simulation) run(ctx context.Context) error {
	period := 0.0
	if sim.maxTPS > 0 {
		period = 1.0 / sim.maxTPS
	}
	delta := 0.0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		st := time.Now()
		sim.update(delta)
		delta = time.Since(st).Seconds()
		if period > 0 && delta < period {
			timer := time.NewTimer(time.Duration((period - delta) * float64(time.Second)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			delta = period
		}
	}
}

// AddCar validates route of given car and puts it at the start of route's first road
func (sim *Simulation) AddCar(car Car) (uuid.UUID, error) {
	err := sim.validateRoute(car.Route)
	if err != nil {
		return uuid.Nil, err
	}
	simulated := newSimulatedCar(car)
	// Car belongs to tick loop once appended
	id := simulated.ID
	sim.logger.WithFields(log.Fields{
		"id":    id,
		"label": simulated.Label,
		"from":  simulated.CurrentRoadFrom,
		"to":    simulated.CurrentRoadTo,
	}).Debug("Car added")
	sim.cars.Append(simulated)
	return id, nil
}

func (sim *Simulation) validateRoute(route []graph.VertexID) error {
	if len(route) < 2 {
		return errors.Wrapf(ErrInvalidRoute, "route should contain at least 2 vertices, got %d", len(route))
	}
	for i := 1; i < len(route); i++ {
		_, ok, err := sim.graph.GetEdge(route[i-1], route[i])
		if err != nil {
			return errors.Wrapf(err, "Can't check road #%d of route", i-1)
		}
		if !ok {
			return errors.Wrapf(ErrInvalidRoute, "no road %d->%d", route[i-1], route[i])
		}
	}
	return nil
}

// Cars returns snapshot of live cars
func (sim *Simulation) Cars() []SimulatedCar {
	return sim.cars.Snapshot()
}

// TrafficLights returns snapshot of traffic lights
func (sim *Simulation) TrafficLights() map[graph.VertexID]TrafficLight {
	sim.lightsMu.Lock()
	defer sim.lightsMu.Unlock()
	snapshot := make(map[graph.VertexID]TrafficLight, len(sim.lights))
	for vertex, light := range sim.lights {
		snapshot[vertex] = light.clone()
	}
	return snapshot
}

// Road returns attributes of road. Before Start() only explicitly provided roads are known
func (sim *Simulation) Road(from, to graph.VertexID) (Road, bool) {
	road, ok := sim.roads[RoadKey{From: from, To: to}]
	if !ok {
		return Road{}, false
	}
	return *road, true
}

// Roads returns keys of all known roads sorted by source and then by target
func (sim *Simulation) Roads() []RoadKey {
	keys := lo.Keys(sim.roads)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
	return keys
}

// Graph returns underlying road network
func (sim *Simulation) Graph() graph.Graph {
	return sim.graph
}

// Cycle returns amount of completed ticks
func (sim *Simulation) Cycle() int {
	return int(sim.cycle.Load())
}
