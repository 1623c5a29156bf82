package trafficsim

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	// Default cycle length for traffic lights created by Start()
	DefaultTrafficLightTime = 60.0
	// Default green share for primary directions of traffic lights created by Start()
	DefaultTrafficLightRatio = 0.5
)

func (sim *Simulation) String() string {
	return fmt.Sprintf(`
Simulation parameters:
	max_tps: %f
	traffic_light_time: %f
	vertices: %d
	roads: %d
	traffic_lights: %d
	`,
		sim.maxTPS,
		sim.trafficLightTime,
		len(sim.graph.GetVertices()),
		len(sim.roads),
		len(sim.lights),
	)
}

// WithMaxTPS limits amount of ticks per second. Non-positive value means no limit
func WithMaxTPS(maxTPS float64) func(*Simulation) {
	return func(sim *Simulation) {
		sim.maxTPS = maxTPS
	}
}

// WithTrafficLightTime sets cycle length for traffic lights created by Start()
func WithTrafficLightTime(trafficLightTime float64) func(*Simulation) {
	return func(sim *Simulation) {
		sim.trafficLightTime = trafficLightTime
	}
}

func WithLogger(logger log.FieldLogger) func(*Simulation) {
	return func(sim *Simulation) {
		sim.logger = logger
	}
}
