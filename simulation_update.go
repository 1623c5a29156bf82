package trafficsim

import (
	"math"

	"github.com/LdDl/trafficsim/graph"
	log "github.com/sirupsen/logrus"
)

// CarGap is minimal distance (in road length units) between two cars sharing a lane
const CarGap = 5.0

// update executes single tick: moves cars, drops finished ones and clocks traffic lights.
// Cars are processed sequentially in insertion order: later cars see fresh positions of earlier ones
func (sim *Simulation) update(delta float64) {
	sim.emit(EventUpdate, delta)

	total := sim.cars.Len()
	for i := 0; i < total; i++ {
		car, ok := sim.cars.At(i)
		if !ok {
			sim.logger.WithFields(log.Fields{
				"cycle": sim.Cycle(),
				"index": i,
				"size":  sim.cars.Len(),
			}).Warn("Concurrent modification detected: car list has shrunk during tick, rest of tick is skipped")
			break
		}
		if car.Finished {
			continue
		}
		state := car.clone()
		sim.advanceCar(car, &state, i, delta)
		sim.cars.Store(car, state)
	}

	if removed := sim.cars.RemoveFinished(); removed > 0 {
		sim.logger.WithField("finished", removed).Debug("Cars finished their routes")
	}

	sim.lightsMu.Lock()
	for vertex, light := range sim.lights {
		if light.advance(delta) {
			sim.logger.WithFields(log.Fields{
				"vertex": vertex,
				"ratio":  light.Ratio,
			}).Debug("Traffic light green split adjusted")
		}
	}
	sim.lightsMu.Unlock()

	sim.cycle.Add(1)
}

// advanceCar computes next state of a car into state. Car itself is used only to identify it among others
func (sim *Simulation) advanceCar(car *SimulatedCar, state *SimulatedCar, idx int, delta float64) {
	key := state.Road()
	road := sim.roadOrDefault(key)
	length := sim.roadLength(key)
	gap := CarGap / length
	current := state.RoadProgress

	progress := current + delta*state.Speed(road.Quality)/length
	state.StandingReason = nil

	if ahead := sim.carAhead(car, idx, key, state.CurrentLane, current); ahead != nil && progress > ahead.RoadProgress-gap {
		blocker := ahead
		limit := ahead.RoadProgress - gap
		if road.Lanes > 1 {
			bestLane, bestLimit, bestBlocker := -1, limit, ahead
			for _, lane := range []int{state.CurrentLane - 1, state.CurrentLane + 1} {
				if lane < 0 || lane >= road.Lanes || !sim.laneHasRoom(car, key, lane, current, gap) {
					continue
				}
				reachable := progress
				next := sim.carAhead(car, idx, key, lane, current)
				if next != nil && next.RoadProgress-gap < reachable {
					reachable = next.RoadProgress - gap
				}
				if reachable > bestLimit {
					bestLane, bestLimit, bestBlocker = lane, reachable, next
				}
			}
			if bestLane >= 0 {
				state.CurrentLane = bestLane
				limit = bestLimit
				blocker = bestBlocker
			}
		}
		if limit < progress {
			progress = limit
			if blocker != nil {
				state.StandingReason = copyReason(blocker.StandingReason)
			}
		}
		progress = math.Max(current, progress)
	}

	moved := 0.0
	if progress >= 1 {
		moved = (1 - current) * length
		state.RoadProgress = 1
		sim.passJunction(car, state, delta)
	} else {
		moved = (progress - current) * length
		state.RoadProgress = progress
	}

	state.TotalDistance += moved
	state.TotalTime += delta
	if delta > 0 {
		state.CurrentSpeed = moved / delta
	} else {
		state.CurrentSpeed = 0
	}
}

// passJunction handles car which has traversed its road: it either moves to the next road, finishes or waits
func (sim *Simulation) passJunction(car *SimulatedCar, state *SimulatedCar, delta float64) {
	from, to := state.CurrentRoadFrom, state.CurrentRoadTo

	sim.lightsMu.Lock()
	light, hasLight := sim.lights[to]
	if hasLight && !light.IsGreenFor(from) {
		light.addWaiting(from, delta)
		sim.lightsMu.Unlock()
		reason := to
		state.StandingReason = &reason
		return
	}
	sim.lightsMu.Unlock()

	if len(state.Route) == 0 {
		state.Finished = true
		return
	}

	next := RoadKey{From: to, To: state.Route[0]}
	if rear := sim.rearmostCar(car, next, 0); rear != nil && rear.RoadProgress*sim.roadLength(next) < CarGap {
		state.StandingReason = copyReason(rear.StandingReason)
		return
	}
	state.CurrentRoadFrom = next.From
	state.CurrentRoadTo = next.To
	state.Route = state.Route[1:]
	state.RoadProgress = 0
	state.CurrentLane = 0
}

// isAhead reports whether other car is in front of the one at given progress and position in list.
// Cars with equal progress are ordered by insertion: the earlier one is in front
func isAhead(other *SimulatedCar, otherIdx int, progress float64, idx int) bool {
	if other.RoadProgress != progress {
		return other.RoadProgress > progress
	}
	return otherIdx < idx
}

// forEachOnLane calls fn for every other live car on given lane of given road. Bounds are re-checked on each step
func (sim *Simulation) forEachOnLane(self *SimulatedCar, key RoadKey, lane int, fn func(other *SimulatedCar, otherIdx int)) {
	for j := 0; ; j++ {
		other, ok := sim.cars.At(j)
		if !ok {
			return
		}
		if other == self || other.Finished || other.CurrentLane != lane || other.Road() != key {
			continue
		}
		fn(other, j)
	}
}

// carAhead returns the nearest car in front on given lane or nil
func (sim *Simulation) carAhead(self *SimulatedCar, idx int, key RoadKey, lane int, progress float64) *SimulatedCar {
	var nearest *SimulatedCar
	sim.forEachOnLane(self, key, lane, func(other *SimulatedCar, otherIdx int) {
		if !isAhead(other, otherIdx, progress, idx) {
			return
		}
		if nearest == nil || other.RoadProgress < nearest.RoadProgress {
			nearest = other
		}
	})
	return nearest
}

// laneHasRoom reports whether car at given progress fits into lane keeping the gap both ahead and behind
func (sim *Simulation) laneHasRoom(self *SimulatedCar, key RoadKey, lane int, progress, gap float64) bool {
	room := true
	sim.forEachOnLane(self, key, lane, func(other *SimulatedCar, _ int) {
		if math.Abs(other.RoadProgress-progress) < gap {
			room = false
		}
	})
	return room
}

// rearmostCar returns car closest to the start of given lane or nil
func (sim *Simulation) rearmostCar(self *SimulatedCar, key RoadKey, lane int) *SimulatedCar {
	var rearmost *SimulatedCar
	sim.forEachOnLane(self, key, lane, func(other *SimulatedCar, _ int) {
		if rearmost == nil || other.RoadProgress < rearmost.RoadProgress {
			rearmost = other
		}
	})
	return rearmost
}

func (sim *Simulation) roadOrDefault(key RoadKey) Road {
	if road, ok := sim.roads[key]; ok {
		return *road
	}
	return DefaultRoad()
}

func (sim *Simulation) roadLength(key RoadKey) float64 {
	length, _, _ := sim.graph.GetEdge(key.From, key.To)
	return length
}

func copyReason(reason *graph.VertexID) *graph.VertexID {
	if reason == nil {
		return nil
	}
	copied := *reason
	return &copied
}
