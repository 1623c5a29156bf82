package trafficsim

import (
	"sync"
)

// carList is growable sequence of live cars safe for concurrent append and iteration.
// Every method holds the lock for its own duration only, so callers iterating over list
// must re-check bounds on every step.
type carList struct {
	mu   sync.RWMutex
	cars []*SimulatedCar
}

func (list *carList) Append(car *SimulatedCar) {
	list.mu.Lock()
	list.cars = append(list.cars, car)
	list.mu.Unlock()
}

func (list *carList) Len() int {
	list.mu.RLock()
	defer list.mu.RUnlock()
	return len(list.cars)
}

// At returns car at given position. Second value is false if position is out of range (list has shrunk)
func (list *carList) At(i int) (*SimulatedCar, bool) {
	list.mu.RLock()
	defer list.mu.RUnlock()
	if i < 0 || i >= len(list.cars) {
		return nil, false
	}
	return list.cars[i], true
}

// Store publishes new state of a car
func (list *carList) Store(car *SimulatedCar, state SimulatedCar) {
	list.mu.Lock()
	*car = state
	list.mu.Unlock()
}

// RemoveFinished drops every finished car and returns amount of removed ones
func (list *carList) RemoveFinished() int {
	list.mu.Lock()
	defer list.mu.Unlock()
	kept := list.cars[:0]
	for _, car := range list.cars {
		if !car.Finished {
			kept = append(kept, car)
		}
	}
	removed := len(list.cars) - len(kept)
	for i := len(kept); i < len(list.cars); i++ {
		list.cars[i] = nil
	}
	list.cars = kept
	return removed
}

// Snapshot returns deep copies of all cars
func (list *carList) Snapshot() []SimulatedCar {
	list.mu.RLock()
	defer list.mu.RUnlock()
	snapshot := make([]SimulatedCar, len(list.cars))
	for i, car := range list.cars {
		snapshot[i] = car.clone()
	}
	return snapshot
}
