package trafficsim

import "sync"

// EventUpdate is emitted once per tick with tick's delta
const EventUpdate = "update"

// EventEmitter keeps handlers subscribed by event name
type EventEmitter struct {
	mu       sync.RWMutex
	handlers map[string][]func(float64)
}

// On subscribes handler to events with given name. Safe to call from any goroutine
func (emitter *EventEmitter) On(name string, handler func(float64)) {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	if emitter.handlers == nil {
		emitter.handlers = make(map[string][]func(float64))
	}
	emitter.handlers[name] = append(emitter.handlers[name], handler)
}

// emit calls handlers synchronously in registration order
func (emitter *EventEmitter) emit(name string, value float64) {
	emitter.mu.RLock()
	handlers := emitter.handlers[name]
	emitter.mu.RUnlock()
	for _, handler := range handlers {
		handler(value)
	}
}
