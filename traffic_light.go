package trafficsim

import (
	"math"

	"github.com/LdDl/trafficsim/graph"
	"github.com/samber/lo"
)

const (
	// Amount of accumulated waiting time required before green split is recomputed
	adjustmentWaitThreshold = 300.0
	// Minimal relative difference between primary and secondary waiting time to recompute green split
	adjustmentImbalanceThreshold = 0.1
)

// TrafficLight arbitrates two groups of arrival directions at a vertex: primary and secondary ones.
//
// CurrentRatio is the phase clock: it cycles in [0, 1) and primary directions have green light
// while clock is in the first Ratio fraction of the cycle.
type TrafficLight struct {
	// Ratio is target green time share of primary directions, in [0, 1]
	Ratio float64
	// TotalTime is duration of full cycle
	TotalTime float64
	// PrimaryDirections are source vertices of incoming roads treated as primary
	PrimaryDirections []graph.VertexID
	// AutoAdjust enables recomputation of Ratio from waiting statistics
	AutoAdjust   bool
	CurrentRatio float64
	// Waiting time accumulated since the last adjustment
	PrimaryStats   float64
	SecondaryStats float64
}

// NewTrafficLight returns traffic light with phase clock at the cycle start
func NewTrafficLight(ratio, totalTime float64, primaryDirections []graph.VertexID, autoAdjust bool) *TrafficLight {
	directions := make([]graph.VertexID, len(primaryDirections))
	copy(directions, primaryDirections)
	return &TrafficLight{
		Ratio:             ratio,
		TotalTime:         totalTime,
		PrimaryDirections: directions,
		AutoAdjust:        autoAdjust,
	}
}

// IsOn reports whether primary directions have green light
func (light *TrafficLight) IsOn() bool {
	return light.Ratio > light.CurrentRatio
}

// IsPrimary reports whether arrival from given vertex belongs to primary directions
func (light *TrafficLight) IsPrimary(from graph.VertexID) bool {
	return lo.Contains(light.PrimaryDirections, from)
}

// IsGreenFor reports whether car arriving from given vertex may pass
func (light *TrafficLight) IsGreenFor(from graph.VertexID) bool {
	return light.IsOn() == light.IsPrimary(from)
}

// addWaiting accumulates waiting time of a car stopped by red light
func (light *TrafficLight) addWaiting(from graph.VertexID, delta float64) {
	if light.IsPrimary(from) {
		light.PrimaryStats += delta
	} else {
		light.SecondaryStats += delta
	}
}

// advance moves phase clock by delta and adjusts green split when it is needed.
// Returns true if Ratio has been recomputed
func (light *TrafficLight) advance(delta float64) bool {
	if light.TotalTime > 0 {
		light.CurrentRatio = math.Mod(light.CurrentRatio+delta/light.TotalTime, 1.0)
	}
	if !light.AutoAdjust {
		return false
	}
	return light.adjust()
}

func (light *TrafficLight) adjust() bool {
	primary, secondary := light.PrimaryStats, light.SecondaryStats
	total := primary + secondary
	if total < adjustmentWaitThreshold || math.Abs(primary-secondary)/total <= adjustmentImbalanceThreshold {
		return false
	}
	switch {
	case (light.Ratio == 0 && primary > 0) || (light.Ratio == 1 && secondary > 0):
		light.Ratio = primary / total
	case light.Ratio <= 0 || light.Ratio >= 1:
		// Pinned at extreme and starved side has not been waiting at all: nothing to rebalance
	default:
		primaryNormalized := primary / (1 - light.Ratio)
		secondaryNormalized := secondary / light.Ratio
		light.Ratio = primaryNormalized / (primaryNormalized + secondaryNormalized)
	}
	light.Ratio = math.Min(1, math.Max(0, light.Ratio))
	light.PrimaryStats = 0
	light.SecondaryStats = 0
	return true
}

func (light *TrafficLight) clone() TrafficLight {
	copied := *light
	copied.PrimaryDirections = make([]graph.VertexID, len(light.PrimaryDirections))
	copy(copied.PrimaryDirections, light.PrimaryDirections)
	return copied
}
