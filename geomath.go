package trafficsim

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// pointAlongLine returns point on line at given fraction of its length. Fraction is clamped to [0, 1]
//
// Note: panics if line is empty
func pointAlongLine(line orb.LineString, fraction float64) orb.Point {
	if len(line) == 1 {
		return line[0]
	}
	fraction = math.Min(1, math.Max(0, fraction))
	if fraction == 0 {
		return line[0]
	}
	if fraction == 1 {
		return line[len(line)-1]
	}
	pt, _ := geo.PointAtDistanceAlongLine(line, geo.Length(line)*fraction)
	return pt
}

// roadGeometry returns geometry of road. Straight segment between road's vertices is used when OSM geometry is unknown
func (net *Network) roadGeometry(key RoadKey) (orb.LineString, bool) {
	if line, ok := net.Geometries[key]; ok && len(line) > 0 {
		return line, true
	}
	from, okFrom := net.Positions[key.From]
	to, okTo := net.Positions[key.To]
	if !okFrom || !okTo {
		return nil, false
	}
	return orb.LineString{from, to}, true
}
