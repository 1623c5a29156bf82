package trafficsim

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

type Node struct {
	ID          osm.NodeID
	Point       orb.Point
	useCount    int
	controlType ControlType
}

type ControlType uint16

const (
	NOT_SIGNAL = ControlType(iota + 1)
	IS_SIGNAL
)

func (iotaIdx ControlType) String() string {
	return [...]string{"common", "signal"}[iotaIdx-1]
}

func newNode(node *osm.Node) *Node {
	controlType := NOT_SIGNAL
	if node.Tags.Find("highway") == "traffic_signals" {
		controlType = IS_SIGNAL
	}
	return &Node{
		ID:          node.ID,
		Point:       node.Point(),
		controlType: controlType,
	}
}
