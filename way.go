package trafficsim

import (
	"regexp"
	"strconv"

	"github.com/paulmach/osm"
	log "github.com/sirupsen/logrus"
)

type Way struct {
	ID         osm.WayID
	Name       string
	Highway    HighwayType
	Oneway     bool
	IsReversed bool
	Nodes      []osm.NodeID

	lanes         int
	lanesForward  int
	lanesBackward int
}

var (
	lanesRegExp = regexp.MustCompile(`^\d+`)
)

func newWay(way *osm.Way, verbose bool) *Way {
	oneway := false
	isReversed := false
	onewayText := way.Tags.Find("oneway")
	if onewayText != "" {
		if onewayText == "yes" || onewayText == "1" || onewayText == "true" {
			oneway = true
		} else if onewayText == "no" || onewayText == "0" || onewayText == "false" {
			oneway = false
		} else if onewayText == "-1" {
			oneway = true
			isReversed = true
		} else {
			// Reversible and alternating ways depend on time conditions: treat them as two-way
			if _, found := onewayReversible[onewayText]; !found && verbose {
				log.WithFields(log.Fields{
					"way_id": way.ID,
					"oneway": onewayText,
				}).Warning("Unhandled `oneway` tag value has been met")
			}
		}
	} else if _, ok := junctionTypes[way.Tags.Find("junction")]; ok {
		oneway = true
	}

	prepared := &Way{
		ID:         way.ID,
		Name:       way.Tags.Find("name"),
		Highway:    getHighwayType(way.Tags.Find("highway")),
		Oneway:     oneway,
		IsReversed: isReversed,
		Nodes:      make([]osm.NodeID, 0, len(way.Nodes)),
	}
	for _, node := range way.Nodes {
		prepared.Nodes = append(prepared.Nodes, node.ID)
	}
	prepared.lanes = parseLanes(way, "lanes", verbose)
	prepared.lanesForward = parseLanes(way, "lanes:forward", verbose)
	prepared.lanesBackward = parseLanes(way, "lanes:backward", verbose)
	return prepared
}

// parseLanes returns -1 when tag is absent or malformed
func parseLanes(way *osm.Way, tag string, verbose bool) int {
	text := way.Tags.Find(tag)
	if text == "" {
		return -1
	}
	lanesNum := lanesRegExp.FindString(text)
	lanes, err := strconv.Atoi(lanesNum)
	if err != nil || lanes <= 0 {
		if verbose {
			log.WithFields(log.Fields{
				"way_id": way.ID,
				"tag":    tag,
				"value":  text,
			}).Warning("Provided lanes tag value should be a positive integer")
		}
		return -1
	}
	return lanes
}

// forwardLanes returns amount of lanes along the way's drawing direction, -1 if tags do not tell
func (way *Way) forwardLanes() int {
	if way.lanesForward > 0 {
		return way.lanesForward
	}
	return way.splitLanes()
}

// backwardLanes returns amount of lanes against the way's drawing direction, -1 if tags do not tell
func (way *Way) backwardLanes() int {
	if way.lanesBackward > 0 {
		return way.lanesBackward
	}
	return way.splitLanes()
}

func (way *Way) splitLanes() int {
	if way.lanes <= 0 {
		return -1
	}
	if way.Oneway {
		return way.lanes
	}
	return (way.lanes + 1) / 2
}

var (
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}
)
