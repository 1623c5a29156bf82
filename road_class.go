package trafficsim

type HighwayType uint16

const (
	HIGHWAY_MOTORWAY = HighwayType(iota + 1)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_SERVICE
	HIGHWAY_TRACK
	HIGHWAY_UNCLASSIFIED
)

func (iotaIdx HighwayType) String() string {
	return [...]string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "living_street", "service", "track", "unclassified"}[iotaIdx-1]
}

// getHighwayType returns 0 for values which are not drivable roads
func getHighwayType(str string) HighwayType {
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return 0
}

// roadFromHighway returns road attributes for given highway class. Non-positive lanes are replaced by class default
func roadFromHighway(highway HighwayType, lanes int, name string) Road {
	road := DefaultRoad()
	road.Name = name
	if quality, ok := roadQualityByHighway[highway]; ok {
		road.Quality = quality
	}
	if lanes > 0 {
		road.Lanes = lanes
	} else if defaultLanes, ok := defaultLanesByHighway[highway]; ok {
		road.Lanes = defaultLanes
	}
	return road
}

var (
	highwaysTypes = map[string]HighwayType{
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"service":        HIGHWAY_SERVICE,
		"track":          HIGHWAY_TRACK,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
	}
	defaultLanesByHighway = map[HighwayType]int{
		HIGHWAY_MOTORWAY:       4,
		HIGHWAY_MOTORWAY_LINK:  1,
		HIGHWAY_TRUNK:          3,
		HIGHWAY_TRUNK_LINK:     1,
		HIGHWAY_PRIMARY:        3,
		HIGHWAY_PRIMARY_LINK:   1,
		HIGHWAY_SECONDARY:      2,
		HIGHWAY_SECONDARY_LINK: 1,
		HIGHWAY_TERTIARY:       2,
		HIGHWAY_TERTIARY_LINK:  1,
		HIGHWAY_RESIDENTIAL:    1,
		HIGHWAY_LIVING_STREET:  1,
		HIGHWAY_SERVICE:        1,
		HIGHWAY_TRACK:          1,
		HIGHWAY_UNCLASSIFIED:   1,
	}
	roadQualityByHighway = map[HighwayType]float64{
		HIGHWAY_MOTORWAY:       1.0,
		HIGHWAY_MOTORWAY_LINK:  0.95,
		HIGHWAY_TRUNK:          0.95,
		HIGHWAY_TRUNK_LINK:     0.9,
		HIGHWAY_PRIMARY:        0.9,
		HIGHWAY_PRIMARY_LINK:   0.85,
		HIGHWAY_SECONDARY:      0.85,
		HIGHWAY_SECONDARY_LINK: 0.8,
		HIGHWAY_TERTIARY:       0.8,
		HIGHWAY_TERTIARY_LINK:  0.75,
		HIGHWAY_RESIDENTIAL:    0.7,
		HIGHWAY_LIVING_STREET:  0.5,
		HIGHWAY_SERVICE:        0.6,
		HIGHWAY_TRACK:          0.3,
		HIGHWAY_UNCLASSIFIED:   0.6,
	}
)
