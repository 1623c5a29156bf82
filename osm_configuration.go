package trafficsim

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Units of edge weights
const (
	UnitsMeters     = "meters"
	UnitsKilometers = "kilometers"
)

var (
	ErrUnknownUnits  = errors.New("unknown units")
	ErrUnknownEntity = errors.New("unknown entity name")
)

// OsmConfiguration Allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // Currrently we support 'highway' only
	Tags       []string
	// Units of edge weights: 'meters' or 'kilometers'
	Units   string
	Verbose bool
}

// DefaultOsmConfiguration returns configuration accepting every motorized highway class with weights in meters
func DefaultOsmConfiguration() *OsmConfiguration {
	return &OsmConfiguration{
		EntityName: "highway",
		Tags: []string{
			"motorway", "motorway_link",
			"trunk", "trunk_link",
			"primary", "primary_link",
			"secondary", "secondary_link",
			"tertiary", "tertiary_link",
			"unclassified", "residential", "living_street", "service", "road",
		},
		Units: UnitsMeters,
	}
}

// CheckTag Checks if incoming tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	return lo.Contains(cfg.Tags, tag)
}

// ParseUnits parsing flag units
func (cfg *OsmConfiguration) ParseUnits(units string) error {
	switch units {
	case UnitsMeters, UnitsKilometers:
		cfg.Units = units
		return nil
	default:
		return errors.Wrapf(ErrUnknownUnits, "'%s' (expected '%s' or '%s')", units, UnitsMeters, UnitsKilometers)
	}
}

// validate checks fields which can't be fixed by defaults
func (cfg *OsmConfiguration) validate() error {
	if cfg.EntityName != "" && cfg.EntityName != "highway" {
		return errors.Wrapf(ErrUnknownEntity, "'%s' (only 'highway' is supported)", cfg.EntityName)
	}
	if cfg.Units != "" {
		return cfg.ParseUnits(cfg.Units)
	}
	return nil
}

// scale returns multiplier converting meters into configured units
func (cfg *OsmConfiguration) scale() float64 {
	if cfg.Units == UnitsKilometers {
		return 0.001
	}
	return 1.0
}
