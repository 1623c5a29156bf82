package trafficsim

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// osmDataRaw holds ways passing the filter and nodes referenced by them
type osmDataRaw struct {
	nodes     map[osm.NodeID]*Node
	ways      []*Way
	nodesSeen map[osm.NodeID]struct{}
	// Nodes are kept only if they have been referenced by already scanned ways
	filterNodes bool
}

func newOSMDataRaw() *osmDataRaw {
	return &osmDataRaw{
		nodes:     make(map[osm.NodeID]*Node),
		ways:      []*Way{},
		nodesSeen: make(map[osm.NodeID]struct{}),
	}
}

func newScanner(filename string, file io.Reader) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// ImportFromOSMFile reads OSM extract (XML or PBF, guessed by file extension) and builds road network.
// File is scanned twice: ways at first and then nodes referenced by them
func ImportFromOSMFile(filename string, cfg *OsmConfiguration) (*Network, error) {
	err := cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "Bad configuration")
	}
	if cfg.Verbose {
		log.WithField("file", filename).Info("Opening file")
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open file")
	}
	defer file.Close()

	data := newOSMDataRaw()

	st := time.Now()
	scannerWays, err := newScanner(filename, file)
	if err != nil {
		return nil, err
	}
	err = data.scan(scannerWays, cfg, true, false)
	scannerWays.Close()
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan ways")
	}
	if cfg.Verbose {
		log.WithFields(log.Fields{"ways": len(data.ways), "elapsed": time.Since(st)}).Info("Ways have been processed")
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	st = time.Now()
	data.filterNodes = true
	scannerNodes, err := newScanner(filename, file)
	if err != nil {
		return nil, err
	}
	err = data.scan(scannerNodes, cfg, false, true)
	scannerNodes.Close()
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan nodes")
	}
	if cfg.Verbose {
		log.WithFields(log.Fields{"nodes": len(data.nodes), "elapsed": time.Since(st)}).Info("Nodes have been processed")
	}

	return data.buildNetwork(cfg)
}

// ImportFromOSM builds road network from objects of given scanner in a single pass.
// Every node is kept in memory until ways are known, so prefer ImportFromOSMFile for large extracts
func ImportFromOSM(scanner OSMScanner, cfg *OsmConfiguration) (*Network, error) {
	err := cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "Bad configuration")
	}
	data := newOSMDataRaw()
	st := time.Now()
	err = data.scan(scanner, cfg, true, true)
	if err != nil {
		return nil, errors.Wrap(err, "Can't scan OSM data")
	}
	if cfg.Verbose {
		log.WithFields(log.Fields{
			"ways":    len(data.ways),
			"nodes":   len(data.nodes),
			"elapsed": time.Since(st),
		}).Info("OSM data has been processed")
	}
	return data.buildNetwork(cfg)
}

func (data *osmDataRaw) scan(scanner OSMScanner, cfg *OsmConfiguration, withWays, withNodes bool) error {
	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Way:
			if withWays {
				data.addWay(obj, cfg)
			}
		case *osm.Node:
			if withNodes {
				data.addNode(obj)
			}
		}
	}
	return scanner.Err()
}

func (data *osmDataRaw) addWay(way *osm.Way, cfg *OsmConfiguration) {
	if len(way.Nodes) < 2 {
		return
	}
	if !cfg.CheckTag(way.Tags.Find("highway")) {
		return
	}
	// Ignore ways with `area` tag provided
	if area := way.Tags.Find("area"); area != "" && area != "no" {
		return
	}
	prepared := newWay(way, cfg.Verbose)
	for _, nodeID := range prepared.Nodes {
		data.nodesSeen[nodeID] = struct{}{}
	}
	data.ways = append(data.ways, prepared)
}

func (data *osmDataRaw) addNode(node *osm.Node) {
	if data.filterNodes {
		if _, ok := data.nodesSeen[node.ID]; !ok {
			return
		}
	}
	data.nodes[node.ID] = newNode(node)
}
