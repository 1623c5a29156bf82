package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LdDl/trafficsim"
	"github.com/LdDl/trafficsim/graph"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	tagStr       = flag.String("tags", "motorway,primary,primary_link,road,secondary,secondary_link,residential,tertiary,tertiary_link,unclassified,trunk,trunk_link,motorway_link", "Set of needed tags (separated by commas)")
	osmFileName  = flag.String("file", "", "Filename of OSM extract (*.osm / *.xml / *.osm.pbf)")
	graphFile    = flag.String("graph", "", "Filename of binary graph to load instead of OSM extract")
	units        = flag.String("units", "meters", "Units of edge weights. Expected values: meters / kilometers")
	outGraph     = flag.String("out-graph", "", "Filename to write binary graph into. Empty means no output")
	carsNum      = flag.Int("cars", 100, "Amount of cars to keep on the roads")
	maxTPS       = flag.Float64("tps", 30, "Max ticks per second. Non-positive value means no limit")
	lightTime    = flag.Float64("light-time", trafficsim.DefaultTrafficLightTime, "Cycle length of traffic lights created for junctions")
	duration     = flag.Duration("duration", time.Minute, "Run time. Zero means run until interrupted")
	reportPeriod = flag.Int("report", 100, "Log summary every N ticks")
	geojsonOut   = flag.String("geojson", "", "Filename to write final GeoJSON snapshot into. Empty means no output")
	csvOut       = flag.String("csv", "", "Base filename of CSV export of network. E.g.: if file name is 'map.csv' then 'map_roads.csv' and 'map_vertices.csv' will be produced")
	verbose      = flag.Bool("verbose", false, "Debug logging")
	seed         = flag.Int64("seed", time.Now().UnixNano(), "Seed for random routes")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	net, err := loadNetwork()
	if err != nil {
		log.WithError(err).Fatal("Can't load road network")
	}

	if *outGraph != "" {
		err = writeGraph(net.Graph, *outGraph)
		if err != nil {
			log.WithError(err).Fatal("Can't write graph")
		}
	}
	if *csvOut != "" {
		err = net.ExportToCSV(*csvOut)
		if err != nil {
			log.WithError(err).Fatal("Can't export network")
		}
	}

	for _, light := range net.Lights {
		light.TotalTime = *lightTime
	}

	st := time.Now()
	router, err := graph.NewContractedRouter(net.Graph)
	if err != nil {
		log.WithError(err).Fatal("Can't prepare router")
	}
	log.WithField("elapsed", time.Since(st)).Info("Contraction hierarchies have been prepared")

	sim := net.NewSimulation(
		trafficsim.WithMaxTPS(*maxTPS),
		trafficsim.WithTrafficLightTime(*lightTime),
		trafficsim.WithLogger(log.StandardLogger()),
	)
	log.Info(sim)
	seeder := newCarSeeder(sim, router, *seed)
	sim.On(trafficsim.EventUpdate, newReporter(sim, *reportPeriod))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	err = sim.Start()
	if err != nil {
		log.WithError(err).Fatal("Can't start simulation")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return seeder.run(ctx, *carsNum)
	})
	group.Go(func() error {
		<-ctx.Done()
		sim.Stop()
		return nil
	})
	err = group.Wait()
	if err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}

	if *geojsonOut != "" {
		b, err := net.SnapshotGeoJSON(sim.Cars(), sim.TrafficLights())
		if err != nil {
			log.WithError(err).Fatal("Can't prepare GeoJSON snapshot")
		}
		err = os.WriteFile(*geojsonOut, b, 0o644)
		if err != nil {
			log.WithError(err).Fatal("Can't write GeoJSON snapshot")
		}
	}
}

func loadNetwork() (*trafficsim.Network, error) {
	if *graphFile != "" {
		file, err := os.Open(*graphFile)
		if err != nil {
			return nil, errors.Wrap(err, "Can't open graph file")
		}
		defer file.Close()
		g := graph.NewAdjacencyListGraph()
		err = graph.ReadFrom(file, g)
		if err != nil {
			return nil, errors.Wrap(err, "Can't read graph")
		}
		return trafficsim.NetworkFromGraph(g), nil
	}
	if *osmFileName == "" {
		return nil, errors.New("either -file or -graph should be provided")
	}
	cfg := trafficsim.OsmConfiguration{
		EntityName: "highway", // Currently we do not support others
		Tags:       strings.Split(*tagStr, ","),
		Verbose:    *verbose,
	}
	err := cfg.ParseUnits(*units)
	if err != nil {
		return nil, err
	}
	return trafficsim.ImportFromOSMFile(*osmFileName, &cfg)
}

func writeGraph(g graph.Graph, fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()
	return graph.WriteTo(file, g)
}

// carSeeder keeps amount of cars on the roads by adding cars with random routes
type carSeeder struct {
	sim      *trafficsim.Simulation
	router   *graph.ContractedRouter
	vertices []graph.VertexID
	rnd      *rand.Rand
}

func newCarSeeder(sim *trafficsim.Simulation, router *graph.ContractedRouter, seed int64) *carSeeder {
	return &carSeeder{
		sim:      sim,
		router:   router,
		vertices: sim.Graph().GetVertices(),
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

func (seeder *carSeeder) run(ctx context.Context, target int) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		seeder.refill(target)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (seeder *carSeeder) refill(target int) {
	if len(seeder.vertices) < 2 {
		return
	}
	missing := target - len(seeder.sim.Cars())
	for attempts := 0; missing > 0 && attempts < 10*target; attempts++ {
		source := seeder.vertices[seeder.rnd.Intn(len(seeder.vertices))]
		destination := seeder.vertices[seeder.rnd.Intn(len(seeder.vertices))]
		if source == destination {
			continue
		}
		path, err := seeder.router.ShortestPath(source, destination)
		if err != nil {
			continue
		}
		_, err = seeder.sim.AddCar(trafficsim.Car{
			AverageSpeed:   10 + seeder.rnd.Float64()*20,
			OffroadQuality: seeder.rnd.Float64(),
			Label:          "car-" + lo.RandomString(6, lo.AlphanumericCharset),
			Route:          append([]graph.VertexID{source}, path.Vertices...),
		})
		if err != nil {
			log.WithError(err).Warning("Can't add car")
			continue
		}
		missing--
	}
}

// newReporter returns EventUpdate handler which logs summary every period ticks
func newReporter(sim *trafficsim.Simulation, period int) func(float64) {
	ticks := 0
	return func(delta float64) {
		ticks++
		if period <= 0 || ticks%period != 0 {
			return
		}
		cars := sim.Cars()
		standing := lo.CountBy(cars, func(car trafficsim.SimulatedCar) bool {
			return car.StandingReason != nil
		})
		avgSpeed := 0.0
		if len(cars) > 0 {
			avgSpeed = lo.SumBy(cars, func(car trafficsim.SimulatedCar) float64 {
				return car.CurrentSpeed
			}) / float64(len(cars))
		}
		log.WithFields(log.Fields{
			"cycle":     sim.Cycle(),
			"delta":     delta,
			"cars":      len(cars),
			"standing":  standing,
			"avg_speed": avgSpeed,
		}).Info("Simulation summary")
	}
}
