package trafficsim

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/trafficsim/graph"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, fname string) [][]string {
	t.Helper()
	file, err := os.Open(fname)
	require.NoError(t, err)
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = ';'
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportToCSV(t *testing.T) {
	net := importSample(t, DefaultOsmConfiguration())
	base := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, net.ExportToCSV(base))

	roads := readCSV(t, filepath.Join(filepath.Dir(base), "sample_roads.csv"))
	require.Len(t, roads, 7)
	assert.Equal(t, []string{"source_vertex", "target_vertex", "weight", "units", "lanes", "quality", "name", "geom"}, roads[0])
	assert.Equal(t, "0", roads[1][0])
	assert.Equal(t, "1", roads[1][1])
	assert.Equal(t, "meters", roads[1][3])
	assert.Equal(t, "2", roads[1][4])
	assert.Equal(t, "Main", roads[1][6])
	assert.Equal(t, "LINESTRING(37.6 55.75,37.601 55.75,37.602 55.75)", roads[1][7])

	vertices := readCSV(t, filepath.Join(filepath.Dir(base), "sample_vertices.csv"))
	require.Len(t, vertices, 6)
	assert.Equal(t, []string{"0", "1", "common", "POINT(37.6 55.75)"}, vertices[1])
	assert.Equal(t, []string{"1", "3", "signal", "POINT(37.602 55.75)"}, vertices[2])
}

func TestSnapshotGeoJSON(t *testing.T) {
	net := importSample(t, DefaultOsmConfiguration())
	sim := net.NewSimulation(WithLogger(quietLogger()))
	require.NoError(t, sim.prepare())
	_, err := sim.AddCar(Car{AverageSpeed: 10, OffroadQuality: 1, Label: "probe", Route: []graph.VertexID{0, 1, 2}})
	require.NoError(t, err)

	b, err := net.SnapshotGeoJSON(sim.Cars(), sim.TrafficLights())
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)

	kinds := map[string][]*geojson.Feature{}
	for _, feature := range fc.Features {
		kind, err := feature.PropertyString("kind")
		require.NoError(t, err)
		kinds[kind] = append(kinds[kind], feature)
	}
	assert.Len(t, kinds["road"], 6)
	require.Len(t, kinds["traffic_light"], 1)
	require.Len(t, kinds["car"], 1)

	light := kinds["traffic_light"][0]
	assert.Equal(t, []float64{37.602, 55.75}, light.Geometry.Point)
	green, err := light.PropertyBool("primary_green")
	require.NoError(t, err)
	assert.True(t, green)

	car := kinds["car"][0]
	assert.Equal(t, []float64{37.6, 55.75}, car.Geometry.Point)
	label, err := car.PropertyString("label")
	require.NoError(t, err)
	assert.Equal(t, "probe", label)
}
