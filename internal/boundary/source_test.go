package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func TestSourceNames_GeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeBoundaryFile(t, dir, "isabela.json", map[string]string{"ADM2_EN": "Isabela"})

	names, err := SourceNames(path, []string{"ADM2_EN", "ADM3_EN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Isabela"}, names)
}

func TestSourceNames_UnrecognizedExtension(t *testing.T) {
	_, err := SourceNames("boundaries.csv", []string{"ADM2_EN"})
	assert.Error(t, err)
}

func TestLoadGeometries_GeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeBoundaryFile(t, dir, "isabela.json", map[string]string{"ADM2_EN": "Isabela"})

	gs, err := LoadGeometries(path)
	require.NoError(t, err)
	require.Len(t, gs, 1)
	assert.IsType(t, &geom.Polygon{}, gs[0])
}

func TestLoadGeometries_MultiFeature(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},` +
		`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[2,0],[3,0],[3,1],[2,1],[2,0]]]}}]}`
	path := filepath.Join(dir, "pair.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	gs, err := LoadGeometries(path)
	require.NoError(t, err)
	assert.Len(t, gs, 2)
}

func TestLoadGeometries_SingleFeatureDocument(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"Feature","properties":{"ADM2_EN":"Isabela"},"geometry":` + squareGeometry + `}`
	path := filepath.Join(dir, "single.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	gs, err := LoadGeometries(path)
	require.NoError(t, err)
	assert.Len(t, gs, 1)
}

// writeShapefile builds a .shp/.dbf fixture pair with one polygon record and
// one ADM2_EN attribute. go-shp's writer creates the attribute file without
// the extension dot, so it is renamed to the name the reader expects.
func writeShapefile(t *testing.T, dir, base, adm2 string) string {
	t.Helper()

	path := filepath.Join(dir, base+".shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("ADM2_EN", 50)}))

	poly := &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: 121.0, Y: 17.0},
			{X: 121.0, Y: 18.0},
			{X: 122.0, Y: 18.0},
			{X: 122.0, Y: 17.0},
			{X: 121.0, Y: 17.0},
		},
	}
	row := w.Write(poly)
	require.NoError(t, w.WriteAttribute(int(row), 0, adm2))
	w.Close()

	require.NoError(t, os.Rename(filepath.Join(dir, base+"dbf"), filepath.Join(dir, base+".dbf")))
	return path
}

func TestSourceNames_Shapefile(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, "isabela", "Isabela")

	names, err := SourceNames(path, []string{"ADM2_EN", "ADM3_EN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Isabela"}, names)
}

func TestSourceNames_ShapefileFieldMatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, "isabela", "Isabela")

	names, err := SourceNames(path, []string{"adm2_en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Isabela"}, names)
}

func TestSourceNames_ShapefileMatchesGeoJSON(t *testing.T) {
	dir := t.TempDir()
	shpPath := writeShapefile(t, dir, "isabela", "Isabela")
	jsonPath := writeBoundaryFile(t, dir, "isabela.json", map[string]string{"ADM2_EN": "Isabela"})

	fields := []string{"ADM2_EN", "ADM3_EN"}
	fromShp, err := SourceNames(shpPath, fields)
	require.NoError(t, err)
	fromJSON, err := SourceNames(jsonPath, fields)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromShp)
}

func TestLoadGeometries_Shapefile(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir, "isabela", "Isabela")

	gs, err := LoadGeometries(path)
	require.NoError(t, err)
	require.Len(t, gs, 1)

	mp, ok := gs[0].(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 4326, mp.SRID())
}

func TestPolygonToMultiPolygon_SinglePart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 121.0, Y: 17.0},
			{X: 121.0, Y: 18.0},
			{X: 122.0, Y: 18.0},
			{X: 122.0, Y: 17.0},
			{X: 121.0, Y: 17.0}, // closed ring
		},
	}

	g := polygonToMultiPolygon(poly)
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 4326, mp.SRID())
}

func TestPolygonToMultiPolygon_MultiPart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
			{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 0}, {X: 2, Y: 0},
		},
	}

	g := polygonToMultiPolygon(poly)
	require.NotNil(t, g)

	mp := g.(*geom.MultiPolygon)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestPolygonToMultiPolygon_Empty(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}
