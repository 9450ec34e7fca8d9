package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func TestNormalize_ValidPassthrough(t *testing.T) {
	out, err := Normalize(square(t), Options{})
	require.NoError(t, err)
	assert.True(t, Valid(out))
	assert.Equal(t, square(t).FlatCoords(), out.FlatCoords())
}

func TestNormalize_FixedPoint(t *testing.T) {
	opts := Options{Simplify: true, Tolerance: 0.0001}

	once, err := Normalize(square(t), opts)
	require.NoError(t, err)
	twice, err := Normalize(once, opts)
	require.NoError(t, err)

	assert.Equal(t, once.FlatCoords(), twice.FlatCoords())
}

func TestNormalize_RepairsBowtie(t *testing.T) {
	out, err := Normalize(bowtie(t), Options{})
	require.NoError(t, err)
	assert.True(t, Valid(out))
}

func TestNormalize_SimplifyDropsCollinearPoint(t *testing.T) {
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		0, 0,
		0.5, 0.00000001, // within tolerance of the bottom edge
		1, 0,
		1, 1,
		0, 1,
		0, 0,
	})))

	out, err := Normalize(poly, Options{Simplify: true, Tolerance: 0.0001})
	require.NoError(t, err)

	simplified, ok := out.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 5, simplified.LinearRing(0).NumCoords())
}

func TestNormalize_RejectsProjectedCoordinates(t *testing.T) {
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		500000, 0, 500001, 0, 500001, 1, 500000, 1, 500000, 0,
	})))

	_, err := Normalize(poly, Options{})
	assert.Error(t, err)
}

func TestNormalize_UnsupportedGeometry(t *testing.T) {
	_, err := Normalize(geom.NewPointFlat(geom.XY, []float64{121, 17}), Options{})
	assert.Error(t, err)
}

func TestRepair_BowtieSplitsIntoValidParts(t *testing.T) {
	out, err := Repair(bowtie(t))
	require.NoError(t, err)
	assert.True(t, Valid(out))
}

func TestUnion_OverlappingSquares(t *testing.T) {
	a := geom.NewPolygon(geom.XY)
	require.NoError(t, a.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 2, 0, 2, 2, 0, 2, 0, 0})))
	b := geom.NewPolygon(geom.XY)
	require.NoError(t, b.Push(geom.NewLinearRingFlat(geom.XY, []float64{1, 0, 3, 0, 3, 2, 1, 2, 1, 0})))

	out, err := Union(a, b)
	require.NoError(t, err)
	require.True(t, Valid(out))

	// Overlapping squares dissolve into one part.
	_, isPolygon := out.(*geom.Polygon)
	assert.True(t, isPolygon)

	b2 := out.Bounds()
	assert.Equal(t, 0.0, b2.Min(0))
	assert.Equal(t, 3.0, b2.Max(0))
}

func TestUnion_DisjointSquaresKeepParts(t *testing.T) {
	a := geom.NewPolygon(geom.XY)
	require.NoError(t, a.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0})))
	b := geom.NewPolygon(geom.XY)
	require.NoError(t, b.Push(geom.NewLinearRingFlat(geom.XY, []float64{5, 0, 6, 0, 6, 1, 5, 1, 5, 0})))

	out, err := Union(a, b)
	require.NoError(t, err)

	mp, ok := out.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestUnion_Empty(t *testing.T) {
	_, err := Union()
	assert.Error(t, err)
}
