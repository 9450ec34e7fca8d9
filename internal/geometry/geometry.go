// Package geometry cleans boundary geometries before emission: validity
// repair through a zero-distance buffer equivalent (self-union), dissolve of
// multi-row sources, and optional topology simplification. All coordinates
// are geographic (EPSG:4326); GeoJSON input guarantees that by format, and a
// projected source is surfaced as an error rather than reprojected.
package geometry

import (
	"github.com/engelsjk/polygol"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Options controls Normalize. Simplification is used by the merge flow; the
// QA flow keeps exact boundary fidelity by leaving it off.
type Options struct {
	Simplify  bool
	Tolerance float64
}

// Normalize returns a valid geographic geometry for the input polygon or
// multi-polygon. Invalid geometry is repaired by self-union; if repair cannot
// produce validity the error propagates so the caller decides the fallback.
func Normalize(g geom.T, opts Options) (geom.T, error) {
	if err := checkGeographic(g); err != nil {
		return nil, err
	}

	if !Valid(g) {
		repaired, err := Repair(g)
		if err != nil {
			return nil, err
		}
		g = repaired
	}

	if opts.Simplify && opts.Tolerance > 0 {
		g = simplifyGeometry(g, opts.Tolerance)
		// Douglas-Peucker can reintroduce crossings on tight rings.
		if !Valid(g) {
			repaired, err := Repair(g)
			if err != nil {
				return nil, err
			}
			g = repaired
		}
	}

	if !Valid(g) {
		return nil, eris.New("geometry: repair did not produce a valid geometry")
	}
	return g, nil
}

// Repair resolves self-intersections by unioning the geometry with itself,
// the boolean-op equivalent of the classic zero-distance buffer.
func Repair(g geom.T) (geom.T, error) {
	pg, err := toPolygol(g)
	if err != nil {
		return nil, err
	}
	out, err := polygol.Union(pg)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: self-union repair")
	}
	repaired := fromPolygol(out)
	if repaired == nil {
		return nil, eris.New("geometry: repair produced an empty geometry")
	}
	return repaired, nil
}

// Union dissolves several polygonal geometries into one, used when a boundary
// file carries multiple rows (e.g. the municipalities of a province).
func Union(gs ...geom.T) (geom.T, error) {
	if len(gs) == 0 {
		return nil, eris.New("geometry: union of nothing")
	}

	first, err := toPolygol(gs[0])
	if err != nil {
		return nil, err
	}
	rest := make([]polygol.Geom, 0, len(gs)-1)
	for _, g := range gs[1:] {
		pg, err := toPolygol(g)
		if err != nil {
			return nil, err
		}
		rest = append(rest, pg)
	}

	out, err := polygol.Union(first, rest...)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: union")
	}
	merged := fromPolygol(out)
	if merged == nil {
		return nil, eris.New("geometry: union produced an empty geometry")
	}
	return merged, nil
}

// checkGeographic rejects coordinates outside longitude/latitude range.
func checkGeographic(g geom.T) error {
	b := g.Bounds()
	if b.Min(0) < -180 || b.Max(0) > 180 || b.Min(1) < -90 || b.Max(1) > 90 {
		return eris.New("geometry: coordinates outside EPSG:4326 range")
	}
	return nil
}

// simplifyGeometry runs Douglas-Peucker at the given tolerance, dropping any
// ring degenerated below four coordinates. Returns the input unchanged if
// simplification would erase the whole geometry.
func simplifyGeometry(g geom.T, tolerance float64) geom.T {
	dp := simplify.DouglasPeucker(tolerance)

	switch t := g.(type) {
	case *geom.Polygon:
		sp := dp.Polygon(toOrbPolygon(t.Coords()))
		out := polygonFromCoords(fromOrbPolygon(sp))
		if out == nil {
			return g
		}
		return out
	case *geom.MultiPolygon:
		smp := dp.MultiPolygon(toOrbMultiPolygon(t.Coords()))
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
		for _, op := range smp {
			poly := polygonFromCoords(fromOrbPolygon(op))
			if poly == nil {
				continue
			}
			if err := mp.Push(poly); err != nil {
				continue
			}
		}
		if mp.NumPolygons() == 0 {
			return g
		}
		return mp
	default:
		return g
	}
}

func toPolygol(g geom.T) (polygol.Geom, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygol.Geom{ringsToFloat(t.Coords())}, nil
	case *geom.MultiPolygon:
		coords := t.Coords()
		pg := make(polygol.Geom, 0, len(coords))
		for _, poly := range coords {
			pg = append(pg, ringsToFloat(poly))
		}
		return pg, nil
	default:
		return nil, eris.Errorf("geometry: unsupported type %T", g)
	}
}

// fromPolygol rebuilds go-geom geometry, returning a Polygon for single-part
// results and a MultiPolygon otherwise. Nil means empty.
func fromPolygol(pg polygol.Geom) geom.T {
	var polys []*geom.Polygon
	for _, rings := range pg {
		poly := polygonFromCoords(floatToRings(rings))
		if poly == nil {
			continue
		}
		polys = append(polys, poly)
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	default:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
		for _, p := range polys {
			if err := mp.Push(p); err != nil {
				continue
			}
		}
		if mp.NumPolygons() == 0 {
			return nil
		}
		return mp
	}
}

// polygonFromCoords builds a closed-ring polygon, skipping degenerate rings.
func polygonFromCoords(rings [][]geom.Coord) *geom.Polygon {
	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	for _, ring := range rings {
		ring = closeRing(ring)
		if len(ring) < 4 {
			continue
		}
		flat := make([]float64, 0, len(ring)*2)
		for _, c := range ring {
			flat = append(flat, c[0], c[1])
		}
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
	}
	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}

func closeRing(ring []geom.Coord) []geom.Coord {
	if len(ring) < 3 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] == last[0] && first[1] == last[1] {
		return ring
	}
	return append(ring, geom.Coord{first[0], first[1]})
}

func ringsToFloat(rings [][]geom.Coord) [][][]float64 {
	out := make([][][]float64, len(rings))
	for i, ring := range rings {
		r := make([][]float64, len(ring))
		for j, c := range ring {
			r[j] = []float64{c[0], c[1]}
		}
		out[i] = r
	}
	return out
}

func floatToRings(rings [][][]float64) [][]geom.Coord {
	out := make([][]geom.Coord, len(rings))
	for i, ring := range rings {
		r := make([]geom.Coord, len(ring))
		for j, pt := range ring {
			r[j] = geom.Coord{pt[0], pt[1]}
		}
		out[i] = r
	}
	return out
}

func toOrbPolygon(rings [][]geom.Coord) orb.Polygon {
	poly := make(orb.Polygon, len(rings))
	for i, ring := range rings {
		r := make(orb.Ring, len(ring))
		for j, c := range ring {
			r[j] = orb.Point{c[0], c[1]}
		}
		poly[i] = r
	}
	return poly
}

func toOrbMultiPolygon(polys [][][]geom.Coord) orb.MultiPolygon {
	mp := make(orb.MultiPolygon, len(polys))
	for i, rings := range polys {
		mp[i] = toOrbPolygon(rings)
	}
	return mp
}

func fromOrbPolygon(poly orb.Polygon) [][]geom.Coord {
	rings := make([][]geom.Coord, len(poly))
	for i, ring := range poly {
		r := make([]geom.Coord, len(ring))
		for j, pt := range ring {
			r[j] = geom.Coord{pt[0], pt[1]}
		}
		rings[i] = r
	}
	return rings
}
