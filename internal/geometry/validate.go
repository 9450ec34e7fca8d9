package geometry

import (
	geom "github.com/twpayne/go-geom"
)

// Valid reports whether a polygonal geometry is usable for output: every ring
// is closed with at least four coordinates, has nonzero area, and no two
// non-adjacent ring segments properly cross. Non-polygonal geometries are
// never valid here.
func Valid(g geom.T) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonValid(t.Coords())
	case *geom.MultiPolygon:
		coords := t.Coords()
		if len(coords) == 0 {
			return false
		}
		for _, poly := range coords {
			if !polygonValid(poly) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func polygonValid(rings [][]geom.Coord) bool {
	if len(rings) == 0 {
		return false
	}
	for _, ring := range rings {
		if !ringValid(ring) {
			return false
		}
	}
	return true
}

func ringValid(ring []geom.Coord) bool {
	if len(ring) < 4 {
		return false
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return false
	}
	if ringArea(ring) == 0 {
		return false
	}
	return !ringSelfIntersects(ring)
}

// ringArea is the signed shoelace area of a closed ring.
func ringArea(ring []geom.Coord) float64 {
	var area float64
	for i := 0; i < len(ring)-1; i++ {
		area += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return area / 2
}

// ringSelfIntersects checks every pair of non-adjacent segments for a proper
// crossing. O(n^2), acceptable for administrative boundaries at this resolution.
func ringSelfIntersects(ring []geom.Coord) bool {
	n := len(ring) - 1 // segment count; ring is closed
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last segments share a vertex
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing of segments (a,b) and (c,d),
// excluding endpoint touches.
func segmentsCross(a, b, c, d geom.Coord) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b geom.Coord) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
