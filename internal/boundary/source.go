package boundary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SourceNames reads the administrative-name fields from the first row of a
// boundary file. A file may yield zero, one, or two names depending on which
// level fields are populated.
func SourceNames(path string, levelFields []string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return shapefileNames(path, levelFields)
	case ".json", ".geojson":
		return geojsonNames(path, levelFields)
	default:
		return nil, eris.Errorf("boundary: unrecognized extension %q", filepath.Ext(path))
	}
}

// LoadGeometries reads every row's geometry from a boundary file.
func LoadGeometries(path string) ([]geom.T, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return shapefileGeometries(path)
	case ".json", ".geojson":
		return geojsonGeometries(path)
	default:
		return nil, eris.Errorf("boundary: unrecognized extension %q", filepath.Ext(path))
	}
}

func geojsonNames(path string, levelFields []string) ([]string, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	props := fc.Features[0].Properties
	var names []string
	for _, field := range levelFields {
		if v, ok := props[field]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				names = append(names, s)
			}
		}
	}
	return names, nil
}

func geojsonGeometries(path string) ([]geom.T, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var gs []geom.T
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		gs = append(gs, f.Geometry)
	}
	if len(gs) == 0 {
		return nil, eris.Errorf("boundary: %s contains no geometry", path)
	}
	return gs, nil
}

// readFeatureCollection parses a GeoJSON file as a FeatureCollection,
// falling back to a single Feature wrapped in a collection.
func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err == nil && len(fc.Features) > 0 {
		return &fc, nil
	}

	var f geojson.Feature
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "boundary: parse %s", path)
	}
	return &geojson.FeatureCollection{Features: []*geojson.Feature{&f}}, nil
}

func shapefileNames(path string, levelFields []string) ([]string, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Field name -> index, case-insensitive like the attribute tables are.
	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	if !reader.Next() {
		return nil, nil
	}

	var names []string
	for _, field := range levelFields {
		idx, ok := fieldIdx[strings.ToLower(field)]
		if !ok {
			continue
		}
		val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		if val != "" {
			names = append(names, val)
		}
	}
	return names, nil
}

func shapefileGeometries(path string) ([]geom.T, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var gs []geom.T
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			continue
		}
		gs = append(gs, g)
	}
	if len(gs) == 0 {
		return nil, eris.Errorf("boundary: %s contains no polygon records", path)
	}
	return gs, nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
