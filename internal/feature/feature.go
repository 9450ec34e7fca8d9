// Package feature turns cleaned boundary geometries into GeoJSON Feature
// records ready for file output.
package feature

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Provenance marks how every emitted geometry was produced. The downstream
// consumers treat it as an opaque marker; the dataset uses this placeholder
// uniformly.
const Provenance = "user-drawn"

// Properties is the fixed property bag attached to every Feature.
type Properties struct {
	CreatedAt string `json:"created_at"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	// Annotations is reserved for downstream enrichment and always emitted,
	// even when empty.
	Annotations []string `json:"annotations"`
}

// Feature is one GeoJSON feature. Geometry is always a single-ring Polygon;
// the id is derived from wall-clock milliseconds at emission and unique
// within its collection.
type Feature struct {
	Type       string          `json:"type"`
	ID         int64           `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Properties      `json:"properties"`
}

// Collection is an ordered GeoJSON FeatureCollection, one per output file.
type Collection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Emit converts a geometry into one Feature per polygon part. Multi-part
// geometries are split in native part order, with a 1-based index appended to
// the display name of each part. Only the exterior ring of each part is kept.
func Emit(g geom.T, displayName string, now time.Time) ([]Feature, error) {
	parts, err := exteriorRings(g)
	if err != nil {
		return nil, err
	}

	base := now.UnixMilli()
	created := now.UTC().Format(time.RFC3339)

	features := make([]Feature, 0, len(parts))
	for i, ring := range parts {
		name := displayName
		if len(parts) > 1 {
			name = fmt.Sprintf("%s %d", displayName, i+1)
		}

		raw, err := geojson.Marshal(ring)
		if err != nil {
			return nil, eris.Wrapf(err, "feature: encode %s", name)
		}

		features = append(features, Feature{
			Type: "Feature",
			// Sequential offset keeps ids unique when parts are split
			// faster than the clock ticks.
			ID:       base + int64(i),
			Geometry: raw,
			Properties: Properties{
				CreatedAt:   created,
				Name:        name,
				Source:      Provenance,
				Annotations: []string{},
			},
		})
	}
	return features, nil
}

// NewCollection wraps features in a FeatureCollection.
func NewCollection(features []Feature) *Collection {
	return &Collection{Type: "FeatureCollection", Features: features}
}

// exteriorRings returns each polygon part as a single-ring polygon.
func exteriorRings(g geom.T) ([]*geom.Polygon, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		ring, err := singleRing(t)
		if err != nil {
			return nil, err
		}
		return []*geom.Polygon{ring}, nil
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, eris.New("feature: empty multi-polygon")
		}
		parts := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			ring, err := singleRing(t.Polygon(i))
			if err != nil {
				return nil, err
			}
			parts = append(parts, ring)
		}
		return parts, nil
	default:
		return nil, eris.Errorf("feature: unsupported geometry %T", g)
	}
}

func singleRing(p *geom.Polygon) (*geom.Polygon, error) {
	if p.NumLinearRings() == 0 {
		return nil, eris.New("feature: polygon without rings")
	}
	exterior := p.LinearRing(0)
	out := geom.NewPolygon(geom.XY).SetSRID(4326)
	if err := out.Push(geom.NewLinearRingFlat(geom.XY, exterior.FlatCoords())); err != nil {
		return nil, eris.Wrap(err, "feature: exterior ring")
	}
	return out, nil
}
