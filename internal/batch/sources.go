package batch

import (
	"context"
	"errors"
	"path/filepath"

	geom "github.com/twpayne/go-geom"

	"github.com/verdevoid/geo-boundary-automation/internal/boundary"
	"github.com/verdevoid/geo-boundary-automation/internal/geometry"
	"github.com/verdevoid/geo-boundary-automation/pkg/nominatim"
)

// DatasetSource resolves places against the boundary index and loads their
// geometry from the local dataset. Files holding several rows are dissolved
// into a single geometry.
type DatasetSource struct {
	Resolver *boundary.Resolver
	// DataRoot resolves the relative paths stored in the index.
	DataRoot string
}

// Fetch implements Source.
func (s *DatasetSource) Fetch(ctx context.Context, place string) (geom.T, error) {
	match, err := s.Resolver.Resolve(place)
	if err != nil {
		if errors.Is(err, boundary.ErrNotFound) {
			return nil, &NotFoundError{Place: place, Err: err}
		}
		return nil, err
	}

	gs, err := boundary.LoadGeometries(filepath.Join(s.DataRoot, filepath.FromSlash(match.Path)))
	if err != nil {
		return nil, err
	}
	if len(gs) == 1 {
		return gs[0], nil
	}
	return geometry.Union(gs...)
}

// OSMSource fetches boundaries live from Nominatim.
type OSMSource struct {
	Client *nominatim.Client
}

// Fetch implements Source.
func (s *OSMSource) Fetch(ctx context.Context, place string) (geom.T, error) {
	res, err := s.Client.Boundary(ctx, place)
	if err != nil {
		if errors.Is(err, nominatim.ErrNoBoundary) {
			return nil, &NotFoundError{Place: place, Err: err}
		}
		return nil, err
	}
	return res.Geometry, nil
}
