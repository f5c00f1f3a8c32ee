package store

import (
	"context"
	"fmt"

	"github.com/cci-tools/odpstore/internal/chunkstore"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/subset"
)

// Opener ids, one per type specifier.
const (
	DatasetOpenerID = "dataset:zarr:cciodp"
	CubeOpenerID    = "dataset[cube]:zarr:cciodp"
)

// OpenerIDs lists the opener ids able to serve a type specifier.
func OpenerIDs(typeSpec model.TypeSpecifier) []string {
	switch typeSpec {
	case model.TypeDataset:
		return []string{DatasetOpenerID}
	case model.TypeCube:
		return []string{CubeOpenerID}
	default:
		return []string{DatasetOpenerID, CubeOpenerID}
	}
}

// OpenDataset opens a dataset as a lazy chunk store. Variables keep the
// dimensions the granules declare unless params.Normalize asks for the cube
// treatment.
func (s *Store) OpenDataset(ctx context.Context, dataID string, params model.OpenParams) (*chunkstore.Store, error) {
	return s.openData(ctx, dataID, params, params.Normalize)
}

// OpenCube opens a dataset as a cube: canonical time/lat/lon layout with
// optional spatial subsetting by bounding box.
func (s *Store) OpenCube(ctx context.Context, dataID string, params model.OpenParams) (*chunkstore.Store, error) {
	return s.openData(ctx, dataID, params, true)
}

func (s *Store) openData(ctx context.Context, dataID string, params model.OpenParams, cube bool) (*chunkstore.Store, error) {
	if err := params.Validate(); err != nil {
		return nil, &StoreError{Message: fmt.Sprintf("cannot open %q", dataID), Err: err}
	}
	ok, err := s.cat.Has(ctx, dataID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storeErrorf("cannot open %q: unknown dataset id", dataID)
	}

	csParams := chunkstore.Params{
		VariableNames: params.VariableNames,
		TimeRange:     params.TimeRange,
	}
	if params.BBox != nil {
		if !cube {
			return nil, storeErrorf("cannot open %q: spatial subsetting requires the cube opener", dataID)
		}
		bbox, err := s.prepareBBox(ctx, dataID, *params.BBox)
		if err != nil {
			return nil, &StoreError{Message: fmt.Sprintf("cannot open %q", dataID), Err: err}
		}
		csParams.BBox = &bbox
	}

	opts := []chunkstore.Option{chunkstore.WithLogger(s.log)}
	if s.cache != nil {
		opts = append(opts, chunkstore.WithChunkCache(s.cache))
	}
	cs, err := chunkstore.New(ctx, s.cat, dataID, csParams, opts...)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// prepareBBox pads and validates a requested box against the dataset's
// coordinate axes.
func (s *Store) prepareBBox(ctx context.Context, dataID string, bbox model.BBox) (model.BBox, error) {
	coords, err := s.cat.GetDimensionData(ctx, dataID, []string{"lon", "lat", "longitude", "latitude"})
	if err != nil {
		return model.BBox{}, err
	}
	lon := coords["lon"]
	if lon == nil {
		lon = coords["longitude"]
	}
	lat := coords["lat"]
	if lat == nil {
		lat = coords["latitude"]
	}
	if lon == nil || lat == nil {
		return model.BBox{}, fmt.Errorf("no geocoding found for spatial subset")
	}
	return subset.Prepare(bbox, lon, lat)
}
