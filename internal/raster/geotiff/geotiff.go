// Package geotiff implements raster.Store on top of GDAL.
package geotiff

import (
	"fmt"
	"math"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/pberezina/LandsatPreprocessing/internal/raster"
)

var registerOnce sync.Once

// Store reads any GDAL-readable raster and writes single-band float32
// GeoTIFFs with NaN as the declared no-data value.
type Store struct {
	// CreationOptions are passed to the GTiff driver, e.g. "COMPRESS=DEFLATE".
	CreationOptions []string
}

// New creates a Store and registers the GDAL drivers once per process.
func New(creationOptions ...string) *Store {
	registerOnce.Do(godal.RegisterAll)
	return &Store{CreationOptions: creationOptions}
}

// Read loads band 1 of path as float64.
func (s *Store) Read(path string) (*raster.Image, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", raster.ErrRasterRead, path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, fmt.Errorf("%w: %s: no bands", raster.ErrRasterRead, path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		// Ungeoreferenced inputs keep the identity transform
		gt = [6]float64{0, 1, 0, 0, 0, 1}
	}

	proj, err := canonicalWKT(ds.Projection())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: projection: %v", raster.ErrRasterRead, path, err)
	}

	img := raster.NewImage(raster.SpatialRef{
		GeoTransform: gt,
		Projection:   proj,
		Width:        st.SizeX,
		Height:       st.SizeY,
	})
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", raster.ErrRasterRead, path, err)
	}

	if err := ds.Bands()[0].Read(0, 0, img.Pix, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", raster.ErrRasterRead, path, err)
	}
	return img, nil
}

// Write creates (or replaces) path as a one-band float32 GeoTIFF carrying
// the image's geotransform and projection.
func (s *Store) Write(path string, img *raster.Float32Image) error {
	if img == nil || len(img.Pix) != img.Len() {
		return fmt.Errorf("%w: %s: image does not match its dimensions", raster.ErrRasterWrite, path)
	}

	var opts []godal.DatasetCreateOption
	if len(s.CreationOptions) > 0 {
		opts = append(opts, godal.CreationOption(s.CreationOptions...))
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, img.Width, img.Height, opts...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", raster.ErrRasterWrite, path, err)
	}

	if err := s.fill(ds, img); err != nil {
		ds.Close()
		return fmt.Errorf("%w: %s: %v", raster.ErrRasterWrite, path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("%w: %s: close: %v", raster.ErrRasterWrite, path, err)
	}
	return nil
}

func (s *Store) fill(ds *godal.Dataset, img *raster.Float32Image) error {
	if err := ds.SetGeoTransform(img.GeoTransform); err != nil {
		return fmt.Errorf("geotransform: %w", err)
	}
	if img.Projection != "" {
		sr, err := godal.NewSpatialRefFromWKT(img.Projection)
		if err != nil {
			return fmt.Errorf("projection: %w", err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return fmt.Errorf("projection: %w", err)
		}
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		return fmt.Errorf("nodata: %w", err)
	}
	return band.Write(0, 0, img.Pix, img.Width, img.Height)
}

// canonicalWKT re-exports wkt through OSR so that a projection read back
// from a GeoTIFF compares equal to the one that was written.
func canonicalWKT(wkt string) (string, error) {
	if wkt == "" {
		return "", nil
	}
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return "", err
	}
	defer sr.Close()
	return sr.WKT()
}

var _ raster.Store = (*Store)(nil)
