// Package raster holds single-band image grids and the storage interface
// calibration reads from and writes to.
package raster

import (
	"errors"
	"fmt"
)

var (
	ErrRasterRead  = errors.New("raster read failed")
	ErrRasterWrite = errors.New("raster write failed")
)

// SpatialRef is the georeferencing of a grid. Outputs copy it unchanged
// from the raw band they were computed from.
type SpatialRef struct {
	GeoTransform [6]float64
	Projection   string
	Width        int
	Height       int
}

// Len is the pixel count.
func (r SpatialRef) Len() int {
	return r.Width * r.Height
}

// Validate checks that the dimensions are usable.
func (r SpatialRef) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", r.Width, r.Height)
	}
	return nil
}

// Image is a raw band as float64, row-major.
type Image struct {
	SpatialRef
	Pix []float64
}

// NewImage allocates a zeroed image.
func NewImage(ref SpatialRef) *Image {
	return &Image{SpatialRef: ref, Pix: make([]float64, ref.Len())}
}

// Check verifies Pix matches the declared dimensions.
func (m *Image) Check() error {
	if err := m.Validate(); err != nil {
		return err
	}
	if len(m.Pix) != m.Len() {
		return fmt.Errorf("raster has %d pixels, want %dx%d", len(m.Pix), m.Width, m.Height)
	}
	return nil
}

// Float32Image is a calibrated product grid, row-major.
type Float32Image struct {
	SpatialRef
	Pix []float32
}

// NewFloat32Image allocates a zeroed product image.
func NewFloat32Image(ref SpatialRef) *Float32Image {
	return &Float32Image{SpatialRef: ref, Pix: make([]float32, ref.Len())}
}

// Store reads raw bands and writes single-band float32 products.
type Store interface {
	Read(path string) (*Image, error)
	Write(path string, img *Float32Image) error
}
