package calibrate

import (
	"context"
	"math"

	"github.com/pberezina/LandsatPreprocessing/internal/raster"
)

// ProductKind is the physical quantity of an output grid.
type ProductKind int

const (
	ProductRadiance ProductKind = iota
	ProductReflectance
	ProductTemperature
)

func (k ProductKind) String() string {
	switch k {
	case ProductRadiance:
		return "radiance"
	case ProductReflectance:
		return "reflectance"
	case ProductTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// suffix is the file name tag of the product.
func (k ProductKind) suffix() string {
	switch k {
	case ProductRadiance:
		return "Rad"
	case ProductReflectance:
		return "Refl"
	default:
		return "Temp"
	}
}

// OutputName is the file a product is written to: B4_Refl.TIF.
func OutputName(band string, kind ProductKind) string {
	return "B" + band + "_" + kind.suffix() + ".TIF"
}

// Product is one calibrated grid of a band.
type Product struct {
	Band  string
	Kind  ProductKind
	Image *raster.Float32Image
}

// Name returns the product's output file name.
func (p Product) Name() string {
	return OutputName(p.Band, p.Kind)
}

// =============================================================================
// Masked element-wise map
// =============================================================================

// NoDataValue is the fill value of a raw band, taken from its (0,0) pixel.
// This assumes the corner lies in the scene's border fill; a scene whose
// corner holds real data loses every pixel equal to that value.
func NoDataValue(raw *raster.Image) float64 {
	return raw.Pix[0]
}

// mapMasked evaluates fn for every pixel of raw and stores the result as
// float32. Pixels whose raw DN equals the no-data value become NaN.
func mapMasked(ctx context.Context, tiler *raster.Tiler, raw *raster.Image, fn func(i int, dn float64) float64) (*raster.Float32Image, error) {
	out := raster.NewFloat32Image(raw.SpatialRef)
	sentinel := NoDataValue(raw)
	nan := float32(math.NaN())

	err := tiler.Map(ctx, raw.SpatialRef, func(start, end int) {
		for i := start; i < end; i++ {
			dn := raw.Pix[i]
			if dn == sentinel {
				out.Pix[i] = nan
				continue
			}
			out.Pix[i] = float32(fn(i, dn))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
