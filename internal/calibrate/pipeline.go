package calibrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/pberezina/LandsatPreprocessing/internal/bandfile"
	"github.com/pberezina/LandsatPreprocessing/internal/esun"
	"github.com/pberezina/LandsatPreprocessing/internal/metadata"
	"github.com/pberezina/LandsatPreprocessing/internal/raster"
	"github.com/pberezina/LandsatPreprocessing/internal/solar"
)

var (
	ErrUnsupportedBand   = errors.New("band not supported by sensor")
	ErrWrongCoefficients = errors.New("coefficients do not match pipeline")
	ErrDegenerateGain    = errors.New("QCALMAX equals QCALMIN")
)

// Pipeline is the per-sensor calibration capability set.
type Pipeline interface {
	Sensor() Sensor
	LocateBand(dir, band string) (string, error)
	Coefficients(md *metadata.Scene, band string) (Coefficients, error)
	Transform(ctx context.Context, raw *raster.Image, c Coefficients) ([]Product, error)
}

// Options configure a pipeline. Zero values select the defaults.
type Options struct {
	Standard    esun.Standard        // Landsat 5/7 only; default esun.Default
	Distances   *solar.DistanceTable // Landsat 5/7 only; default embedded table
	TileWorkers int                  // default runtime.NumCPU()
}

// NewPipeline returns the pipeline for sensor.
func NewPipeline(sensor Sensor, opts Options) (Pipeline, error) {
	tiler := raster.NewTiler(opts.TileWorkers)

	switch sensor {
	case Landsat5, Landsat7:
		if opts.Standard == "" {
			opts.Standard = esun.Default
		}
		standard, err := esun.ParseStandard(string(opts.Standard))
		if err != nil {
			return nil, err
		}
		distances := opts.Distances
		if distances == nil {
			distances = solar.DefaultDistanceTable()
		}
		return &twoStagePipeline{sensor: sensor, standard: standard, distances: distances, tiler: tiler}, nil
	case Landsat8:
		return &oliPipeline{tiler: tiler}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownSensor, sensor)
}

// =============================================================================
// Landsat 5/7 - radiance then reflectance
// =============================================================================

type twoStagePipeline struct {
	sensor    Sensor
	standard  esun.Standard
	distances *solar.DistanceTable
	tiler     *raster.Tiler
}

func (p *twoStagePipeline) Sensor() Sensor { return p.sensor }

func (p *twoStagePipeline) LocateBand(dir, band string) (string, error) {
	return bandfile.Locate(dir, p.sensor.Scheme(), band)
}

func (p *twoStagePipeline) Coefficients(md *metadata.Scene, band string) (Coefficients, error) {
	gain, err := radianceGain(md, band)
	if err != nil {
		return nil, err
	}
	c := TwoStageCoefficients{Band: band, Radiance: gain}
	if p.sensor.IsThermal(band) {
		return c, nil
	}

	c.Solar, err = solarTerms(md, band, p.standard, p.distances)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *twoStagePipeline) Transform(ctx context.Context, raw *raster.Image, c Coefficients) ([]Product, error) {
	coeffs, ok := c.(TwoStageCoefficients)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %v", ErrWrongCoefficients, c, p.sensor)
	}
	if err := raw.Check(); err != nil {
		return nil, err
	}

	radiance, err := mapMasked(ctx, p.tiler, raw, func(_ int, dn float64) float64 {
		return Radiance(dn, coeffs.Radiance)
	})
	if err != nil {
		return nil, err
	}
	products := []Product{{Band: coeffs.Band, Kind: ProductRadiance, Image: radiance}}
	if coeffs.Solar == nil {
		return products, nil
	}

	// Second stage reads the float32 radiance grid, as if re-read from disk
	s := *coeffs.Solar
	reflectance, err := mapMasked(ctx, p.tiler, raw, func(i int, _ float64) float64 {
		return Reflectance(float64(radiance.Pix[i]), s.Distance, s.ESUN, s.Zenith)
	})
	if err != nil {
		return nil, err
	}
	return append(products, Product{Band: coeffs.Band, Kind: ProductReflectance, Image: reflectance}), nil
}

// =============================================================================
// Landsat 8 - single stage
// =============================================================================

type oliPipeline struct {
	tiler *raster.Tiler
}

func (p *oliPipeline) Sensor() Sensor { return Landsat8 }

func (p *oliPipeline) LocateBand(dir, band string) (string, error) {
	return bandfile.Locate(dir, bandfile.SchemeOLI, band)
}

func (p *oliPipeline) Coefficients(md *metadata.Scene, band string) (Coefficients, error) {
	if Landsat8.IsThermal(band) {
		return thermalCoefficients(md, band)
	}
	if len(band) == 1 && band[0] >= '1' && band[0] <= '9' {
		return reflectanceCoefficients(md, band)
	}
	return nil, fmt.Errorf("%w: %s on %v", ErrUnsupportedBand, band, Landsat8)
}

func (p *oliPipeline) Transform(ctx context.Context, raw *raster.Image, c Coefficients) ([]Product, error) {
	if err := raw.Check(); err != nil {
		return nil, err
	}

	switch coeffs := c.(type) {
	case ReflectanceCoefficients:
		img, err := mapMasked(ctx, p.tiler, raw, func(_ int, dn float64) float64 {
			return ToAReflectance(dn, coeffs.Mult, coeffs.Add, coeffs.SunElevation)
		})
		if err != nil {
			return nil, err
		}
		return []Product{{Band: coeffs.Band, Kind: ProductReflectance, Image: img}}, nil

	case ThermalCoefficients:
		img, err := mapMasked(ctx, p.tiler, raw, func(_ int, dn float64) float64 {
			return BrightnessTemperature(dn, coeffs.RadianceMult, coeffs.RadianceAdd, coeffs.K1, coeffs.K2)
		})
		if err != nil {
			return nil, err
		}
		return []Product{{Band: coeffs.Band, Kind: ProductTemperature, Image: img}}, nil
	}
	return nil, fmt.Errorf("%w: %T for %v", ErrWrongCoefficients, c, Landsat8)
}

var (
	_ Pipeline = (*twoStagePipeline)(nil)
	_ Pipeline = (*oliPipeline)(nil)
)
