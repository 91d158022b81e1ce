package calibrate

import (
	"fmt"

	"github.com/pberezina/LandsatPreprocessing/internal/esun"
	"github.com/pberezina/LandsatPreprocessing/internal/metadata"
	"github.com/pberezina/LandsatPreprocessing/internal/solar"
)

// Coefficients are the per-band constants a pipeline's Transform consumes.
type Coefficients interface {
	CoefficientBand() string
}

// SolarTerms are the scene geometry terms of Landsat 5/7 reflectance.
type SolarTerms struct {
	Distance float64 // Earth–Sun distance, AU
	ESUN     float64
	Zenith   float64 // radians
}

// TwoStageCoefficients drive the Landsat 5/7 radiance then reflectance
// stages. Solar is nil for thermal bands, which stop at radiance.
type TwoStageCoefficients struct {
	Band     string
	Radiance RadianceGain
	Solar    *SolarTerms
}

func (c TwoStageCoefficients) CoefficientBand() string { return c.Band }

// ReflectanceCoefficients drive Landsat 8 bands 1-9.
type ReflectanceCoefficients struct {
	Band         string
	Mult         float64
	Add          float64
	SunElevation float64 // degrees
}

func (c ReflectanceCoefficients) CoefficientBand() string { return c.Band }

// ThermalCoefficients drive Landsat 8 bands 10 and 11.
type ThermalCoefficients struct {
	Band         string
	RadianceMult float64
	RadianceAdd  float64
	K1           float64
	K2           float64
}

func (c ThermalCoefficients) CoefficientBand() string { return c.Band }

// =============================================================================
// Key conventions
// =============================================================================

// legacyKey names a Landsat 5/7 parameter: LMAX_BAND4.
func legacyKey(field, band string) string {
	return field + "_BAND" + band
}

// oliKey names a Landsat 8 parameter: REFLECTANCE_MULT_BAND_4.
func oliKey(field, band string) string {
	return field + "_BAND_" + band
}

// numbers resolves several numeric keys, failing on the first missing one.
func numbers(md *metadata.Scene, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, err := md.Number(k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// =============================================================================
// Derivation
// =============================================================================

func radianceGain(md *metadata.Scene, band string) (RadianceGain, error) {
	v, err := numbers(md,
		legacyKey("LMAX", band),
		legacyKey("LMIN", band),
		legacyKey("QCALMAX", band),
		legacyKey("QCALMIN", band),
	)
	if err != nil {
		return RadianceGain{}, err
	}
	g := RadianceGain{Lmax: v[0], Lmin: v[1], Qcalmax: v[2], Qcalmin: v[3]}
	if g.Qcalmax == g.Qcalmin {
		return RadianceGain{}, fmt.Errorf("%w: band %s (%g)", ErrDegenerateGain, band, g.Qcalmax)
	}
	return g, nil
}

func solarTerms(md *metadata.Scene, band string, standard esun.Standard, table *solar.DistanceTable) (*SolarTerms, error) {
	irradiance, err := esun.LookupBand(band, standard)
	if err != nil {
		return nil, err
	}

	date, err := md.AcquisitionDate()
	if err != nil {
		return nil, err
	}
	d, err := table.DistanceForDate(date)
	if err != nil {
		return nil, err
	}

	elevation, err := md.SunElevation()
	if err != nil {
		return nil, err
	}

	return &SolarTerms{
		Distance: d,
		ESUN:     irradiance,
		Zenith:   solar.Zenith(elevation),
	}, nil
}

func reflectanceCoefficients(md *metadata.Scene, band string) (ReflectanceCoefficients, error) {
	v, err := numbers(md,
		oliKey("REFLECTANCE_MULT", band),
		oliKey("REFLECTANCE_ADD", band),
		"SUN_ELEVATION",
	)
	if err != nil {
		return ReflectanceCoefficients{}, err
	}
	return ReflectanceCoefficients{Band: band, Mult: v[0], Add: v[1], SunElevation: v[2]}, nil
}

func thermalCoefficients(md *metadata.Scene, band string) (ThermalCoefficients, error) {
	v, err := numbers(md,
		oliKey("RADIANCE_MULT", band),
		oliKey("RADIANCE_ADD", band),
		oliKey("K1_CONSTANT", band),
		oliKey("K2_CONSTANT", band),
	)
	if err != nil {
		return ThermalCoefficients{}, err
	}
	return ThermalCoefficients{Band: band, RadianceMult: v[0], RadianceAdd: v[1], K1: v[2], K2: v[3]}, nil
}
