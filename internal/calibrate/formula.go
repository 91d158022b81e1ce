package calibrate

import "math"

// KelvinOffset converts kelvin to degrees Celsius.
const KelvinOffset = 273.15

// RadianceGain holds the Landsat 5/7 DN rescaling bounds of one band.
type RadianceGain struct {
	Lmax    float64
	Lmin    float64
	Qcalmax float64
	Qcalmin float64
}

// Radiance rescales a DN linearly so that Qcalmin maps to Lmin and Qcalmax
// to Lmax.
func Radiance(dn float64, g RadianceGain) float64 {
	return (g.Lmax-g.Lmin)/(g.Qcalmax-g.Qcalmin)*(dn-g.Qcalmin) + g.Lmin
}

// Reflectance is top-of-atmosphere reflectance from radiance, Earth–Sun
// distance d (AU), ESUN and solar zenith (radians).
func Reflectance(radiance, d, esun, zenith float64) float64 {
	return math.Pi * d * d * radiance / (esun * math.Cos(zenith))
}

// ToAReflectance is the Landsat 8 reflectance rescaling. sunElevation is
// the MTL value in degrees and goes into the sine unconverted.
func ToAReflectance(dn, mult, add, sunElevation float64) float64 {
	return (mult*dn + add) / math.Sin(sunElevation)
}

// BrightnessTemperature is the Landsat 8 at-sensor temperature in °C.
func BrightnessTemperature(dn, radianceMult, radianceAdd, k1, k2 float64) float64 {
	return k2/math.Log(k1/(radianceMult*dn+radianceAdd)+1) - KelvinOffset
}
