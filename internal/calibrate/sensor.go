// Package calibrate converts raw Landsat digital numbers into top-of-atmosphere
// radiance, reflectance and brightness temperature.
package calibrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pberezina/LandsatPreprocessing/internal/bandfile"
)

var ErrUnknownSensor = errors.New("unknown sensor")

// Sensor is the closed set of supported Landsat generations.
type Sensor int

const (
	SensorUnknown Sensor = iota
	Landsat5
	Landsat7
	Landsat8
)

func (s Sensor) String() string {
	switch s {
	case Landsat5:
		return "Landsat5"
	case Landsat7:
		return "Landsat7"
	case Landsat8:
		return "Landsat8"
	default:
		return "Unknown"
	}
}

// Scheme returns the band file naming convention of the sensor.
func (s Sensor) Scheme() bandfile.Scheme {
	switch s {
	case Landsat7:
		return bandfile.SchemeETM
	case Landsat8:
		return bandfile.SchemeOLI
	default:
		return bandfile.SchemeTM
	}
}

// IsThermal reports whether band is a thermal infrared band of the sensor.
func (s Sensor) IsThermal(band string) bool {
	switch s {
	case Landsat5:
		return band == "6"
	case Landsat7:
		return band == "61" || band == "62"
	case Landsat8:
		return band == "10" || band == "11"
	}
	return false
}

// ParseSensor accepts "5", "L7", "landsat8", "LANDSAT_8" and similar.
func ParseSensor(name string) (Sensor, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.NewReplacer("LANDSAT", "", "_", "", "-", "", " ", "").Replace(n)
	n = strings.TrimPrefix(n, "L")

	switch n {
	case "5":
		return Landsat5, nil
	case "7":
		return Landsat7, nil
	case "8":
		return Landsat8, nil
	}
	return SensorUnknown, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
}

// SensorFromSpacecraft maps an MTL SPACECRAFT_ID value to a Sensor.
func SensorFromSpacecraft(id string) (Sensor, error) {
	s, err := ParseSensor(id)
	if err != nil {
		return SensorUnknown, fmt.Errorf("%w: spacecraft %q", ErrUnknownSensor, id)
	}
	return s, nil
}
