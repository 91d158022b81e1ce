// Package solar provides the sun-earth geometry used by reflectance
// calibration: day of year, Earth–Sun distance and solar zenith.
package solar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// DaysInTable is the number of rows in a distance table (leap-year length).
const DaysInTable = 366

var (
	ErrInvalidDate   = errors.New("invalid acquisition date")
	ErrOutOfRange    = errors.New("day of year out of range")
	ErrDistanceTable = errors.New("invalid distance table")
)

// DateLayout is the MTL acquisition date format.
const DateLayout = "2006-01-02"

// DayOfYear converts a YYYY-MM-DD date to its ordinal day, 1..366.
func DayOfYear(date string) (int, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDate, date, err)
	}
	return julian.DayOfYearGregorian(t.Year(), int(t.Month()), t.Day()), nil
}

// Zenith converts solar elevation in degrees to solar zenith in radians.
func Zenith(elevationDegrees float64) float64 {
	return unit.AngleFromDeg(90 - elevationDegrees).Rad()
}
