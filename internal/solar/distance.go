package solar

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	meeussolar "github.com/soniakeys/meeus/v3/solar"
)

// headerLines precede the day,distance rows in a reference file.
const headerLines = 2

//go:embed earth_sun_distance.csv
var defaultTable string

// DistanceTable maps day of year (1..366) to Earth–Sun distance in AU.
// Immutable after construction.
type DistanceTable struct {
	distances [DaysInTable]float64
}

// Distance returns the Earth–Sun distance for a day of year.
func (t *DistanceTable) Distance(dayOfYear int) (float64, error) {
	if dayOfYear < 1 || dayOfYear > DaysInTable {
		return 0, fmt.Errorf("%w: %d (want 1..%d)", ErrOutOfRange, dayOfYear, DaysInTable)
	}
	return t.distances[dayOfYear-1], nil
}

// DistanceForDate combines DayOfYear and Distance.
func (t *DistanceTable) DistanceForDate(date string) (float64, error) {
	doy, err := DayOfYear(date)
	if err != nil {
		return 0, err
	}
	return t.Distance(doy)
}

// DefaultDistanceTable parses the reference table compiled into the binary.
func DefaultDistanceTable() *DistanceTable {
	t, err := ParseDistanceTable(strings.NewReader(defaultTable))
	if err != nil {
		panic("solar: embedded distance table: " + err.Error())
	}
	return t
}

// LoadDistanceTable reads a reference file from disk. An empty path selects
// the embedded table.
func LoadDistanceTable(path string) (*DistanceTable, error) {
	if path == "" {
		return DefaultDistanceTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDistanceTable, err)
	}
	defer f.Close()
	return ParseDistanceTable(f)
}

// ParseDistanceTable reads two header lines followed by exactly 366
// `day,distance` rows. The day column must count 1..366 in order.
func ParseDistanceTable(r io.Reader) (*DistanceTable, error) {
	scanner := bufio.NewScanner(r)
	t := &DistanceTable{}

	lineNo := 0
	rows := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: want day,distance", ErrDistanceTable, lineNo)
		}
		if rows >= DaysInTable {
			return nil, fmt.Errorf("%w: more than %d rows", ErrDistanceTable, DaysInTable)
		}

		day, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || day != rows+1 {
			return nil, fmt.Errorf("%w: line %d: day %q out of sequence", ErrDistanceTable, lineNo, fields[0])
		}
		dist, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDistanceTable, lineNo, err)
		}

		t.distances[rows] = dist
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDistanceTable, err)
	}
	if rows != DaysInTable {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrDistanceTable, rows, DaysInTable)
	}
	return t, nil
}

// ComputeDistanceTable evaluates the Earth–Sun radius vector at noon UT of
// each day of year using the VSOP87-derived solar theory in meeus. For
// non-leap years day 366 is January 1 of the following year.
func ComputeDistanceTable(year int) *DistanceTable {
	t := &DistanceTable{}
	for doy := 1; doy <= DaysInTable; doy++ {
		jd := julian.CalendarGregorianToJD(year, 1, float64(doy)+0.5)
		t.distances[doy-1] = meeussolar.Radius(base.J2000Century(jd))
	}
	return t
}

// WriteTo writes the table in reference-file format.
func (t *DistanceTable) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	c, err := fmt.Fprintf(bw, "# Earth-Sun distance (astronomical units) by day of year\nday,distance\n")
	n += int64(c)
	if err != nil {
		return n, err
	}
	for i, d := range t.distances {
		c, err = fmt.Fprintf(bw, "%d,%.5f\n", i+1, d)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
