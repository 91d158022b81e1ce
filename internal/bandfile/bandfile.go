// Package bandfile maps Landsat band GeoTIFF file names to band numbers.
//
// Each sensor generation names its band files differently, so band
// derivation is keyed by a naming Scheme rather than a single pattern.
package bandfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Scheme identifies a band file naming convention.
type Scheme int

const (
	SchemeTM  Scheme = iota // Landsat 5: ..._B1.TIF
	SchemeETM               // Landsat 7: ..._B10.TIF, ..._B61.TIF
	SchemeOLI               // Landsat 8: ..._B1.TIF, ..._B10.TIF
)

func (s Scheme) String() string {
	switch s {
	case SchemeTM:
		return "TM"
	case SchemeETM:
		return "ETM+"
	case SchemeOLI:
		return "OLI/TIRS"
	default:
		return "Scheme(" + strconv.Itoa(int(s)) + ")"
	}
}

// Extension is the band file extension, matched case-insensitively.
const Extension = ".TIF"

var ErrBandFileNotFound = errors.New("band file not found")

// BandFromName derives the band a file holds. Files that do not follow the
// scheme (including calibration outputs such as B4_Refl.TIF) report ok=false.
func BandFromName(scheme Scheme, filename string) (band string, ok bool) {
	base := filepath.Base(filename)
	if len(base) <= len(Extension) || !strings.EqualFold(base[len(base)-len(Extension):], Extension) {
		return "", false
	}
	stem := base[:len(base)-len(Extension)]

	switch scheme {
	case SchemeTM:
		d := lastDigit(stem)
		if d >= '1' && d <= '7' {
			return string(d), true
		}
	case SchemeETM:
		if strings.HasSuffix(stem, "61") || strings.HasSuffix(stem, "62") {
			return stem[len(stem)-2:], true
		}
		if len(stem) >= 2 && stem[len(stem)-1] == '0' {
			d := stem[len(stem)-2]
			if d >= '1' && d <= '8' {
				return string(d), true
			}
		}
	case SchemeOLI:
		if strings.HasSuffix(stem, "10") || strings.HasSuffix(stem, "11") {
			return stem[len(stem)-2:], true
		}
		d := lastDigit(stem)
		if d >= '1' && d <= '9' && !isDigit(charBefore(stem, 1)) {
			return string(d), true
		}
	}
	return "", false
}

// Locate returns the single file in dir holding band. No match or more than
// one match is ErrBandFileNotFound.
func Locate(dir string, scheme Scheme, band string) (string, error) {
	files, err := bandFiles(dir, scheme)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, f := range files {
		if f.band == band {
			matches = append(matches, f.name)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: band %s (%s) in %s", ErrBandFileNotFound, band, scheme, dir)
	case 1:
		return filepath.Join(dir, matches[0]), nil
	default:
		return "", fmt.Errorf("%w: band %s is ambiguous in %s: %s",
			ErrBandFileNotFound, band, dir, strings.Join(matches, ", "))
	}
}

// Discover lists the bands present in dir, unique, in numeric order.
func Discover(dir string, scheme Scheme) ([]string, error) {
	files, err := bandFiles(dir, scheme)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var bands []string
	for _, f := range files {
		if !seen[f.band] {
			seen[f.band] = true
			bands = append(bands, f.band)
		}
	}
	SortBands(bands)
	return bands, nil
}

// SortBands orders band labels numerically ("2" < "10" < "61").
func SortBands(bands []string) {
	sort.Slice(bands, func(i, j int) bool {
		a, errA := strconv.Atoi(bands[i])
		b, errB := strconv.Atoi(bands[j])
		if errA != nil || errB != nil {
			return bands[i] < bands[j]
		}
		return a < b
	})
}

type bandFile struct {
	name string
	band string
}

func bandFiles(dir string, scheme Scheme) ([]bandFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBandFileNotFound, err)
	}

	var out []bandFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if band, ok := BandFromName(scheme, e.Name()); ok {
			out = append(out, bandFile{name: e.Name(), band: band})
		}
	}
	return out, nil
}

func lastDigit(s string) byte {
	c := charBefore(s, 0)
	if isDigit(c) {
		return c
	}
	return 0
}

// charBefore returns the byte n positions before the last one, or 0.
func charBefore(s string, n int) byte {
	i := len(s) - 1 - n
	if i < 0 {
		return 0
	}
	return s[i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
