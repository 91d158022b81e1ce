// Package metadata parses Landsat level-1 MTL scene metadata into a typed
// key/value table.
package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
)

var (
	ErrMetadataNotFound = errors.New("metadata file not found")
	ErrMetadataParse    = errors.New("metadata parse error")
	ErrMissingKey       = errors.New("missing metadata key")
	ErrNotNumber        = errors.New("metadata value is not a number")
)

// =============================================================================
// Value - Number | Text
// =============================================================================

// Kind tags a metadata value.
type Kind uint8

const (
	Text   Kind = iota // raw string after quote stripping
	Number             // parsed as float64
)

func (k Kind) String() string {
	if k == Number {
		return "number"
	}
	return "text"
}

// Value is a single MTL parameter value.
type Value struct {
	kind Kind
	num  float64
	text string
}

// NumberValue wraps a float64.
func NumberValue(f float64) Value {
	return Value{kind: Number, num: f, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// TextValue wraps a string.
func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// Kind returns the value tag.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether the raw text parsed as a number.
func (v Value) IsNumber() bool { return v.kind == Number }

// Float returns the numeric value and whether v is a Number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == Number
}

// String returns the cleaned text form. Numbers keep their source spelling.
func (v Value) String() string { return v.text }

// =============================================================================
// Scene
// =============================================================================

// Scene is the parsed metadata of one scene. It is immutable once built and
// safe for concurrent readers.
type Scene struct {
	source string
	values map[string]Value
}

// NewScene builds a Scene from an already-typed map (copied).
func NewScene(source string, values map[string]Value) *Scene {
	m := make(map[string]Value, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Scene{source: source, values: m}
}

// Source is the metadata file path (or a caller-supplied label).
func (s *Scene) Source() string { return s.source }

// Len is the number of parameters.
func (s *Scene) Len() int { return len(s.values) }

// Keys returns parameter names in sorted order.
func (s *Scene) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks a parameter up by exact name.
func (s *Scene) Get(key string) (Value, error) {
	v, ok := s.values[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

// Number returns a numeric parameter.
func (s *Scene) Number(key string) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("%w: %s = %q", ErrNotNumber, key, v.text)
	}
	return f, nil
}

// Text returns a parameter's cleaned string form.
func (s *Scene) Text(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return v.text, nil
}

// =============================================================================
// Well-known parameters
// =============================================================================

// AcquisitionDate returns the scene date (YYYY-MM-DD). Pre-collection MTL
// files call it ACQUISITION_DATE, collection files DATE_ACQUIRED.
func (s *Scene) AcquisitionDate() (string, error) {
	if d, err := s.Text("ACQUISITION_DATE"); err == nil {
		return d, nil
	}
	d, err := s.Text("DATE_ACQUIRED")
	if err != nil {
		return "", fmt.Errorf("%w: ACQUISITION_DATE or DATE_ACQUIRED", ErrMissingKey)
	}
	return d, nil
}

// SunElevation returns SUN_ELEVATION in degrees.
func (s *Scene) SunElevation() (float64, error) {
	return s.Number("SUN_ELEVATION")
}

// SpacecraftID returns SPACECRAFT_ID, e.g. "LANDSAT_8".
func (s *Scene) SpacecraftID() (string, error) {
	return s.Text("SPACECRAFT_ID")
}

// SceneID returns LANDSAT_SCENE_ID, falling back to the metadata file name
// without its _MTL.txt suffix.
func (s *Scene) SceneID() string {
	if id, err := s.Text("LANDSAT_SCENE_ID"); err == nil && id != "" {
		return id
	}
	base := filepath.Base(s.source)
	for _, suffix := range []string{"_MTL.txt", "MTL.txt"} {
		if len(base) > len(suffix) && base[len(base)-len(suffix):] == suffix {
			return base[:len(base)-len(suffix)]
		}
	}
	return base
}
