package metadata

// parser.go - MTL text parsing and metadata file discovery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
)

const (
	// MetadataSuffix identifies the MTL file inside a scene directory.
	MetadataSuffix = "MTL.txt"

	// Separator between parameter and value on an MTL line.
	Separator = " = "

	maxLineBytes = 1024 * 1024
)

// group delimiters are structure, not parameters
var groupMarkers = map[string]bool{
	"GROUP":     true,
	"END_GROUP": true,
	"END":       true,
}

// =============================================================================
// Discovery
// =============================================================================

// FindFile returns the MTL file in dir. When several match, the first in
// lexical order wins and the rest are logged.
func FindFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMetadataNotFound, dir, err)
	}

	var matches []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), MetadataSuffix) {
			matches = append(matches, e.Name())
		}
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no *%s in %s", ErrMetadataNotFound, MetadataSuffix, dir)
	}

	sort.Strings(matches)
	if len(matches) > 1 {
		monitoring.Logf("[metadata] %d metadata files in %s, using %s", len(matches), dir, matches[0])
	}
	return filepath.Join(dir, matches[0]), nil
}

// Load finds and parses the scene metadata in dir.
func Load(dir string) (*Scene, error) {
	path, err := FindFile(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile parses a specific MTL file.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataNotFound, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// =============================================================================
// Parsing
// =============================================================================

// Parse reads `PARAMETER = VALUE` lines. Group delimiter rows are dropped;
// any other line without the separator is an error. A repeated parameter
// keeps its first value.
func Parse(r io.Reader, source string) (*Scene, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	values := make(map[string]Value)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, raw, found := strings.Cut(line, Separator)
		key = strings.TrimSpace(key)

		if groupMarkers[key] {
			continue
		}
		if !found {
			return nil, fmt.Errorf("%w: %s:%d: missing %q in %q", ErrMetadataParse, source, lineNo, Separator, line)
		}
		if key == "" {
			return nil, fmt.Errorf("%w: %s:%d: empty parameter name", ErrMetadataParse, source, lineNo)
		}
		// Collection 2 files repeat keys across groups; the first one wins.
		if _, dup := values[key]; dup {
			monitoring.Debugf("[metadata] %s:%d: repeated parameter %s ignored", filepath.Base(source), lineNo, key)
			continue
		}

		values[key] = ParseValue(raw)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataParse, source, err)
	}

	monitoring.Debugf("[metadata] %s: %d parameters", filepath.Base(source), len(values))
	return &Scene{source: source, values: values}, nil
}

// ParseValue strips surrounding quotes and types the raw value.
func ParseValue(raw string) Value {
	cleaned := strings.Trim(strings.TrimSpace(raw), `"`)

	if f, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
		return Value{kind: Number, num: f, text: cleaned}
	}
	return Value{kind: Text, text: cleaned}
}
