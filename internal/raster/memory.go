package raster

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store keyed by path. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	inputs  map[string]*Image
	outputs map[string]*Float32Image
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inputs:  make(map[string]*Image),
		outputs: make(map[string]*Float32Image),
	}
}

// Put registers a raw band at path.
func (s *MemoryStore) Put(path string, img *Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[path] = cloneImage(img)
}

// Read returns a copy of the raw band at path.
func (s *MemoryStore) Read(path string) (*Image, error) {
	s.mu.RLock()
	img, ok := s.inputs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such raster", ErrRasterRead, path)
	}
	return cloneImage(img), nil
}

// Write stores a copy of the product at path.
func (s *MemoryStore) Write(path string, img *Float32Image) error {
	if img == nil {
		return fmt.Errorf("%w: %s: nil image", ErrRasterWrite, path)
	}
	if len(img.Pix) != img.Len() {
		return fmt.Errorf("%w: %s: %d pixels for %dx%d", ErrRasterWrite, path, len(img.Pix), img.Width, img.Height)
	}

	out := &Float32Image{SpatialRef: img.SpatialRef, Pix: make([]float32, len(img.Pix))}
	copy(out.Pix, img.Pix)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[path] = out
	return nil
}

// Output returns a written product.
func (s *MemoryStore) Output(path string) (*Float32Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.outputs[path]
	return img, ok
}

// Outputs lists written product paths, sorted.
func (s *MemoryStore) Outputs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.outputs))
	for p := range s.outputs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func cloneImage(img *Image) *Image {
	out := &Image{SpatialRef: img.SpatialRef, Pix: make([]float64, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

var _ Store = (*MemoryStore)(nil)
