package orientation

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/placement"
	"github.com/go-gl/mathgl/mgl64"
)

// Sizes is the list of scales a resizable object can take. Objects embedding
// it are measured with their current scale once placed.
type Sizes struct {
	category string
	scales   []mgl64.Vec3
	index    int
	memory   *Memory
}

var _ placement.Scaled = (*Sizes)(nil)

// NewSizes creates a size list. The size index is restored from the memory
// when the memory has one for the category.
func NewSizes(category string, scales []mgl64.Vec3, m *Memory) *Sizes {
	if m == nil {
		m = &Memory{}
	}
	if len(scales) == 0 {
		scales = []mgl64.Vec3{{1, 1, 1}}
	}

	s := &Sizes{
		category: category,
		scales:   scales,
		memory:   m,
	}

	if index := m.Size(category); index != -1 {
		s.Set(index)
	}
	return s
}

func (s *Sizes) Index() int {
	return s.index
}

// Scale returns the current scale.
func (s *Sizes) Scale() mgl64.Vec3 {
	return s.scales[s.index]
}

// Apply scales an object size with the current scale.
func (s *Sizes) Apply(size mgl64.Vec3) mgl64.Vec3 {
	return geom.MulElem(size, s.Scale())
}

// Next moves to a larger size index, stopping at the last one.
func (s *Sizes) Next(steps int) {
	s.index = min(max(s.index+steps, 0), len(s.scales)-1)
	s.memory.SetSize(s.category, s.index)
}

// Prev moves to a smaller size index, stopping at the first one.
func (s *Sizes) Prev(steps int) {
	s.Next(-steps)
}

// Set sets the size index, wrapping around.
func (s *Sizes) Set(index int) {
	s.index = wrap(index, len(s.scales))
}
