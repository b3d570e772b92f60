package orientation

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/placement"
	"github.com/go-gl/mathgl/mgl64"
)

// Step is the angle, in degrees, between two generated rotations.
const Step = 90.0

// Permutations tells which axes can be rotated together.
type Permutations struct {
	XY  bool
	XZ  bool
	YZ  bool
	XYZ bool
}

// Config describes the rotations allowed for a category of objects. Angles
// are in degrees.
type Config struct {
	Category string

	// The visual centering offset of the objects.
	Offset mgl64.Vec3

	// Rotations are generated in Step increments from Min to Max on each
	// axis.
	Min          mgl64.Vec3
	Max          mgl64.Vec3
	Permutations Permutations

	// Rotations added after the generated ones.
	Predefined []mgl64.Vec3

	// The initial rotation index, used when the memory has none.
	Index int
}

// Rotations generates the allowed rotations of a config. The first one is
// always the identity.
func Rotations(c Config) []mgl64.Vec3 {
	var angles [3][]float64
	for axis := range angles {
		angles[axis] = []float64{0}
		for a := c.Min[axis]; a <= c.Max[axis]; a += Step {
			if a != 0 {
				angles[axis] = append(angles[axis], a)
			}
		}
	}

	p := c.Permutations
	var rotations []mgl64.Vec3
	for x, ax := range angles[0] {
		for y, ay := range angles[1] {
			for z, az := range angles[2] {
				if !(p.XY || x == 0 || y == 0) ||
					!(p.XZ || x == 0 || z == 0) ||
					!(p.YZ || y == 0 || z == 0) ||
					!(p.XYZ || x == 0 || y == 0 || z == 0) {
					continue
				}
				rotations = append(rotations, mgl64.Vec3{ax, ay, az})
			}
		}
	}

	return append(rotations, c.Predefined...)
}

// Identity tells how an object of a category is rotated and centered once
// placed. It implements placement.Oriented.
type Identity struct {
	category  string
	offset    mgl64.Vec3
	rotations []mgl64.Vec3
	index     int
	memory    *Memory
}

var _ placement.Oriented = (*Identity)(nil)

// NewIdentity creates an identity. Its rotation index is restored from the
// memory when the memory has one for the category.
func NewIdentity(c Config, m *Memory) *Identity {
	if m == nil {
		m = &Memory{}
	}

	i := &Identity{
		category:  c.Category,
		offset:    c.Offset,
		rotations: Rotations(c),
		index:     c.Index,
		memory:    m,
	}
	i.Restore()
	return i
}

func (i *Identity) Category() string {
	return i.category
}

func (i *Identity) VisualOffset() mgl64.Vec3 {
	return i.offset
}

// PreferredOrientation returns the current rotation, applied around z, then
// x, then y.
func (i *Identity) PreferredOrientation() mgl64.Quat {
	return geom.Euler(i.Euler())
}

// Euler returns the current rotation angles in degrees.
func (i *Identity) Euler() mgl64.Vec3 {
	if !i.CanRotate() {
		return mgl64.Vec3{}
	}
	return i.rotations[i.index]
}

func (i *Identity) Rotations() []mgl64.Vec3 {
	return i.rotations
}

func (i *Identity) Index() int {
	return i.index
}

// CanRotate reports whether the identity has more than the identity
// rotation.
func (i *Identity) CanRotate() bool {
	return len(i.rotations) > 1
}

// Rotate moves the rotation index by the given number of steps, wrapping
// around, and remembers it for the category.
func (i *Identity) Rotate(steps int) {
	if !i.CanRotate() {
		return
	}
	i.SetIndex(i.index + steps)
}

// SetIndex sets the rotation index, wrapping around, and remembers it for
// the category.
func (i *Identity) SetIndex(index int) {
	if !i.CanRotate() {
		return
	}

	i.index = wrap(index, len(i.rotations))
	i.memory.SetRotation(i.category, i.index)
}

// Restore sets the rotation index to the one remembered for the category.
func (i *Identity) Restore() {
	i.index = wrap(i.index, len(i.rotations))

	if index := i.memory.Rotation(i.category); index != -1 {
		i.index = wrap(index, len(i.rotations))
	}
}

// Save remembers the current rotation index for the category.
func (i *Identity) Save() {
	i.memory.SetRotation(i.category, i.index)
}

// CopyFrom takes the rotation index of another identity.
func (i *Identity) CopyFrom(other *Identity) {
	if other == nil {
		return
	}
	i.SetIndex(other.index)
}

func wrap(index, n int) int {
	if n == 0 {
		return 0
	}

	index %= n
	if index < 0 {
		index += n
	}
	return index
}
