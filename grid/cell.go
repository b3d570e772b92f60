package grid

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Kind describes what occupies a cell.
type Kind uint8

const (
	Empty Kind = iota

	// Reserved cells are filled without holding an object, like a ground
	// marker.
	Reserved

	// Primary cells hold a placed object and its footprint.
	Primary

	// Affected cells are covered by the footprint of a primary cell. They
	// only know the coordinate of that primary cell.
	Affected
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Reserved:
		return "reserved"
	case Primary:
		return "primary"
	case Affected:
		return "affected"
	default:
		return "unknown"
	}
}

// Symbol returns the character representing the kind in debug dumps.
func (k Kind) Symbol() byte {
	switch k {
	case Empty:
		return '.'
	case Reserved:
		return '#'
	case Primary:
		return 'P'
	case Affected:
		return '+'
	default:
		return '!'
	}
}

// Object is the opaque handle of an external object that can be held by a
// primary cell.
type Object interface {
	ID() string
}

// Occupant is the content of a cell.
type Occupant struct {
	Kind Kind

	Object      Object
	Footprint   geom.Vec3i
	Orientation mgl64.Quat
	Offset      mgl64.Vec3

	PrimaryCoord geom.Vec3i
}

// Cell is a single slot of a grid.
type Cell struct {
	Coord  geom.Vec3i
	Anchor mgl64.Vec3
	Reach  geom.Vec3i

	Occupant Occupant

	// Consecutive empty cells following this one along +x, +y and +z.
	// (-1, -1, -1) when the cell is occupied.
	SpaceAhead geom.Vec3i

	// Distance to the nearest cell with an occupied neighbor when scanning
	// forward and backward. -1 means the run reached the grid boundary.
	ConnectedAfter  geom.Vec3i
	ConnectedBefore geom.Vec3i
}

func (c *Cell) IsEmpty() bool {
	return c.Occupant.Kind == Empty
}

// Holds reports whether the cell is the primary cell of the given object.
func (c *Cell) Holds(obj Object) bool {
	return c.Occupant.Kind == Primary &&
		c.Occupant.Object != nil &&
		obj != nil &&
		c.Occupant.Object.ID() == obj.ID()
}

// isEmpty treats cells that do not exist as empty.
func isEmpty(c *Cell) bool {
	return c == nil || c.IsEmpty()
}
