package grid

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ErrTypeInvariantViolation is the type of errors that reveal an
	// inconsistency between primary and affected cells.
	ErrTypeInvariantViolation = "invariant_violation"

	// ErrTypeOutOfRange is the type of errors returned when a mutation
	// addresses cells outside of the grid.
	ErrTypeOutOfRange = "out_of_range"

	// ErrTypeNotReady is the type of errors returned when mutating a grid
	// that is still under construction.
	ErrTypeNotReady = "grid_not_ready"
)

// Placement describes an object committed into a primary cell.
type Placement struct {
	Object      Object
	Footprint   geom.Vec3i
	Orientation mgl64.Quat
	Offset      mgl64.Vec3
}

// Place makes the cell at coord primary for the given object and marks every
// other cell covered by the footprint as affected. Nothing is written when a
// covered cell is not empty.
func (g *Grid) Place(coord geom.Vec3i, p Placement) error {
	if !g.Ready() {
		return errors.New("grid is not ready").WithType(ErrTypeNotReady)
	}

	if p.Object == nil {
		return errors.New("placing a nil object").
			WithType(ErrTypeInvariantViolation).
			WithTag("coord", coord)
	}

	footprint := geom.MaxVec3i(p.Footprint, geom.One)
	last := coord.Add(footprint).Sub(geom.One)
	if !g.Contains(coord) || !g.Contains(last) {
		return errors.New("footprint is out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("coord", coord).
			WithTag("footprint", footprint)
	}

	if existing, ok := g.CoordOf(p.Object); ok {
		return errors.New("object is already primary").
			WithType(ErrTypeInvariantViolation).
			WithTag("object_id", p.Object.ID()).
			WithTag("coord", coord).
			WithTag("existing_coord", existing)
	}

	var err error
	g.eachCovered(coord, footprint, func(c *Cell) bool {
		if !c.IsEmpty() {
			err = errors.New("footprint overlaps an occupied cell").
				WithType(ErrTypeInvariantViolation).
				WithTag("object_id", p.Object.ID()).
				WithTag("coord", coord).
				WithTag("footprint", footprint).
				WithTag("occupied_coord", c.Coord).
				WithTag("occupied_kind", c.Occupant.Kind.String())
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	g.eachCovered(coord, footprint, func(c *Cell) bool {
		c.Occupant = Occupant{
			Kind:         Affected,
			PrimaryCoord: coord,
		}
		return true
	})

	g.CellAt(coord).Occupant = Occupant{
		Kind:        Primary,
		Object:      p.Object,
		Footprint:   footprint,
		Orientation: p.Orientation,
		Offset:      p.Offset,
	}
	return nil
}

// Vacate empties the primary cell at coord and every cell it affects. It
// returns the removed placement.
func (g *Grid) Vacate(coord geom.Vec3i) (Placement, error) {
	primary := g.CellAt(coord)
	if primary == nil {
		return Placement{}, errors.New("vacating a cell that does not exist").
			WithType(ErrTypeOutOfRange).
			WithTag("coord", coord)
	}

	if primary.Occupant.Kind != Primary {
		return Placement{}, errors.New("vacating a cell that is not primary").
			WithType(ErrTypeInvariantViolation).
			WithTag("coord", coord).
			WithTag("kind", primary.Occupant.Kind.String())
	}

	footprint := primary.Occupant.Footprint

	var err error
	g.eachCovered(coord, footprint, func(c *Cell) bool {
		if c.Coord == coord {
			return true
		}
		if c.Occupant.Kind != Affected || c.Occupant.PrimaryCoord != coord {
			err = errors.New("affected cell does not point back to its primary").
				WithType(ErrTypeInvariantViolation).
				WithTag("coord", coord).
				WithTag("footprint", footprint).
				WithTag("affected_coord", c.Coord).
				WithTag("affected_kind", c.Occupant.Kind.String()).
				WithTag("affected_primary", c.Occupant.PrimaryCoord)
			return false
		}
		return true
	})
	if err != nil {
		return Placement{}, err
	}

	p := Placement{
		Object:      primary.Occupant.Object,
		Footprint:   footprint,
		Orientation: primary.Occupant.Orientation,
		Offset:      primary.Occupant.Offset,
	}

	g.eachCovered(coord, footprint, func(c *Cell) bool {
		c.Occupant = Occupant{}
		return true
	})
	return p, nil
}

// Reserve fills an empty cell without an object.
func (g *Grid) Reserve(coord geom.Vec3i) error {
	c := g.CellAt(coord)
	if c == nil {
		return errors.New("reserving a cell that does not exist").
			WithType(ErrTypeOutOfRange).
			WithTag("coord", coord)
	}

	if !c.IsEmpty() {
		return errors.New("reserving a cell that is not empty").
			WithType(ErrTypeInvariantViolation).
			WithTag("coord", coord).
			WithTag("kind", c.Occupant.Kind.String())
	}

	c.Occupant = Occupant{Kind: Reserved}
	return nil
}

// Reset empties every constructed cell.
func (g *Grid) Reset() {
	for i := 0; i < g.built; i++ {
		g.cells[i].Occupant = Occupant{}
	}
}

// Covered returns the cells covered by a footprint starting at coord. Cells
// that do not exist are skipped.
func (g *Grid) Covered(coord, footprint geom.Vec3i) []*Cell {
	cells := make([]*Cell, 0, footprint.Volume())
	g.eachCovered(coord, footprint, func(c *Cell) bool {
		cells = append(cells, c)
		return true
	})
	return cells
}

func (g *Grid) eachCovered(coord, footprint geom.Vec3i, f func(*Cell) bool) {
	for x := coord.X(); x < coord.X()+footprint.X(); x++ {
		for y := coord.Y(); y < coord.Y()+footprint.Y(); y++ {
			for z := coord.Z(); z < coord.Z()+footprint.Z(); z++ {
				c := g.CellAt(geom.Vec3i{x, y, z})
				if c == nil {
					continue
				}
				if !f(c) {
					return
				}
			}
		}
	}
}
