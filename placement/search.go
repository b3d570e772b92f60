package placement

import (
	"sort"

	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// Query is the result of a best cell search.
type Query struct {
	// Whether a cell was found. The other fields describe the object even
	// when no cell is found.
	Found bool

	Coord     geom.Vec3i
	Footprint geom.Vec3i

	// Orientation of the object relative to the grid.
	Orientation mgl64.Quat

	// Offset from the cell anchor to the object position, in grid space.
	Offset mgl64.Vec3

	// Pose of the object once placed at Coord.
	WorldPosition    mgl64.Vec3
	WorldOrientation mgl64.Quat

	// The number of cells in range where the footprint fits.
	Candidates int
}

// Placement returns the grid placement of the object.
func (q Query) Placement(obj Object) grid.Placement {
	return grid.Placement{
		Object:      obj,
		Footprint:   q.Footprint,
		Orientation: q.Orientation,
		Offset:      q.Offset,
	}
}

type candidate struct {
	coord    geom.Vec3i
	distance float64
}

// FindBestCell looks for the nearest cell where the object of the given
// overlap can be placed. It does not change the engine state.
func (e *Engine) FindBestCell(o Overlap) (Query, error) {
	s, err := describe(o)
	if err != nil {
		return Query{}, err
	}

	if !e.Ready() {
		return e.measure(s), nil
	}
	return e.findBestCell(s), nil
}

// measure computes the footprint and the offset of an object.
func (e *Engine) measure(s subject) Query {
	cellSize := e.grid.CellSize()

	size := geom.Abs(s.orientation.Rotate(s.bounds.Size))
	footprint := geom.MaxVec3i(
		geom.RoundAround(geom.DivElem(size, cellSize), e.tolerance),
		geom.One,
	)

	offset := geom.MulElem(footprint.Vec3(), cellSize).Mul(0.5).
		Add(s.orientation.Rotate(s.offset.Sub(s.bounds.Center)))

	return Query{
		Footprint:   footprint,
		Orientation: s.orientation,
		Offset:      offset,
	}
}

func (e *Engine) findBestCell(s subject) Query {
	g := e.grid
	q := e.measure(s)

	// Position of the object near corner, in grid space.
	local := g.ToLocal(s.Position).Sub(q.Offset)
	target := g.ToWorld(local)

	inCells := geom.DivElem(local, g.CellSize())
	distance := float64(e.maxBlockDistance)
	reach := mgl64.Vec3{distance, distance, distance}
	start := geom.MaxVec3i(geom.Floor(inCells.Sub(reach)), geom.Vec3i{})
	end := geom.MinVec3i(geom.Ceil(inCells.Add(reach)), g.Extent().Sub(geom.One))

	var candidates []candidate
	for x := start.X(); x <= end.X(); x++ {
		for y := start.Y(); y <= end.Y(); y++ {
			for z := start.Z(); z <= end.Z(); z++ {
				c := g.CellAt(geom.Vec3i{x, y, z})
				if c == nil || !c.IsEmpty() || !e.fits(c.Coord, q.Footprint) {
					continue
				}

				candidates = append(candidates, candidate{
					coord:    c.Coord,
					distance: c.Anchor.Sub(target).Len(),
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	q.Candidates = len(candidates)

	for _, c := range candidates {
		if !g.Connected(c.coord, q.Footprint) {
			continue
		}

		q.Found = true
		q.Coord = c.coord
		q.WorldPosition = g.CellAt(c.coord).Anchor.Add(g.Rotation().Rotate(q.Offset))
		q.WorldOrientation = g.Rotation().Mul(q.Orientation)
		return q
	}

	return q
}

func (e *Engine) fits(coord, footprint geom.Vec3i) bool {
	fits := e.grid.Fits(coord, footprint)
	if !e.fullVolumeCheck {
		return fits
	}

	volume := e.grid.FitsVolume(coord, footprint)
	if fits != volume {
		instrumentInvariantViolation(e.name)
		logs.WithTag("engine", e.name).Error(errors.New("diagonal fit check disagrees with the full volume check").
			WithType(grid.ErrTypeInvariantViolation).
			WithTag("coord", coord).
			WithTag("footprint", footprint).
			WithTag("diagonal", fits).
			WithTag("volume", volume))
	}
	return fits && volume
}
