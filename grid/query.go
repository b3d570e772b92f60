package grid

import (
	"github.com/aukilabs/buildstation/geom"
)

var diagonal = geom.Vec3i{1, 0, 1}

// Fits reports whether a footprint starting at coord only covers empty cells.
//
// Only the horizontal diagonal of the footprint is walked. For each diagonal
// cell, the column above it must have enough space ahead along x and z to
// cover what remains of the footprint. Any covered cell (x+a, y+b, z+c) is
// reached from the diagonal cell min(a, c) by a single straight run, so the
// walk covers the whole volume.
func (g *Grid) Fits(coord, footprint geom.Vec3i) bool {
	remaining := footprint.Sub(geom.One)

	for remaining.X() >= 0 && remaining.Z() >= 0 {
		base := g.CellAt(coord)
		if base == nil || remaining.Y() > base.SpaceAhead.Y() {
			return false
		}

		for y := coord.Y(); y <= coord.Y()+remaining.Y(); y++ {
			c := g.CellAt(geom.Vec3i{coord.X(), y, coord.Z()})
			if c == nil ||
				remaining.X() > c.SpaceAhead.X() ||
				remaining.Z() > c.SpaceAhead.Z() {
				return false
			}
		}

		remaining = remaining.Sub(diagonal)
		coord = coord.Add(diagonal)
	}

	return true
}

// FitsVolume reports whether a footprint starting at coord only covers empty
// cells by checking the occupancy of every covered cell.
func (g *Grid) FitsVolume(coord, footprint geom.Vec3i) bool {
	last := coord.Add(footprint).Sub(geom.One)
	if !g.Contains(coord) || !g.Contains(last) {
		return false
	}

	fits := true
	g.eachCovered(coord, footprint, func(c *Cell) bool {
		fits = c.IsEmpty()
		return fits
	})
	return fits
}

// Connected reports whether a footprint starting at coord would rest on the
// grid floor or share a face with an occupied cell.
//
// The connectivity distances are only sampled along the edges of the
// footprint: the bottom front and top back rows along x, then the bottom left
// and top right rows along z.
func (g *Grid) Connected(coord, footprint geom.Vec3i) bool {
	if coord.Y() == 0 {
		return true
	}

	last := coord.Add(footprint).Sub(geom.One)
	within := func(distance, span int) bool {
		return distance != -1 && distance < span
	}

	for x := coord.X(); x <= last.X(); x++ {
		after := g.CellAt(geom.Vec3i{x, coord.Y(), coord.Z()})
		before := g.CellAt(geom.Vec3i{x, last.Y(), last.Z()})
		if after == nil || before == nil {
			continue
		}

		if within(after.ConnectedAfter.Y(), footprint.Y()) ||
			within(after.ConnectedAfter.Z(), footprint.Z()) ||
			within(before.ConnectedBefore.Y(), footprint.Y()) ||
			within(before.ConnectedBefore.Z(), footprint.Z()) {
			return true
		}
	}

	for z := coord.Z() + 1; z <= last.Z(); z++ {
		after := g.CellAt(geom.Vec3i{coord.X(), coord.Y(), z})
		before := g.CellAt(geom.Vec3i{last.X(), last.Y(), z})
		if after == nil || before == nil {
			continue
		}

		if within(after.ConnectedAfter.Y(), footprint.Y()) ||
			within(before.ConnectedBefore.Y(), footprint.Y()) {
			return true
		}
	}

	return false
}
