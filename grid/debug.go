package grid

import (
	"strings"

	"github.com/aukilabs/buildstation/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// DebugInfo is a snapshot of a grid, meant to be served as JSON.
type DebugInfo struct {
	Extent    geom.Vec3i  `json:"extent"`
	Size      mgl64.Vec3  `json:"size"`
	CellSize  mgl64.Vec3  `json:"cell_size"`
	Built     int         `json:"built"`
	CellCount int         `json:"cell_count"`
	Primaries []DebugCell `json:"primaries"`

	// One symbol per cell, indexed like the grid storage. See Kind.Symbol.
	Occupancy string `json:"occupancy,omitempty"`
}

type DebugCell struct {
	Coord     geom.Vec3i `json:"coord"`
	ObjectID  string     `json:"object_id"`
	Footprint geom.Vec3i `json:"footprint"`
}

func (g *Grid) DebugInfo() DebugInfo {
	info := DebugInfo{
		Extent:    g.extent,
		Size:      g.size,
		CellSize:  g.cellSize,
		Built:     g.built,
		CellCount: len(g.cells),
	}

	var occupancy strings.Builder
	occupancy.Grow(len(g.cells))

	for i := 0; i < g.built; i++ {
		c := &g.cells[i]
		occupancy.WriteByte(c.Occupant.Kind.Symbol())

		if c.Occupant.Kind == Primary {
			info.Primaries = append(info.Primaries, DebugCell{
				Coord:     c.Coord,
				ObjectID:  c.Occupant.Object.ID(),
				Footprint: c.Occupant.Footprint,
			})
		}
	}

	for i := g.built; i < len(g.cells); i++ {
		occupancy.WriteByte('?')
	}

	info.Occupancy = occupancy.String()
	return info
}
