package grid

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Config describes the geometry of a grid.
type Config struct {
	// The number of cells along each axis.
	Extent geom.Vec3i

	// The total physical size of the grid volume.
	Size mgl64.Vec3

	// The world position of the grid volume center.
	Center mgl64.Vec3

	// The world orientation of the grid volume.
	Rotation mgl64.Quat

	// The maximum number of cells constructed by a single call to Build. 0
	// builds the whole grid at once.
	ChunkSize int
}

// Grid is a dense 3D array of cells.
type Grid struct {
	extent   geom.Vec3i
	size     mgl64.Vec3
	cellSize mgl64.Vec3
	center   mgl64.Vec3
	rotation mgl64.Quat

	cells     []Cell
	built     int
	chunkSize int
}

// New allocates a grid. Cells are constructed by Build.
func New(c Config) *Grid {
	for i := range c.Extent {
		if c.Extent[i] <= 0 {
			c.Extent[i] = 1
		}
		if c.Size[i] <= 0 {
			c.Size[i] = float64(c.Extent[i])
		}
	}

	volume := c.Extent.Volume()
	if c.ChunkSize <= 0 {
		c.ChunkSize = volume
	}

	return &Grid{
		extent:    c.Extent,
		size:      c.Size,
		cellSize:  geom.DivElem(c.Size, c.Extent.Vec3()),
		center:    c.Center,
		rotation:  geom.NormalizedQuat(c.Rotation),
		cells:     make([]Cell, volume),
		chunkSize: c.ChunkSize,
	}
}

// Build constructs the next chunk of cells and reports whether the grid is
// complete.
func (g *Grid) Build() bool {
	end := min(g.built+g.chunkSize, len(g.cells))
	for i := g.built; i < end; i++ {
		coord := g.coordAt(i)
		g.cells[i] = Cell{
			Coord:  coord,
			Anchor: g.AnchorOf(coord),
			Reach:  g.extent.Sub(coord).Sub(geom.One),

			// A new cell sees an empty grid.
			SpaceAhead:      g.extent.Sub(coord).Sub(geom.One),
			ConnectedAfter:  geom.Vec3i{-1, -1, -1},
			ConnectedBefore: geom.Vec3i{-1, -1, -1},
		}
	}
	g.built = end
	return g.Ready()
}

// BuildAll constructs every remaining cell.
func (g *Grid) BuildAll() {
	for !g.Build() {
	}
}

// Ready reports whether every cell has been constructed.
func (g *Grid) Ready() bool {
	return g.built == len(g.cells)
}

// Progress returns the number of constructed cells.
func (g *Grid) Progress() int {
	return g.built
}

func (g *Grid) Len() int {
	return len(g.cells)
}

func (g *Grid) Extent() geom.Vec3i {
	return g.extent
}

func (g *Grid) Size() mgl64.Vec3 {
	return g.size
}

func (g *Grid) CellSize() mgl64.Vec3 {
	return g.cellSize
}

func (g *Grid) Center() mgl64.Vec3 {
	return g.center
}

func (g *Grid) Rotation() mgl64.Quat {
	return g.rotation
}

// Contains reports whether coord addresses a cell of the grid.
func (g *Grid) Contains(coord geom.Vec3i) bool {
	return coord.Inside(g.extent)
}

// CellAt returns the cell at the given coordinate. It returns nil when the
// coordinate is out of range or when the cell is not constructed yet.
func (g *Grid) CellAt(coord geom.Vec3i) *Cell {
	if !g.Contains(coord) {
		return nil
	}

	i := g.index(coord)
	if i >= g.built {
		return nil
	}
	return &g.cells[i]
}

// CoordOf returns the coordinate of the primary cell that holds the given
// object.
func (g *Grid) CoordOf(obj Object) (geom.Vec3i, bool) {
	for i := 0; i < g.built; i++ {
		if g.cells[i].Holds(obj) {
			return g.cells[i].Coord, true
		}
	}
	return geom.Vec3i{}, false
}

// Primaries returns the primary cells in coordinate order.
func (g *Grid) Primaries() []*Cell {
	var cells []*Cell
	for i := 0; i < g.built; i++ {
		if g.cells[i].Occupant.Kind == Primary {
			cells = append(cells, &g.cells[i])
		}
	}
	return cells
}

// AnchorOf returns the world position of the origin corner of the cell at
// coord.
func (g *Grid) AnchorOf(coord geom.Vec3i) mgl64.Vec3 {
	return g.ToWorld(geom.MulElem(coord.Vec3(), g.cellSize))
}

// ToLocal converts a world position into grid-local space, where the origin
// corner of the grid is (0, 0, 0).
func (g *Grid) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return g.rotation.Inverse().
		Rotate(world.Sub(g.center)).
		Add(g.size.Mul(0.5))
}

// ToWorld converts a grid-local position into world space.
func (g *Grid) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return g.center.Add(g.rotation.Rotate(local.Sub(g.size.Mul(0.5))))
}

func (g *Grid) index(coord geom.Vec3i) int {
	return (coord[0]*g.extent[1]+coord[1])*g.extent[2] + coord[2]
}

func (g *Grid) coordAt(i int) geom.Vec3i {
	z := i % g.extent[2]
	i /= g.extent[2]
	y := i % g.extent[1]
	x := i / g.extent[1]
	return geom.Vec3i{x, y, z}
}
