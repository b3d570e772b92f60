package grid

import (
	"github.com/aukilabs/buildstation/geom"
)

// Indexer keeps the SpaceAhead, ConnectedAfter and ConnectedBefore fields of
// a grid consistent with its occupancy.
//
// A pass walks every cell once and is split into chunks so that it can be
// spread over several ticks. The position of the pass is kept as a plain
// cursor.
type Indexer struct {
	grid      *Grid
	chunkSize int

	running bool
	dirty   bool
	cursor  int

	passes     uint64
	passChunks int

	// Called when a pass completes with the number of Step calls it took.
	OnPassDone func(chunks int)
}

// NewIndexer creates an indexer for the given grid. A chunk size of 0
// processes the whole grid in a single step.
func NewIndexer(g *Grid, chunkSize int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = g.Len()
	}

	return &Indexer{
		grid:      g,
		chunkSize: chunkSize,
	}
}

// Trigger requests a pass. A trigger received while a pass is running is
// deferred until that pass completes.
func (idx *Indexer) Trigger() {
	if idx.running {
		idx.dirty = true
		return
	}
	idx.start()
}

// Running reports whether a pass is in flight.
func (idx *Indexer) Running() bool {
	return idx.running
}

// Passes returns the number of completed passes.
func (idx *Indexer) Passes() uint64 {
	return idx.passes
}

// Step processes the next chunk of the pass in flight. It reports whether the
// indexer is idle afterwards.
func (idx *Indexer) Step() bool {
	if !idx.running {
		return true
	}

	if !idx.grid.Ready() {
		return false
	}

	idx.passChunks++
	end := min(idx.cursor+idx.chunkSize, idx.grid.Len())
	for ; idx.cursor < end; idx.cursor++ {
		idx.update(idx.cursor)
	}

	if idx.cursor < idx.grid.Len() {
		return false
	}

	idx.running = false
	idx.passes++
	if idx.OnPassDone != nil {
		idx.OnPassDone(idx.passChunks)
	}

	if idx.dirty {
		idx.dirty = false
		idx.start()
		return false
	}
	return true
}

// Run triggers a pass and completes it, along with any pass it defers.
func (idx *Indexer) Run() {
	idx.Trigger()
	for !idx.Step() {
	}
}

func (idx *Indexer) start() {
	idx.running = true
	idx.cursor = 0
	idx.passChunks = 0
}

// update derives the fields of the i-th cell in descending coordinate order
// from its forward neighbors, and the ConnectedBefore field of its mirrored
// cell in ascending order from its backward neighbors. Both orders only read
// neighbors processed earlier in the pass.
func (idx *Indexer) update(i int) {
	g := idx.grid
	last := g.Len() - 1

	forward := g.coordAt(last - i)
	idx.updateForward(g.CellAt(forward))

	backward := g.coordAt(i)
	idx.updateBackward(g.CellAt(backward))
}

func (idx *Indexer) updateForward(c *Cell) {
	if !c.IsEmpty() {
		c.SpaceAhead = geom.Vec3i{-1, -1, -1}
		c.ConnectedAfter = geom.Vec3i{}
		return
	}

	var neighbors [3]*Cell
	allEmpty := true
	for axis := range neighbors {
		next := c.Coord
		next[axis]++
		neighbors[axis] = idx.grid.CellAt(next)
		allEmpty = allEmpty && isEmpty(neighbors[axis])
	}

	for axis, nb := range neighbors {
		if nb == nil {
			c.SpaceAhead[axis] = 0
		} else {
			c.SpaceAhead[axis] = nb.SpaceAhead[axis] + 1
		}

		switch {
		case !allEmpty:
			c.ConnectedAfter[axis] = 0
		case nb == nil || nb.ConnectedAfter[axis] == -1:
			c.ConnectedAfter[axis] = -1
		default:
			c.ConnectedAfter[axis] = nb.ConnectedAfter[axis] + 1
		}
	}
}

func (idx *Indexer) updateBackward(c *Cell) {
	var neighbors [3]*Cell
	allEmpty := c.IsEmpty()
	for axis := range neighbors {
		prev := c.Coord
		prev[axis]--
		neighbors[axis] = idx.grid.CellAt(prev)
		allEmpty = allEmpty && isEmpty(neighbors[axis])
	}

	for axis, nb := range neighbors {
		switch {
		case !allEmpty:
			c.ConnectedBefore[axis] = 0
		case nb == nil || nb.ConnectedBefore[axis] == -1:
			c.ConnectedBefore[axis] = -1
		default:
			c.ConnectedBefore[axis] = nb.ConnectedBefore[axis] + 1
		}
	}
}
