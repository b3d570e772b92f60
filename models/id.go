package models

import (
	"slices"
	"sync"
)

// SequentialIDGenerator hands out increasing ids, starting at 1. Released ids
// are handed out again, smallest first, before new ones are created.
type SequentialIDGenerator struct {
	mutex    sync.Mutex
	lastID   uint32
	released []uint32
}

// New returns an id that is not in use.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.released) != 0 {
		id := g.released[0]
		g.released = g.released[1:]
		return id
	}

	g.lastID++
	return g.lastID
}

// Reuse releases an id so that it can be returned by New.
func (g *SequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if id == 0 || id > g.lastID {
		return
	}

	i, found := slices.BinarySearch(g.released, id)
	if found {
		return
	}
	g.released = slices.Insert(g.released, i, id)
}

// Reset releases every id.
func (g *SequentialIDGenerator) Reset() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.lastID = 0
	g.released = nil
}
