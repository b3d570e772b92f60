package models

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Placement is an object committed into a grid, as seen by the modules that
// observe a station.
type Placement struct {
	// Sequential id of the placement, reused once the object is removed.
	ID uint32 `json:"id"`

	ObjectID string `json:"object_id"`
	Category string `json:"category"`

	Coord     geom.Vec3i `json:"coord"`
	Footprint geom.Vec3i `json:"footprint"`

	// World pose of the placed object.
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Quat `json:"orientation"`

	// The simulation tick at which the placement was committed.
	Tick uint64 `json:"tick"`
}

// Cells returns the number of cells covered by the placement.
func (p Placement) Cells() int {
	return p.Footprint.Volume()
}
