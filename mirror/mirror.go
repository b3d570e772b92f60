// Package mirror replicates the placements of a grid into a scaled display
// grid.
package mirror

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/buildstation/placement"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// Duplicator creates and destroys the visual copies of placed objects.
type Duplicator interface {
	Duplicate(src placement.Object, scale mgl64.Vec3) placement.Object
	Destroy(placement.Object)
}

// Replica is the copy created by the default duplicator.
type Replica struct {
	Source placement.Object
	Scale  mgl64.Vec3
}

func (r *Replica) ID() string {
	return r.Source.ID() + "/replica"
}

type replicaDuplicator struct{}

func (replicaDuplicator) Duplicate(src placement.Object, scale mgl64.Vec3) placement.Object {
	return &Replica{
		Source: src,
		Scale:  scale,
	}
}

func (replicaDuplicator) Destroy(placement.Object) {}

// Options configures a replicator.
type Options struct {
	Name string

	// The grid being replicated.
	Parent *grid.Grid

	// The geometry of the display grid. Its extent is always the one of the
	// parent grid.
	Display grid.Config

	Duplicator Duplicator
	Renderer   placement.Renderer
}

// Replicator follows the commit and removal decisions of a placement engine
// into a display grid. It never searches cells by itself.
type Replicator struct {
	name       string
	grid       *grid.Grid
	scale      mgl64.Vec3
	duplicator Duplicator
	renderer   placement.Renderer
}

var _ placement.Follower = (*Replicator)(nil)

func New(o Options) *Replicator {
	o.Display.Extent = o.Parent.Extent()
	if o.Duplicator == nil {
		o.Duplicator = replicaDuplicator{}
	}

	g := grid.New(o.Display)
	return &Replicator{
		name:       o.Name,
		grid:       g,
		scale:      geom.DivElem(g.CellSize(), o.Parent.CellSize()),
		duplicator: o.Duplicator,
		renderer:   o.Renderer,
	}
}

func (r *Replicator) Grid() *grid.Grid {
	return r.grid
}

// Scale returns the ratio between the display and the parent cell sizes.
func (r *Replicator) Scale() mgl64.Vec3 {
	return r.scale
}

func (r *Replicator) Build() bool {
	return r.grid.Build()
}

func (r *Replicator) Ready() bool {
	return r.grid.Ready()
}

// Place commits a copy of the placed object at the same coordinate of the
// display grid.
func (r *Replicator) Place(coord geom.Vec3i, p grid.Placement) error {
	replica := r.duplicator.Duplicate(p.Object, r.scale)

	err := r.grid.Place(coord, grid.Placement{
		Object:      replica,
		Footprint:   p.Footprint,
		Orientation: p.Orientation,
		Offset:      geom.MulElem(p.Offset, r.scale),
	})
	if err != nil {
		r.duplicator.Destroy(replica)
		return err
	}

	primary := r.grid.CellAt(coord)
	if r.renderer != nil {
		r.renderer.SetObjectState(replica, placement.ObjectState{
			Visible:     true,
			Kinematic:   true,
			Position:    primary.Anchor.Add(r.grid.Rotation().Rotate(primary.Occupant.Offset)),
			Orientation: r.grid.Rotation().Mul(p.Orientation),
		})
	}

	logs.WithTag("mirror", r.name).
		WithTag("object_id", p.Object.ID()).
		WithTag("coord", coord).
		Debug("placement replicated")
	return nil
}

// Remove destroys the copy placed at coord.
func (r *Replicator) Remove(coord geom.Vec3i) error {
	p, err := r.grid.Vacate(coord)
	if err != nil {
		return err
	}

	r.duplicator.Destroy(p.Object)
	logs.WithTag("mirror", r.name).
		WithTag("coord", coord).
		Debug("replica removed")
	return nil
}

// Clear destroys every copy and empties the display grid.
func (r *Replicator) Clear() {
	for _, c := range r.grid.Primaries() {
		r.duplicator.Destroy(c.Occupant.Object)
	}
	r.grid.Reset()
}
