package placement

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/buildstation/models"
	"github.com/go-gl/mathgl/mgl64"
)

// Preview describes where the brush is shown.
type Preview struct {
	// The object the brush stands for. Its visual is used for the brush.
	Object Object

	Coord       geom.Vec3i
	Position    mgl64.Vec3
	Orientation mgl64.Quat

	// The world size of the object bounds.
	Size mgl64.Vec3
}

// ObjectState is what the renderer and the physics should apply to an
// object.
type ObjectState struct {
	Visible   bool
	Collide   bool
	Kinematic bool

	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Renderer is the rendering collaborator. The engine never manipulates
// rendering primitives directly.
type Renderer interface {
	ShowPreview(Preview)
	HidePreview()
	SetObjectState(Object, ObjectState)
}

// Physics is the physics collaborator.
type Physics interface {
	// Releases an object with the given impulse.
	Eject(obj Object, impulse mgl64.Vec3)

	// Enables or disables user interactions with an object.
	SetInteractable(obj Object, enabled bool)
}

// Follower receives the commit and removal decisions of an engine.
type Follower interface {
	// Constructs the next chunk of the follower and reports whether it is
	// complete.
	Build() bool

	Ready() bool
	Place(coord geom.Vec3i, p grid.Placement) error
	Remove(coord geom.Vec3i) error
	Clear()
}

// Listener observes placements without affecting them.
type Listener interface {
	HandlePlaced(models.Placement)
	HandleRemoved(models.Placement)
	HandleCleared()
}

// Listeners dispatches events to several listeners, in order.
type Listeners []Listener

func (l Listeners) HandlePlaced(p models.Placement) {
	for _, listener := range l {
		listener.HandlePlaced(p)
	}
}

func (l Listeners) HandleRemoved(p models.Placement) {
	for _, listener := range l {
		listener.HandleRemoved(p)
	}
}

func (l Listeners) HandleCleared() {
	for _, listener := range l {
		listener.HandleCleared()
	}
}

type nopRenderer struct{}

func (nopRenderer) ShowPreview(Preview)                {}
func (nopRenderer) HidePreview()                       {}
func (nopRenderer) SetObjectState(Object, ObjectState) {}

type nopPhysics struct{}

func (nopPhysics) Eject(Object, mgl64.Vec3)     {}
func (nopPhysics) SetInteractable(Object, bool) {}
