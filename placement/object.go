package placement

import (
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrTypeNoCapability is the type of errors returned for objects that cannot
// take part in placement.
const ErrTypeNoCapability = "no_capability"

// Object is the opaque handle of an external object.
type Object = grid.Object

// Oriented is implemented by objects that tell how they should be rotated
// and visually centered once placed.
type Oriented interface {
	// The preferred discrete orientation, relative to the grid.
	PreferredOrientation() mgl64.Quat

	// The visual centering offset, in object space.
	VisualOffset() mgl64.Vec3
}

// Categorized is implemented by objects that belong to a category, such as
// "wall" or "roof".
type Categorized interface {
	Category() string
}

// Scaled is implemented by resizable objects. The scale multiplies their
// bounds component-wise.
type Scaled interface {
	Scale() mgl64.Vec3
}

// Box is the axis-aligned bounding box of an object, in object space and in
// world units. The scale of Scaled objects is applied on top of it.
type Box struct {
	Size   mgl64.Vec3
	Center mgl64.Vec3
}

// Overlap is reported by the physics collaborator while an object overlaps
// the grid volume.
type Overlap struct {
	Object   Object
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Velocity mgl64.Vec3

	// Nil when the object has no box extent.
	Bounds *Box

	// Whether the object is actively held by a user.
	Held bool
}

// Moving reports whether the object is inert and has a velocity.
func (o Overlap) Moving() bool {
	return !o.Held && o.Velocity != (mgl64.Vec3{})
}

// subject is an overlap whose object has every placement capability.
type subject struct {
	Overlap

	orientation mgl64.Quat
	offset      mgl64.Vec3
	bounds      Box
}

func describe(o Overlap) (subject, error) {
	if o.Object == nil {
		return subject{}, errors.New("overlap without object").
			WithType(ErrTypeNoCapability)
	}

	if o.Bounds == nil {
		return subject{}, errors.New("object has no bounds").
			WithType(ErrTypeNoCapability).
			WithTag("object_id", o.Object.ID())
	}

	oriented, ok := o.Object.(Oriented)
	if !ok {
		return subject{}, errors.New("object has no orientation").
			WithType(ErrTypeNoCapability).
			WithTag("object_id", o.Object.ID())
	}

	bounds := *o.Bounds
	if scaled, ok := o.Object.(Scaled); ok {
		scale := scaled.Scale()
		bounds.Size = geom.MulElem(bounds.Size, scale)
		bounds.Center = geom.MulElem(bounds.Center, scale)
	}

	return subject{
		Overlap:     o,
		orientation: geom.NormalizedQuat(oriented.PreferredOrientation()),
		offset:      oriented.VisualOffset(),
		bounds:      bounds,
	}, nil
}

func categoryOf(obj Object) string {
	if c, ok := obj.(Categorized); ok && c.Category() != "" {
		return c.Category()
	}
	return "unknown"
}
