package planar

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

func (bb AABB) Intersects(other AABB) bool {
	return bb.Min.X() <= other.Max.X() && other.Min.X() <= bb.Max.X() &&
		bb.Min.Y() <= other.Max.Y() && other.Min.Y() <= bb.Max.Y()
}

type shapeKind int

const (
	shapeCircle shapeKind = iota
	shapeBox
)

// Shape is a collider owned by exactly one body. Its uuid is the stable
// identity used by the spatial indices and the contact set.
type Shape struct {
	id    uuid.UUID
	body  *Body
	space *Space
	kind  shapeKind

	radius      float32    // circle
	halfExtents mgl32.Vec2 // box
	offset      mgl32.Vec2 // local center offset from the body origin

	bb AABB // cached world bounds, valid after Update

	Friction    float32
	Restitution float32
}

// NewCircle creates a circle collider centered at offset in body-local
// coordinates.
func NewCircle(body *Body, radius float32, offset mgl32.Vec2) *Shape {
	assert(body != nil, "shape requires a body")
	assert(radius > 0, "circle radius must be positive")
	shape := &Shape{
		id:       uuid.New(),
		kind:     shapeCircle,
		radius:   radius,
		offset:   offset,
		Friction: 0.5,
	}
	body.addShape(shape)
	shape.Update(body.position, body.rot)
	return shape
}

// NewBox creates a box collider of the given full width and height centered
// on the body origin.
func NewBox(body *Body, width, height float32) *Shape {
	assert(body != nil, "shape requires a body")
	assert(width > 0 && height > 0, "box dimensions must be positive")
	shape := &Shape{
		id:          uuid.New(),
		kind:        shapeBox,
		halfExtents: mgl32.Vec2{width * 0.5, height * 0.5},
		Friction:    0.5,
	}
	body.addShape(shape)
	shape.Update(body.position, body.rot)
	return shape
}

func (shape *Shape) ID() uuid.UUID { return shape.id }
func (shape *Shape) Body() *Body   { return shape.body }
func (shape *Shape) BB() AABB      { return shape.bb }

// center returns the shape's world center for the given body transform.
func (shape *Shape) center(pos, rot mgl32.Vec2) mgl32.Vec2 {
	return pos.Add(rotate(shape.offset, rot))
}

// Update recomputes the cached world AABB from the given body transform.
func (shape *Shape) Update(pos, rot mgl32.Vec2) AABB {
	c := shape.center(pos, rot)
	var ext mgl32.Vec2
	switch shape.kind {
	case shapeCircle:
		ext = mgl32.Vec2{shape.radius, shape.radius}
	case shapeBox:
		// World extents of a rotated box.
		ext = mgl32.Vec2{
			absf(rot.X())*shape.halfExtents.X() + absf(rot.Y())*shape.halfExtents.Y(),
			absf(rot.Y())*shape.halfExtents.X() + absf(rot.X())*shape.halfExtents.Y(),
		}
	}
	shape.bb = AABB{Min: c.Sub(ext), Max: c.Add(ext)}
	return shape.bb
}

// CacheBB refreshes the AABB from the owning body's current transform.
func (shape *Shape) CacheBB() AABB {
	return shape.Update(shape.body.position, shape.body.rot)
}

// MomentForCircle computes the moment of inertia of a circle of the given
// mass, radius and center offset.
func MomentForCircle(mass, radius float32, offset mgl32.Vec2) float32 {
	return mass * (0.5*radius*radius + offset.Dot(offset))
}

// MomentForBox computes the moment of inertia of a solid box.
func MomentForBox(mass, width, height float32) float32 {
	return mass * (width*width + height*height) / 12.0
}
