package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// componentNode is the per-body record of the sleep engine. parent and rank
// form the disjoint-set forest, next threads the component ring, idleTime
// accumulates the seconds the body has been below the kinetic threshold.
type componentNode struct {
	parent   *Body
	next     *Body
	rank     uint
	idleTime float32
}

type Body struct {
	mass      float32
	moment    float32
	invMass   float32
	invMoment float32
	static    bool

	position        mgl32.Vec2
	angle           float32
	rot             mgl32.Vec2 // unit rotation vector for angle
	velocity        mgl32.Vec2
	angularVelocity float32
	force           mgl32.Vec2
	torque          float32

	space *Space

	shapeList      []*Shape
	arbiterList    *Arbiter
	constraintList *Constraint

	node componentNode
}

// NewBody creates a dynamic body with the given mass and moment of inertia.
// The body is rogue until added to a space.
func NewBody(mass, moment float32) *Body {
	assert(mass > 0, "body mass must be positive")
	assert(moment > 0, "body moment must be positive")
	return &Body{
		mass:      mass,
		moment:    moment,
		invMass:   1.0 / mass,
		invMoment: 1.0 / moment,
		rot:       mgl32.Vec2{1, 0},
	}
}

// NewStaticBody creates an immovable body. Static bodies never join sleep
// components and are transparent to the contact graph.
func NewStaticBody() *Body {
	return &Body{
		mass:   float32(math.Inf(1)),
		moment: float32(math.Inf(1)),
		static: true,
		rot:    mgl32.Vec2{1, 0},
	}
}

func (body *Body) Mass() float32            { return body.mass }
func (body *Body) Moment() float32          { return body.moment }
func (body *Body) Position() mgl32.Vec2     { return body.position }
func (body *Body) Angle() float32           { return body.angle }
func (body *Body) Rotation() mgl32.Vec2     { return body.rot }
func (body *Body) Velocity() mgl32.Vec2     { return body.velocity }
func (body *Body) AngularVelocity() float32 { return body.angularVelocity }
func (body *Body) Space() *Space            { return body.space }
func (body *Body) Shapes() []*Shape         { return body.shapeList }
func (body *Body) IdleTime() float32        { return body.node.idleTime }

func (body *Body) SetPosition(p mgl32.Vec2) {
	body.position = p
}

func (body *Body) SetAngle(a float32) {
	body.angle = a
	body.rot = forAngle(a)
}

func (body *Body) SetVelocity(v mgl32.Vec2) {
	body.velocity = v
}

func (body *Body) SetAngularVelocity(w float32) {
	body.angularVelocity = w
}

func (body *Body) IsStatic() bool {
	return body.static
}

// IsRogue reports whether the body is not bound to any space. Rogue bodies
// never sleep and keep anything they touch awake.
func (body *Body) IsRogue() bool {
	return body.space == nil
}

// IsSleeping reports whether the body is parked in a sleeping component:
// it is threaded into a component ring and the root of its chain is present
// in the space's sleeping component set.
func (body *Body) IsSleeping() bool {
	if body.node.next == nil || body.space == nil {
		return false
	}
	root := body
	for root.node.parent != nil {
		root = root.node.parent
	}
	return containsBody(body.space.sleepingComponents, root)
}

// KineticEnergy returns the body's linear plus angular kinetic energy.
// Guarded multiplies keep infinite-mass bodies from producing NaN.
func (body *Body) KineticEnergy() float32 {
	vsq := body.velocity.Dot(body.velocity)
	wsq := body.angularVelocity * body.angularVelocity
	var ke float32
	if vsq != 0 {
		ke += vsq * body.mass
	}
	if wsq != 0 {
		ke += wsq * body.moment
	}
	return ke
}

// ApplyImpulse applies an impulse at the offset r from the center of
// gravity, waking the body first.
func (body *Body) ApplyImpulse(j, r mgl32.Vec2) {
	body.Activate()
	body.applyImpulse(j, r)
}

func (body *Body) applyImpulse(j, r mgl32.Vec2) {
	body.velocity = body.velocity.Add(j.Mul(body.invMass))
	body.angularVelocity += body.invMoment * cross(r, j)
}

func (body *Body) ApplyForce(f, r mgl32.Vec2) {
	body.force = body.force.Add(f)
	body.torque += cross(r, f)
}

func (body *Body) ResetForces() {
	body.force = mgl32.Vec2{}
	body.torque = 0
}

// UpdateVelocity integrates gravity, damping and accumulated forces over dt.
func (body *Body) UpdateVelocity(gravity mgl32.Vec2, damping, dt float32) {
	if body.static {
		return
	}
	body.velocity = body.velocity.Mul(damping).Add(gravity.Add(body.force.Mul(body.invMass)).Mul(dt))
	body.angularVelocity = body.angularVelocity*damping + body.torque*body.invMoment*dt
}

// UpdatePosition integrates the body's velocities over dt.
func (body *Body) UpdatePosition(dt float32) {
	if body.static {
		return
	}
	body.position = body.position.Add(body.velocity.Mul(dt))
	body.SetAngle(body.angle + body.angularVelocity*dt)
}

// addShape attaches the shape to the body's shape list. Spatial index
// registration is the space's job.
func (body *Body) addShape(shape *Shape) {
	shape.body = body
	body.shapeList = append(body.shapeList, shape)
}

// pushArbiter threads arb onto this body's arbiter list using the link that
// belongs to this body's side of the pair. Static and rogue bodies carry no
// contact-graph state.
func (body *Body) pushArbiter(arb *Arbiter) {
	if body.IsStatic() || body.IsRogue() {
		return
	}
	if body == arb.a.body {
		arb.nextA = body.arbiterList
	} else {
		arb.nextB = body.arbiterList
	}
	body.arbiterList = arb
}

// pushConstraint threads c onto this body's constraint list.
func (body *Body) pushConstraint(c *Constraint) {
	if body == c.a {
		c.nextA = body.constraintList
	} else {
		c.nextB = body.constraintList
	}
	body.constraintList = c
}

// removeConstraint unthreads c from this body's constraint list.
func (body *Body) removeConstraint(c *Constraint) {
	if body.constraintList == c {
		body.constraintList = c.Next(body)
		return
	}
	for node := body.constraintList; node != nil; node = node.Next(body) {
		next := node.Next(body)
		if next == c {
			node.setNext(body, c.Next(body))
			return
		}
	}
}

func containsBody(bodies []*Body, body *Body) bool {
	for _, b := range bodies {
		if b == body {
			return true
		}
	}
	return false
}

func deleteBody(bodies []*Body, body *Body) []*Body {
	for i, b := range bodies {
		if b == body {
			return append(bodies[:i], bodies[i+1:]...)
		}
	}
	return bodies
}
