package planar

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Constraint is a pin joint: it holds the world distance between two
// body-local anchor points fixed at whatever it was when the joint was
// created. Like arbiters, constraints are nodes in two intrusive lists, one
// per endpoint.
type Constraint struct {
	a *Body // primary side
	b *Body

	nextA *Constraint
	nextB *Constraint

	space *Space

	AnchorA mgl32.Vec2
	AnchorB mgl32.Vec2
	dist    float32

	// solver state
	r1, r2 mgl32.Vec2
	n      mgl32.Vec2
	nMass  float32
	bias   float32
	jnAcc  float32
}

// NewPinJoint creates a pin joint between a and b with the given body-local
// anchors. The rest distance is measured from the bodies' current
// transforms.
func NewPinJoint(a, b *Body, anchorA, anchorB mgl32.Vec2) *Constraint {
	assert(a != nil && b != nil, "constraint is attached to a nil body")
	c := &Constraint{a: a, b: b, AnchorA: anchorA, AnchorB: anchorB}
	delta := b.position.Add(rotate(anchorB, b.rot)).Sub(a.position.Add(rotate(anchorA, a.rot)))
	c.dist = delta.Len()
	return c
}

func (c *Constraint) Bodies() (*Body, *Body) { return c.a, c.b }
func (c *Constraint) Dist() float32          { return c.dist }

// Next returns the next constraint in body's intrusive constraint list.
func (c *Constraint) Next(body *Body) *Constraint {
	if c.a == body {
		return c.nextA
	}
	return c.nextB
}

func (c *Constraint) setNext(body *Body, next *Constraint) {
	if c.a == body {
		c.nextA = next
	} else {
		c.nextB = next
	}
}

func (c *Constraint) PreStep(dt, biasCoef float32) {
	c.r1 = rotate(c.AnchorA, c.a.rot)
	c.r2 = rotate(c.AnchorB, c.b.rot)

	delta := c.b.position.Add(c.r2).Sub(c.a.position.Add(c.r1))
	d := delta.Len()
	if d == 0 {
		c.n = mgl32.Vec2{}
	} else {
		c.n = delta.Mul(1.0 / d)
	}

	k := kScalar(c.a, c.b, c.r1, c.r2, c.n)
	if k == 0 {
		c.nMass = 0
	} else {
		c.nMass = 1.0 / k
	}
	c.bias = -biasCoef * (d - c.dist) / dt
}

func (c *Constraint) ApplyCachedImpulse(dtCoef float32) {
	j := c.n.Mul(c.jnAcc * dtCoef)
	c.a.applyImpulse(j.Mul(-1), c.r1)
	c.b.applyImpulse(j, c.r2)
}

func (c *Constraint) ApplyImpulse() {
	vrn := relativeVelocity(c.a, c.b, c.r1, c.r2).Dot(c.n)
	jn := (c.bias - vrn) * c.nMass
	c.jnAcc += jn

	j := c.n.Mul(jn)
	c.a.applyImpulse(j.Mul(-1), c.r1)
	c.b.applyImpulse(j, c.r2)
}
