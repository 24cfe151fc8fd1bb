package planar

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Contact is one persistent contact point of an arbiter. The accumulated
// impulses jnAcc and jtAcc are the warm-start state that must survive
// sleep/wake cycles.
type Contact struct {
	P    mgl32.Vec2 // world contact point
	N    mgl32.Vec2 // contact normal, from a to b
	Dist float32    // penetration distance, negative when overlapping

	r1, r2       mgl32.Vec2
	nMass, tMass float32
	bounce       float32
	bias         float32

	jnAcc float32
	jtAcc float32
}

// Arbiter tracks the contact state of one shape pair. While the pair is
// active its contacts slice aliases the space's per-step contact buffer;
// while both bodies sleep the slice is a private copy owned by the arbiter
// (ownedContacts), so the warm-start impulses cannot be recycled with the
// buffer.
type Arbiter struct {
	a *Shape // primary side
	b *Shape

	contacts      []Contact
	ownedContacts bool

	nextA *Arbiter
	nextB *Arbiter

	stamp       uint
	friction    float32
	restitution float32
}

func newArbiter(a, b *Shape) *Arbiter {
	return &Arbiter{a: a, b: b}
}

func (arb *Arbiter) Shapes() (*Shape, *Shape) { return arb.a, arb.b }
func (arb *Arbiter) Contacts() []Contact      { return arb.contacts }
func (arb *Arbiter) NumContacts() int         { return len(arb.contacts) }

// Next returns the next arbiter in body's intrusive arbiter list, selecting
// the link for whichever side of this arbiter body is on.
func (arb *Arbiter) Next(body *Body) *Arbiter {
	if arb.a.body == body {
		return arb.nextA
	}
	return arb.nextB
}

// update replaces the arbiter's contacts with a freshly collided set
// (already resident in the space's contact buffer) and carries the
// accumulated impulses over from the previous step's matching points.
func (arb *Arbiter) update(contacts []Contact) {
	old := arb.contacts
	for i := range contacts {
		if i < len(old) {
			contacts[i].jnAcc = old[i].jnAcc
			contacts[i].jtAcc = old[i].jtAcc
		}
	}
	arb.contacts = contacts
	arb.ownedContacts = false
	arb.friction = arb.a.Friction * arb.b.Friction
	arb.restitution = arb.a.Restitution * arb.b.Restitution
}

// kScalar is the effective mass of the pair along n at the contact offsets.
func kScalar(a, b *Body, r1, r2, n mgl32.Vec2) float32 {
	sum := a.invMass + b.invMass
	rcn1 := cross(r1, n)
	rcn2 := cross(r2, n)
	return sum + a.invMoment*rcn1*rcn1 + b.invMoment*rcn2*rcn2
}

func relativeVelocity(a, b *Body, r1, r2 mgl32.Vec2) mgl32.Vec2 {
	v1 := a.velocity.Add(crossVS(r1, -a.angularVelocity))
	v2 := b.velocity.Add(crossVS(r2, -b.angularVelocity))
	return v2.Sub(v1)
}

// PreStep computes the per-contact solver coefficients for this step.
func (arb *Arbiter) PreStep(dt, slop, biasCoef float32) {
	a := arb.a.body
	b := arb.b.body

	for i := range arb.contacts {
		con := &arb.contacts[i]
		con.r1 = con.P.Sub(a.position)
		con.r2 = con.P.Sub(b.position)

		con.nMass = 1.0 / kScalar(a, b, con.r1, con.r2, con.N)
		con.tMass = 1.0 / kScalar(a, b, con.r1, con.r2, perp(con.N))

		con.bias = -biasCoef * minf(0, con.Dist+slop) / dt
		con.bounce = arb.restitution * relativeVelocity(a, b, con.r1, con.r2).Dot(con.N)
	}
}

// ApplyCachedImpulse warm-starts the solver with last step's accumulated
// impulses, scaled by the step-size ratio.
func (arb *Arbiter) ApplyCachedImpulse(dtCoef float32) {
	a := arb.a.body
	b := arb.b.body

	for i := range arb.contacts {
		con := &arb.contacts[i]
		t := perp(con.N)
		j := con.N.Mul(con.jnAcc).Add(t.Mul(con.jtAcc)).Mul(dtCoef)
		a.applyImpulse(j.Mul(-1), con.r1)
		b.applyImpulse(j, con.r2)
	}
}

// ApplyImpulse runs one sequential-impulse iteration over the contacts.
func (arb *Arbiter) ApplyImpulse() {
	a := arb.a.body
	b := arb.b.body

	for i := range arb.contacts {
		con := &arb.contacts[i]
		n := con.N

		vr := relativeVelocity(a, b, con.r1, con.r2)
		vrn := vr.Dot(n)

		// Normal impulse with Baumgarte bias, clamped through the
		// accumulator so the total stays non-negative.
		jn := (con.bias - con.bounce - vrn) * con.nMass
		jnOld := con.jnAcc
		con.jnAcc = maxf(jnOld+jn, 0)
		jn = con.jnAcc - jnOld

		a.applyImpulse(n.Mul(-jn), con.r1)
		b.applyImpulse(n.Mul(jn), con.r2)

		// Friction impulse, Coulomb-clamped by the normal accumulator.
		t := perp(n)
		vrt := relativeVelocity(a, b, con.r1, con.r2).Dot(t)
		jtMax := arb.friction * con.jnAcc
		jt := -vrt * con.tMass
		jtOld := con.jtAcc
		con.jtAcc = clampf(jtOld+jt, -jtMax, jtMax)
		jt = con.jtAcc - jtOld

		a.applyImpulse(t.Mul(-jt), con.r1)
		b.applyImpulse(t.Mul(jt), con.r2)
	}
}

// TotalImpulse sums the accumulated normal and friction impulses of all
// contacts in world coordinates.
func (arb *Arbiter) TotalImpulse() mgl32.Vec2 {
	var sum mgl32.Vec2
	for i := range arb.contacts {
		con := &arb.contacts[i]
		sum = sum.Add(con.N.Mul(con.jnAcc)).Add(perp(con.N).Mul(con.jtAcc))
	}
	return sum
}
