package planar

import (
	"bytes"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const collisionPersistence = 3

// shapePair is the unordered fingerprint of two shape identities used to key
// the contact set. Construction is symmetric in its arguments.
type shapePair struct {
	a, b uuid.UUID
}

func pairKeyOf(a, b *Shape) shapePair {
	ida, idb := a.id, b.id
	if bytes.Compare(ida[:], idb[:]) > 0 {
		ida, idb = idb, ida
	}
	return shapePair{a: ida, b: idb}
}

// canonicalOrder returns the pair with the lower shape id first so the same
// two shapes always produce an arbiter with the same sides.
func canonicalOrder(a, b *Shape) (*Shape, *Shape) {
	if bytes.Compare(a.id[:], b.id[:]) > 0 {
		return b, a
	}
	return a, b
}

// Space owns every structure of the simulation: the live body list, the
// sleeping component set, the two spatial indices, the live arbiter and
// constraint lists, and the per-step contact arena.
type Space struct {
	Iterations int

	Gravity            mgl32.Vec2
	Damping            float32
	IdleSpeedThreshold float32
	SleepTimeThreshold float32
	CollisionSlop      float32

	stamp  uint
	currDT float32

	bodies             []*Body
	staticBodies       []*Body
	rousedBodies       []*Body
	sleepingComponents []*Body

	activeShapes *SpatialIndex
	staticShapes *SpatialIndex

	arbiters           []*Arbiter
	contactSet         map[shapePair]*Arbiter
	contactBuffersHead *contactBuffer

	constraints []*Constraint

	locked int

	logger Logger
}

func NewSpace() *Space {
	return &Space{
		Iterations:         10,
		Damping:            1.0,
		SleepTimeThreshold: float32(math.Inf(1)),
		CollisionSlop:      0.1,
		bodies:             []*Body{},
		rousedBodies:       []*Body{},
		sleepingComponents: []*Body{},
		activeShapes:       NewSpatialIndex(2.0),
		staticShapes:       NewSpatialIndex(2.0),
		arbiters:           []*Arbiter{},
		contactSet:         make(map[shapePair]*Arbiter),
		constraints:        []*Constraint{},
		logger:             NewNopLogger(),
	}
}

func (space *Space) Logger() Logger          { return space.logger }
func (space *Space) SetLogger(logger Logger) { space.logger = logger }

func (space *Space) Bodies() []*Body             { return space.bodies }
func (space *Space) Arbiters() []*Arbiter        { return space.arbiters }
func (space *Space) Constraints() []*Constraint  { return space.constraints }
func (space *Space) SleepingComponents() []*Body { return space.sleepingComponents }
func (space *Space) RousedBodies() []*Body       { return space.rousedBodies }
func (space *Space) ActiveShapes() *SpatialIndex { return space.activeShapes }
func (space *Space) StaticShapes() *SpatialIndex { return space.staticShapes }
func (space *Space) ContactSetArbiter(a, b *Shape) *Arbiter {
	return space.contactSet[pairKeyOf(a, b)]
}

func (space *Space) Locked() bool { return space.locked != 0 }

// SetGravity changes gravity and wakes every sleeping component, since the
// equilibrium they slept in no longer holds.
func (space *Space) SetGravity(gravity mgl32.Vec2) {
	space.Gravity = gravity

	roots := append([]*Body(nil), space.sleepingComponents...)
	for _, root := range roots {
		root.Activate()
	}
}

func (space *Space) Lock() {
	space.locked++
}

// Unlock decrements the lock and, once the space is fully unlocked, drains
// the roused queue by re-invoking ActivateBody for each deferred entry.
func (space *Space) Unlock() {
	space.locked--
	assert(space.locked >= 0, "space lock underflow")
	if space.locked != 0 {
		return
	}

	roused := space.rousedBodies
	space.rousedBodies = space.rousedBodies[:0]
	for i, body := range roused {
		space.ActivateBody(body)
		roused[i] = nil
	}
}

// AddBody binds a body to the space. Dynamic bodies join the live list,
// static bodies a side list that never participates in components.
func (space *Space) AddBody(body *Body) *Body {
	assert(body.space != space, "body is already added to this space")
	assert(body.space == nil, "body is already added to another space")

	if body.IsStatic() {
		space.staticBodies = append(space.staticBodies, body)
	} else {
		space.bodies = append(space.bodies, body)
	}
	body.space = space
	return body
}

// RemoveBody unbinds an awake or sleeping body. Its component is woken
// first so the removal always happens from the active state.
func (space *Space) RemoveBody(body *Body) {
	assert(body.space == space, "removing a body that is not in this space")
	assert(space.locked == 0, "bodies cannot be removed during a step or query")

	body.Activate()
	if body.IsStatic() {
		space.staticBodies = deleteBody(space.staticBodies, body)
	} else {
		space.bodies = deleteBody(space.bodies, body)
	}
	body.space = nil
}

// AddShape registers a body's shape with the appropriate spatial index.
func (space *Space) AddShape(shape *Shape) *Shape {
	body := shape.body
	assert(shape.space != space, "shape is already added to this space")
	assert(shape.space == nil, "shape is already added to another space")
	assert(space.locked == 0, "shapes cannot be added during a step or query")

	if !body.IsStatic() {
		body.Activate()
	}
	shape.CacheBB()
	if body.IsStatic() {
		space.staticShapes.Insert(shape, shape.id)
	} else {
		space.activeShapes.Insert(shape, shape.id)
	}
	shape.space = space
	return shape
}

// RemoveShape drops the shape from whichever index holds it.
func (space *Space) RemoveShape(shape *Shape) {
	assert(shape.space == space, "removing a shape that is not in this space")
	assert(space.locked == 0, "shapes cannot be removed during a step or query")

	body := shape.body
	if !body.IsStatic() {
		body.Activate()
	}
	if space.activeShapes.Contains(shape.id) {
		space.activeShapes.Remove(shape, shape.id)
	} else {
		space.staticShapes.Remove(shape, shape.id)
	}
	for i, s := range body.shapeList {
		if s == shape {
			body.shapeList = append(body.shapeList[:i], body.shapeList[i+1:]...)
			break
		}
	}
	shape.space = nil
}

// AddConstraint registers a constraint, wakes both endpoints and threads it
// onto their intrusive lists.
func (space *Space) AddConstraint(c *Constraint) *Constraint {
	assert(c.space != space, "constraint is already added to this space")
	assert(c.space == nil, "constraint is already added to another space")
	assert(space.locked == 0, "constraints cannot be added during a step or query")

	c.a.Activate()
	c.b.Activate()
	space.constraints = append(space.constraints, c)

	c.a.pushConstraint(c)
	c.b.pushConstraint(c)
	c.space = space
	return c
}

func (space *Space) RemoveConstraint(c *Constraint) {
	assert(c.space == space, "removing a constraint that is not in this space")
	assert(space.locked == 0, "constraints cannot be removed during a step or query")

	c.a.Activate()
	c.b.Activate()
	space.constraints = deleteConstraint(space.constraints, c)

	c.a.removeConstraint(c)
	c.b.removeConstraint(c)
	c.space = nil
}

// EachBody visits every body bound to the space: active, static, and the
// members of every sleeping component ring.
func (space *Space) EachBody(fn func(*Body)) {
	space.Lock()
	defer space.Unlock()

	for _, body := range space.bodies {
		fn(body)
	}
	for _, body := range space.staticBodies {
		fn(body)
	}
	for _, root := range space.sleepingComponents {
		body := root
		for {
			next := body.node.next
			fn(body)
			body = next
			if body == root {
				break
			}
		}
	}
}

// Step advances the simulation by dt: integrate positions, collide, rebuild
// the contact graph and sleep verdicts, then solve velocities under lock.
// The roused queue is drained on the final unlock.
func (space *Space) Step(dt float32) {
	if dt == 0 {
		return
	}

	space.stamp++
	prevDT := space.currDT
	space.currDT = dt

	space.arbiters = space.arbiters[:0]

	space.Lock()
	{
		for _, body := range space.bodies {
			body.UpdatePosition(dt)
		}

		space.PushFreshContactBuffer()
		space.reindexActiveShapes()
		space.collide()
	}
	space.Unlock()

	// Rebuild the contact graph and detect sleeping components.
	space.ProcessComponents(dt)

	space.Lock()
	{
		space.contactSetFilter()

		slop := space.CollisionSlop
		biasCoef := 1 - float32(math.Pow(collisionBias, float64(dt)))
		for _, arb := range space.arbiters {
			arb.PreStep(dt, slop, biasCoef)
		}
		for _, c := range space.constraints {
			c.PreStep(dt, biasCoef)
		}

		damping := float32(math.Pow(float64(space.Damping), float64(dt)))
		for _, body := range space.bodies {
			body.UpdateVelocity(space.Gravity, damping, dt)
			body.ResetForces()
		}

		var dtCoef float32
		if prevDT != 0 {
			dtCoef = dt / prevDT
		}
		for _, arb := range space.arbiters {
			arb.ApplyCachedImpulse(dtCoef)
		}
		for _, c := range space.constraints {
			c.ApplyCachedImpulse(dtCoef)
		}

		for i := 0; i < space.Iterations; i++ {
			for _, arb := range space.arbiters {
				arb.ApplyImpulse()
			}
			for _, c := range space.constraints {
				c.ApplyImpulse()
			}
		}
	}
	space.Unlock()
}

var collisionBias = math.Pow(0.9, 60)

// reindexActiveShapes refreshes the cached AABBs of every active shape and
// rebuilds their spatial-hash cells.
func (space *Space) reindexActiveShapes() {
	for _, body := range space.bodies {
		for _, shape := range body.shapeList {
			space.activeShapes.Remove(shape, shape.id)
			shape.CacheBB()
			space.activeShapes.Insert(shape, shape.id)
		}
	}
}

// collide runs the pair queries for every active shape against both
// indices. Hitting a shape in the static index is how a moving body ends up
// waking a sleeping component: the resulting arbiter is an edge into the
// sleeper, and ProcessComponents activates it.
func (space *Space) collide() {
	for _, body := range space.bodies {
		for _, shape := range body.shapeList {
			space.activeShapes.ShapeQuery(shape, func(hit *Shape) {
				space.collideShapePair(shape, hit)
			})
			space.staticShapes.ShapeQuery(shape, func(hit *Shape) {
				space.collideShapePair(shape, hit)
			})
		}
	}
}

func (space *Space) collideShapePair(s1, s2 *Shape) {
	if s1.body == s2.body {
		return
	}
	if s1.body.IsStatic() && s2.body.IsStatic() {
		return
	}
	if !s1.bb.Intersects(s2.bb) {
		return
	}

	a, b := canonicalOrder(s1, s2)
	key := pairKeyOf(a, b)
	arb := space.contactSet[key]
	if arb != nil && arb.stamp == space.stamp {
		// The mirrored query already handled this pair this step.
		return
	}

	buf := space.ContactBufferGetArray()
	count := collideShapes(a, b, buf)
	if count == 0 {
		return
	}
	space.PushContacts(count)

	if arb == nil {
		arb = newArbiter(a, b)
		space.contactSet[key] = arb
	}
	arb.update(buf[:count])
	arb.stamp = space.stamp
	space.arbiters = append(space.arbiters, arb)
}

// contactSetFilter throws out arbiters whose pair has not collided within
// the persistence window. Arbiters of sleeping pairs are not in the set;
// deactivation removed them.
func (space *Space) contactSetFilter() {
	for key, arb := range space.contactSet {
		if space.stamp-arb.stamp > collisionPersistence {
			delete(space.contactSet, key)
		}
	}
}

// collideShapes writes up to maxContactsPerArbiter contacts for the pair
// into buf and returns how many. Circle pairs get a proper circle test;
// anything involving a box is resolved on world AABBs with a single
// least-penetration contact.
func collideShapes(a, b *Shape, buf []Contact) int {
	if a.kind == shapeCircle && b.kind == shapeCircle {
		return collideCircles(a, b, buf)
	}
	return collideBounds(a, b, buf)
}

func collideCircles(a, b *Shape, buf []Contact) int {
	ca := a.center(a.body.position, a.body.rot)
	cb := b.center(b.body.position, b.body.rot)

	delta := cb.Sub(ca)
	distSq := delta.Dot(delta)
	r := a.radius + b.radius
	if distSq >= r*r {
		return 0
	}

	dist := float32(math.Sqrt(float64(distSq)))
	n := mgl32.Vec2{1, 0}
	if dist != 0 {
		n = delta.Mul(1.0 / dist)
	}

	buf[0] = Contact{
		P:    ca.Add(n.Mul(a.radius + 0.5*(dist-r))),
		N:    n,
		Dist: dist - r,
	}
	return 1
}

func collideBounds(a, b *Shape, buf []Contact) int {
	bbA, bbB := a.bb, b.bb

	overlapX := minf(bbA.Max.X(), bbB.Max.X()) - maxf(bbA.Min.X(), bbB.Min.X())
	overlapY := minf(bbA.Max.Y(), bbB.Max.Y()) - maxf(bbA.Min.Y(), bbB.Min.Y())
	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}

	centerA := bbA.Min.Add(bbA.Max).Mul(0.5)
	centerB := bbB.Min.Add(bbB.Max).Mul(0.5)
	diff := centerB.Sub(centerA)

	var n mgl32.Vec2
	var depth float32
	if overlapX < overlapY {
		depth = overlapX
		if diff.X() >= 0 {
			n = mgl32.Vec2{1, 0}
		} else {
			n = mgl32.Vec2{-1, 0}
		}
	} else {
		depth = overlapY
		if diff.Y() >= 0 {
			n = mgl32.Vec2{0, 1}
		} else {
			n = mgl32.Vec2{0, -1}
		}
	}

	p := mgl32.Vec2{
		0.5 * (maxf(bbA.Min.X(), bbB.Min.X()) + minf(bbA.Max.X(), bbB.Max.X())),
		0.5 * (maxf(bbA.Min.Y(), bbB.Min.Y()) + minf(bbA.Max.Y(), bbB.Max.Y())),
	}

	buf[0] = Contact{P: p, N: n, Dist: -depth}
	return 1
}

func deleteArbiter(arbiters []*Arbiter, arb *Arbiter) []*Arbiter {
	for i, a := range arbiters {
		if a == arb {
			return append(arbiters[:i], arbiters[i+1:]...)
		}
	}
	return arbiters
}

func deleteConstraint(constraints []*Constraint, c *Constraint) []*Constraint {
	for i, con := range constraints {
		if con == c {
			return append(constraints[:i], constraints[i+1:]...)
		}
	}
	return constraints
}
