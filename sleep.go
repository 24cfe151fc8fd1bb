package planar

// The sleep engine groups the dynamic bodies that share arbiters or
// constraints into connected components using a disjoint-set forest, then
// parks whole components whose members have all been idle long enough.
// Sleeping components are threaded into circular rings so that touching any
// member wakes the entire component in one traversal.

// componentRoot finds the root of body's disjoint-set tree, compressing the
// path so every visited body points directly at the root. Returns body
// itself when it has no parent.
func componentRoot(body *Body) *Body {
	root := body
	for root.node.parent != nil {
		root = root.node.parent
	}
	for node := body; node != root; {
		parent := node.node.parent
		node.node.parent = root
		node = parent
	}
	return root
}

// componentMerge unions two roots by rank.
func componentMerge(aRoot, bRoot *Body) {
	if aRoot.node.rank < bRoot.node.rank {
		aRoot.node.parent = bRoot
	} else if aRoot.node.rank > bRoot.node.rank {
		bRoot.node.parent = aRoot
	} else if aRoot != bRoot {
		bRoot.node.parent = aRoot
		aRoot.node.rank++
	}
}

// ActivateBody makes body part of the active simulation. While the space is
// locked the request is queued on rousedBodies instead; the step driver
// drains the queue by calling ActivateBody again once the space unlocks.
func (space *Space) ActivateBody(body *Body) {
	if space.locked != 0 {
		if !containsBody(space.rousedBodies, body) {
			space.rousedBodies = append(space.rousedBodies, body)
		}
		return
	}

	if body.IsSleeping() {
		// Direct call on a body whose component is still parked (a roused
		// drain lands here). Wake the whole component; it re-enters this
		// function per member with the node already cleared.
		componentActivate(componentRoot(body))
		return
	}

	space.bodies = append(space.bodies, body)
	for _, shape := range body.shapeList {
		space.staticShapes.Remove(shape, shape.id)
		space.activeShapes.Insert(shape, shape.id)
	}

	for arb := body.arbiterList; arb != nil; arb = arb.Next(body) {
		// Arbiters are shared between two bodies that always wake together,
		// so restore each one exactly once: from its a side, unless the a
		// side is a static body that never went through activation.
		if body == arb.a.body || arb.a.body.IsStatic() {
			n := len(arb.contacts)
			saved := arb.contacts

			// Restore the contact values into the space's buffer memory and
			// let the private block go.
			restored := space.ContactBufferGetArray()[:n]
			copy(restored, saved)
			space.PushContacts(n)
			arb.contacts = restored
			arb.ownedContacts = false
			arb.stamp = space.stamp

			space.contactSet[pairKeyOf(arb.a, arb.b)] = arb
		}
	}

	for c := body.constraintList; c != nil; c = c.Next(body) {
		if c.a == body || c.a.IsStatic() {
			space.constraints = append(space.constraints, c)
		}
	}
}

// deactivateBody is the inverse of ActivateBody: shapes migrate to the
// static index, primary-side arbiters leave the live lists with their
// contacts copied into storage the arbiter owns (preserving warm-start
// data), and primary-side constraints leave the live list. The body's entry
// in space.bodies is the component processor's problem.
func (space *Space) deactivateBody(body *Body) {
	for _, shape := range body.shapeList {
		space.activeShapes.Remove(shape, shape.id)
		space.staticShapes.Insert(shape, shape.id)
	}

	for arb := body.arbiterList; arb != nil; arb = arb.Next(body) {
		if body == arb.a.body || arb.a.body.IsStatic() {
			delete(space.contactSet, pairKeyOf(arb.a, arb.b))
			space.arbiters = deleteArbiter(space.arbiters, arb)

			// Save the contact values to a private block so they won't be
			// recycled with the step buffer.
			saved := make([]Contact, len(arb.contacts))
			copy(saved, arb.contacts)
			arb.contacts = saved
			arb.ownedContacts = true
		}
	}

	for c := body.constraintList; c != nil; c = c.Next(body) {
		if c.a == body || c.a.IsStatic() {
			space.constraints = deleteConstraint(space.constraints, c)
		}
	}
}

// componentActivate wakes the whole component parked under root. Walking
// the ring completes even while the space is locked; only the per-body
// structural work is deferred through rousedBodies in that case.
func componentActivate(root *Body) {
	if root == nil || !root.IsSleeping() {
		return
	}

	space := root.space
	assert(space != nil, "trying to activate a body that was never added to a space")

	body := root
	for {
		next := body.node.next
		body.node = componentNode{}
		space.ActivateBody(body)
		body = next
		if body == root {
			break
		}
	}

	space.sleepingComponents = deleteBody(space.sleepingComponents, root)
}

// Activate wakes the body's component. A no-op on bodies that are already
// awake.
func (body *Body) Activate() {
	componentActivate(componentRoot(body))
}

// ActivateShapesTouching wakes every body whose shape overlaps the given
// shape's bounds, in both the active and static indices. Hits on static
// bodies fall out as no-ops.
func (space *Space) ActivateShapesTouching(shape *Shape) {
	space.activeShapes.ShapeQuery(shape, func(hit *Shape) {
		hit.body.Activate()
	})
	space.staticShapes.ShapeQuery(shape, func(hit *Shape) {
		hit.body.Activate()
	})
}

// mergeBodies records one contact-graph edge in the forest. Edges through
// static bodies are ignored; an edge touching a sleeping component wakes
// it; rogue endpoints are collected and keep their neighbors' idle time at
// zero.
func (space *Space) mergeBodies(rogueBodies *[]*Body, a, b *Body) {
	if a.IsStatic() || b.IsStatic() {
		return
	}

	aRoot := componentRoot(a)
	bRoot := componentRoot(b)

	if aRoot.IsSleeping() || bRoot.IsSleeping() {
		componentActivate(aRoot)
		componentActivate(bRoot)
	}

	if a.IsRogue() {
		*rogueBodies = append(*rogueBodies, a)
		b.node.idleTime = 0
	}
	if b.IsRogue() {
		*rogueBodies = append(*rogueBodies, b)
		a.node.idleTime = 0
	}

	componentMerge(aRoot, bRoot)
}

// componentActive reports whether any member of root's ring is still below
// the sleep-time threshold.
func componentActive(root *Body, threshold float32) bool {
	body := root
	for {
		if body.node.idleTime < threshold {
			return true
		}
		body = body.node.next
		if body == root {
			return false
		}
	}
}

// addToComponent threads body into its component's ring, creating the ring
// and publishing the root into components on first touch.
func addToComponent(body *Body, components *[]*Body) {
	if body.node.next != nil {
		return
	}
	root := componentRoot(body)

	next := root.node.next
	if next == nil {
		*components = append(*components, root)
		if body == root {
			// Singleton component: the ring is a self-loop.
			root.node.next = root
		} else {
			body.node.next = root
			root.node.next = body
		}
	} else if root != body {
		// Splice in body after the root.
		body.node.next = next
		root.node.next = body
	}
}

// ProcessComponents is the per-step driver of the sleep engine. It updates
// idle times, rebuilds the forest from the current arbiters and
// constraints, materializes the component rings, and then either
// republishes each component to the new live list or puts every member to
// sleep and parks the root.
func (space *Space) ProcessComponents(dt float32) {
	assert(space.locked == 0, "processing components while the space is locked")

	newBodies := make([]*Body, 0, len(space.bodies))
	var rogueBodies []*Body
	components := make([]*Body, 0, len(space.sleepingComponents)+1)

	dv := space.IdleSpeedThreshold
	var dvsq float32
	if dv != 0 {
		dvsq = dv * dv
	} else {
		dvsq = space.Gravity.Dot(space.Gravity) * dt * dt
	}

	// Update idling and reset the arbiter lists.
	for _, body := range space.bodies {
		var thresh float32
		if dvsq != 0 {
			thresh = body.mass * dvsq
		}
		if body.KineticEnergy() > thresh {
			body.node.idleTime = 0
		} else {
			body.node.idleTime += dt
		}
		body.arbiterList = nil
	}

	// Build the forest from the contact graph edges, waking any sleeping
	// component an edge touches, and thread the arbiters back onto the
	// bodies.
	for _, arb := range space.arbiters {
		space.mergeBodies(&rogueBodies, arb.a.body, arb.b.body)
		arb.a.body.pushArbiter(arb)
		arb.b.body.pushArbiter(arb)
	}
	for _, c := range space.constraints {
		space.mergeBodies(&rogueBodies, c.a, c.b)
	}

	// Thread every body into its component ring. Bodies woken during the
	// edge walk have been appended to space.bodies and are picked up here.
	for i := 0; i < len(space.bodies); i++ {
		addToComponent(space.bodies[i], &components)
	}
	for _, body := range rogueBodies {
		addToComponent(body, &components)
	}

	// Verdict: republish active components, deactivate sleepable ones.
	for _, root := range components {
		if componentActive(root, space.SleepTimeThreshold) {
			body := root
			for {
				next := body.node.next
				if !body.IsRogue() {
					newBodies = append(newBodies, body)
				}
				body.node = componentNode{idleTime: body.node.idleTime}
				body = next
				if body == root {
					break
				}
			}
		} else {
			// The ring links stay intact so a later activation can traverse
			// the component.
			body := root
			for {
				next := body.node.next
				body.node.idleTime = 0
				space.deactivateBody(body)
				body = next
				if body == root {
					break
				}
			}
			space.sleepingComponents = append(space.sleepingComponents, root)
		}
	}

	space.bodies = newBodies

	if space.stamp%60 == 0 {
		space.logger.Debugf("components - live: %d, sleeping: %d, roused: %d",
			len(space.bodies), len(space.sleepingComponents), len(space.rousedBodies))
	}
}

// Sleep forces the body's singleton component asleep immediately.
func (body *Body) Sleep() {
	body.SleepWithGroup(nil)
}

// SleepWithGroup forces the body asleep, either as a new singleton
// component or spliced into the sleeping component of group.
func (body *Body) SleepWithGroup(group *Body) {
	assert(!body.IsStatic() && !body.IsRogue(), "rogue and static bodies cannot be put to sleep")

	space := body.space
	assert(space != nil, "cannot put a body to sleep that has not been added to a space")
	assert(space.locked == 0, "bodies cannot be put to sleep during a step or query")
	assert(group == nil || group.IsSleeping(), "cannot use a non-sleeping body as a group identifier")

	if body.IsSleeping() {
		return
	}

	// Refresh the cached bounds before the shapes migrate to the static
	// index.
	for _, shape := range body.shapeList {
		shape.Update(body.position, body.rot)
	}
	space.deactivateBody(body)

	if group != nil {
		root := componentRoot(group)
		body.node = componentNode{parent: root, next: root.node.next}
		root.node.next = body
	} else {
		body.node = componentNode{next: body}
		space.sleepingComponents = append(space.sleepingComponents, body)
	}

	space.bodies = deleteBody(space.bodies, body)
}
