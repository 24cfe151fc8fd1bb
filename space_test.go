package planar

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIntegratesGravity(t *testing.T) {
	space := NewSpace()
	space.Gravity = mgl32.Vec2{0, -10}

	body := NewBody(1, 1)
	body.SetPosition(mgl32.Vec2{0, 10})
	space.AddBody(body)

	for i := 0; i < 60; i++ {
		space.Step(testDT)
	}

	if body.Position().Y() >= 10 {
		t.Errorf("body should have fallen, but Y = %f", body.Position().Y())
	}
	if body.Velocity().Y() >= 0 {
		t.Errorf("body should have negative velocity, but VY = %f", body.Velocity().Y())
	}
}

func TestStepDampsVelocity(t *testing.T) {
	space := NewSpace()
	space.Damping = 0.5

	body := NewBody(1, 1)
	body.SetVelocity(mgl32.Vec2{10, 0})
	space.AddBody(body)

	for i := 0; i < 60; i++ {
		space.Step(testDT)
	}

	// One second at damping 0.5 should halve the speed.
	tassert.InDelta(t, 5.0, body.Velocity().X(), 0.5)
}

func TestBodyComesToRestAndSleeps(t *testing.T) {
	space := NewSpace()
	space.Gravity = mgl32.Vec2{0, -10}
	space.SleepTimeThreshold = 0.5

	floor := NewStaticBody()
	floor.SetPosition(mgl32.Vec2{0, -1})
	space.AddBody(floor)
	space.AddShape(NewBox(floor, 20, 1))

	body := NewBody(1, MomentForBox(1, 1, 1))
	body.SetPosition(mgl32.Vec2{0, 0.55})
	space.AddBody(body)
	space.AddShape(NewBox(body, 1, 1))

	for i := 0; i < 300; i++ {
		space.Step(testDT)
	}

	require.Empty(t, space.Bodies(), "body should have fallen asleep")
	require.Len(t, space.SleepingComponents(), 1)
	tassert.True(t, body.IsSleeping())
	// Resting on the floor top, within the collision slop.
	tassert.InDelta(t, 0.0, body.Position().Y(), 0.2)

	// A sleeping space keeps sleeping.
	for i := 0; i < 60; i++ {
		space.Step(testDT)
	}
	tassert.True(t, body.IsSleeping())
}

func TestStepWakesSleeperOnImpact(t *testing.T) {
	space := NewSpace()
	space.Gravity = mgl32.Vec2{0, -10}
	space.SleepTimeThreshold = 0.5

	floor := NewStaticBody()
	floor.SetPosition(mgl32.Vec2{0, -1})
	space.AddBody(floor)
	space.AddShape(NewBox(floor, 20, 1))

	resting := NewBody(1, MomentForBox(1, 1, 1))
	resting.SetPosition(mgl32.Vec2{0, 0})
	space.AddBody(resting)
	space.AddShape(NewBox(resting, 1, 1))

	for i := 0; i < 300; i++ {
		space.Step(testDT)
	}
	require.True(t, resting.IsSleeping(), "body should sleep before the impactor arrives")

	impactor := NewBody(1, MomentForBox(1, 1, 1))
	impactor.SetPosition(mgl32.Vec2{0, 4})
	impactor.SetVelocity(mgl32.Vec2{0, -8})
	space.AddBody(impactor)
	space.AddShape(NewBox(impactor, 1, 1))

	woke := false
	for i := 0; i < 120 && !woke; i++ {
		space.Step(testDT)
		woke = !resting.IsSleeping()
	}
	tassert.True(t, woke, "falling body should wake the sleeper through the contact graph")
}

func TestConstraintEdgesMergeComponents(t *testing.T) {
	space := newSleepSpace()
	b1, _ := addBox(space, 0, 0)
	b2, _ := addBox(space, 3, 0)
	b2.SetVelocity(mgl32.Vec2{2, 0})

	space.AddConstraint(NewPinJoint(b1, b2, mgl32.Vec2{}, mgl32.Vec2{}))

	// b1 is idle, but the joint ties it to the moving b2.
	for i := 0; i < 100; i++ {
		stepComponents(space)
		b2.SetVelocity(mgl32.Vec2{2, 0}) // keep it moving
	}

	tassert.Len(t, space.Bodies(), 2)
	tassert.Empty(t, space.SleepingComponents())
}

func TestConstraintRemovalAllowsSleep(t *testing.T) {
	space := newSleepSpace()
	b1, _ := addBox(space, 0, 0)
	b2, _ := addBox(space, 3, 0)
	joint := space.AddConstraint(NewPinJoint(b1, b2, mgl32.Vec2{}, mgl32.Vec2{}))

	space.RemoveConstraint(joint)

	for i := 0; i < 35 && len(space.Bodies()) > 0; i++ {
		stepComponents(space)
	}

	tassert.Empty(t, space.Bodies())
	tassert.Len(t, space.SleepingComponents(), 2, "unjoined idle bodies sleep separately")
}

func TestPinJointHoldsAnchor(t *testing.T) {
	space := NewSpace()
	space.Gravity = mgl32.Vec2{0, -10}

	anchor := NewStaticBody()
	anchor.SetPosition(mgl32.Vec2{0, 5})
	space.AddBody(anchor)

	bob := NewBody(1, 1)
	bob.SetPosition(mgl32.Vec2{0, 3})
	space.AddBody(bob)

	joint := space.AddConstraint(NewPinJoint(anchor, bob, mgl32.Vec2{}, mgl32.Vec2{}))
	require.InDelta(t, 2.0, joint.Dist(), 1e-5)

	for i := 0; i < 240; i++ {
		space.Step(testDT)
	}

	dist := bob.Position().Sub(anchor.Position()).Len()
	tassert.InDelta(t, 2.0, dist, 0.3, "pin joint should hold the bob near its rest distance")
}

func TestAddBodyPreconditions(t *testing.T) {
	space := NewSpace()
	other := NewSpace()
	body := NewBody(1, 1)
	space.AddBody(body)

	require.PanicsWithValue(t, "planar: body is already added to this space", func() {
		space.AddBody(body)
	})
	require.PanicsWithValue(t, "planar: body is already added to another space", func() {
		other.AddBody(body)
	})
}

func TestRemoveBodyWakesAndUnbinds(t *testing.T) {
	space := newSleepSpace()
	b1, _ := addBox(space, 0, 0)
	b2, _ := addBox(space, 0, 1)
	b1.Sleep()
	b2.SleepWithGroup(b1)

	space.RemoveBody(b2)

	tassert.True(t, b2.IsRogue())
	tassert.False(t, b2.IsSleeping())
	// b1 was woken along with its component and stays in the space.
	tassert.Contains(t, space.Bodies(), b1)
	tassert.NotContains(t, space.Bodies(), b2)
}

func TestUnlockUnderflowPanics(t *testing.T) {
	space := NewSpace()
	require.PanicsWithValue(t, "planar: space lock underflow", func() {
		space.Unlock()
	})
}
