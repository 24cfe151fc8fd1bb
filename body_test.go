package planar

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKineticEnergy(t *testing.T) {
	body := NewBody(2, 3)
	body.SetVelocity(mgl32.Vec2{3, 4}) // speed 5
	body.SetAngularVelocity(2)

	// m*|v|^2 + i*w^2 = 2*25 + 3*4
	tassert.InDelta(t, 62.0, body.KineticEnergy(), 1e-4)
}

func TestKineticEnergyOfStillStaticBody(t *testing.T) {
	body := NewStaticBody()
	// Infinite mass times zero velocity must not produce NaN.
	tassert.Zero(t, body.KineticEnergy())
}

func TestNewBodyRequiresPositiveMass(t *testing.T) {
	require.PanicsWithValue(t, "planar: body mass must be positive", func() {
		NewBody(0, 1)
	})
	require.PanicsWithValue(t, "planar: body moment must be positive", func() {
		NewBody(1, -1)
	})
}

func TestUpdateVelocityAndPosition(t *testing.T) {
	body := NewBody(2, 1)
	body.ApplyForce(mgl32.Vec2{4, 0}, mgl32.Vec2{})

	body.UpdateVelocity(mgl32.Vec2{0, -10}, 1.0, 0.5)
	// v = (g + F/m) * dt = ((0,-10) + (2,0)) * 0.5
	tassert.InDelta(t, 1.0, body.Velocity().X(), 1e-5)
	tassert.InDelta(t, -5.0, body.Velocity().Y(), 1e-5)

	body.UpdatePosition(0.5)
	tassert.InDelta(t, 0.5, body.Position().X(), 1e-5)
	tassert.InDelta(t, -2.5, body.Position().Y(), 1e-5)
}

func TestStaticBodyIgnoresIntegration(t *testing.T) {
	body := NewStaticBody()
	body.UpdateVelocity(mgl32.Vec2{0, -10}, 1.0, 1.0)
	body.UpdatePosition(1.0)

	tassert.Equal(t, mgl32.Vec2{}, body.Velocity())
	tassert.Equal(t, mgl32.Vec2{}, body.Position())
}

func TestApplyImpulseWakesSleeper(t *testing.T) {
	space := newSleepSpace()
	b1, _ := addBox(space, 0, 0)
	b1.Sleep()
	require.True(t, b1.IsSleeping())

	b1.ApplyImpulse(mgl32.Vec2{1, 0}, mgl32.Vec2{})

	tassert.False(t, b1.IsSleeping())
	tassert.Contains(t, space.Bodies(), b1)
	tassert.InDelta(t, 1.0, b1.Velocity().X(), 1e-5)
}

func TestSetAngleUpdatesRotation(t *testing.T) {
	body := NewBody(1, 1)
	body.SetAngle(0)
	tassert.InDelta(t, 1.0, body.Rotation().X(), 1e-5)

	body.SetAngle(3.14159265 / 2)
	tassert.InDelta(t, 0.0, body.Rotation().X(), 1e-4)
	tassert.InDelta(t, 1.0, body.Rotation().Y(), 1e-4)
}

func TestMomentHelpers(t *testing.T) {
	tassert.InDelta(t, 1.0/6.0, MomentForBox(1, 1, 1), 1e-5)
	tassert.InDelta(t, 0.5, MomentForCircle(1, 1, mgl32.Vec2{}), 1e-5)
	// Offset adds the parallel-axis term.
	tassert.InDelta(t, 4.5, MomentForCircle(1, 1, mgl32.Vec2{2, 0}), 1e-5)
}

func TestShapeUpdateBoxRotation(t *testing.T) {
	body := NewBody(1, 1)
	shape := NewBox(body, 2, 1)

	bb := shape.Update(mgl32.Vec2{}, forAngle(0))
	tassert.InDelta(t, 1.0, bb.Max.X(), 1e-5)
	tassert.InDelta(t, 0.5, bb.Max.Y(), 1e-5)

	// Rotated 90 degrees the extents swap.
	bb = shape.Update(mgl32.Vec2{}, forAngle(3.14159265/2))
	tassert.InDelta(t, 0.5, bb.Max.X(), 1e-4)
	tassert.InDelta(t, 1.0, bb.Max.Y(), 1e-4)
}
