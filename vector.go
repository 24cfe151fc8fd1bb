package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cross returns the z component of the 3D cross product of a and b
// lifted into the plane.
func cross(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// perp returns a rotated 90 degrees counterclockwise.
func perp(a mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{-a.Y(), a.X()}
}

// crossVS returns the cross product of a vector and a scalar spin.
func crossVS(a mgl32.Vec2, s float32) mgl32.Vec2 {
	return mgl32.Vec2{s * a.Y(), -s * a.X()}
}

// rotate uses rot as a unit complex number and rotates a by it.
func rotate(a, rot mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		a.X()*rot.X() - a.Y()*rot.Y(),
		a.X()*rot.Y() + a.Y()*rot.X(),
	}
}

// forAngle returns the unit rotation vector for the given angle in radians.
func forAngle(a float32) mgl32.Vec2 {
	return mgl32.Vec2{float32(math.Cos(float64(a))), float32(math.Sin(float64(a)))}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
