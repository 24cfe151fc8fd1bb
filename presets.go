package planar

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// Preset data for saving and restoring a space's body setup. Sleep state is
// deliberately not persisted: loaded bodies always start awake and earn
// their sleep again.

type ShapeData struct {
	Kind        string     `json:"kind"` // "circle" or "box"
	Radius      float32    `json:"radius,omitempty"`
	Width       float32    `json:"width,omitempty"`
	Height      float32    `json:"height,omitempty"`
	Offset      mgl32.Vec2 `json:"offset,omitempty"`
	Friction    float32    `json:"friction"`
	Restitution float32    `json:"restitution"`
}

type BodyData struct {
	Static          bool        `json:"static,omitempty"`
	Mass            float32     `json:"mass,omitempty"`
	Moment          float32     `json:"moment,omitempty"`
	Position        mgl32.Vec2  `json:"position"`
	Angle           float32     `json:"angle,omitempty"`
	Velocity        mgl32.Vec2  `json:"velocity,omitempty"`
	AngularVelocity float32     `json:"angular_velocity,omitempty"`
	Shapes          []ShapeData `json:"shapes,omitempty"`
}

type SpacePreset struct {
	Gravity            mgl32.Vec2 `json:"gravity"`
	Damping            float32    `json:"damping"`
	IdleSpeedThreshold float32    `json:"idle_speed_threshold"`
	// Zero means sleeping disabled (the in-memory value is +Inf, which JSON
	// cannot carry).
	SleepTimeThreshold float32    `json:"sleep_time_threshold"`
	Bodies             []BodyData `json:"bodies"`
}

func shapeData(shape *Shape) ShapeData {
	data := ShapeData{
		Offset:      shape.offset,
		Friction:    shape.Friction,
		Restitution: shape.Restitution,
	}
	switch shape.kind {
	case shapeCircle:
		data.Kind = "circle"
		data.Radius = shape.radius
	case shapeBox:
		data.Kind = "box"
		data.Width = shape.halfExtents.X() * 2
		data.Height = shape.halfExtents.Y() * 2
	}
	return data
}

func bodyData(body *Body) BodyData {
	data := BodyData{
		Static:          body.IsStatic(),
		Position:        body.position,
		Angle:           body.angle,
		Velocity:        body.velocity,
		AngularVelocity: body.angularVelocity,
	}
	if !body.IsStatic() {
		data.Mass = body.mass
		data.Moment = body.moment
	}
	for _, shape := range body.shapeList {
		data.Shapes = append(data.Shapes, shapeData(shape))
	}
	return data
}

// SavePreset writes every body bound to the space, including sleeping ones,
// to filename as JSON.
func SavePreset(space *Space, filename string) error {
	preset := SpacePreset{
		Gravity:            space.Gravity,
		Damping:            space.Damping,
		IdleSpeedThreshold: space.IdleSpeedThreshold,
	}
	if !math.IsInf(float64(space.SleepTimeThreshold), 1) {
		preset.SleepTimeThreshold = space.SleepTimeThreshold
	}

	space.EachBody(func(body *Body) {
		preset.Bodies = append(preset.Bodies, bodyData(body))
	})

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preset: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing preset %s: %w", filename, err)
	}
	return nil
}

// LoadPreset reads a preset file and populates the space with its tuning
// and bodies. The space should be empty; loaded bodies are all awake.
func LoadPreset(space *Space, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading preset %s: %w", filename, err)
	}
	var preset SpacePreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return fmt.Errorf("parsing preset %s: %w", filename, err)
	}

	space.Gravity = preset.Gravity
	space.Damping = preset.Damping
	space.IdleSpeedThreshold = preset.IdleSpeedThreshold
	if preset.SleepTimeThreshold == 0 {
		space.SleepTimeThreshold = float32(math.Inf(1))
	} else {
		space.SleepTimeThreshold = preset.SleepTimeThreshold
	}

	for _, bd := range preset.Bodies {
		var body *Body
		if bd.Static {
			body = NewStaticBody()
		} else {
			mass := bd.Mass
			if mass <= 0 {
				mass = 1
			}
			moment := bd.Moment
			if moment <= 0 {
				moment = 1
			}
			body = NewBody(mass, moment)
		}
		body.SetPosition(bd.Position)
		body.SetAngle(bd.Angle)
		body.SetVelocity(bd.Velocity)
		body.SetAngularVelocity(bd.AngularVelocity)
		space.AddBody(body)

		for _, sd := range bd.Shapes {
			var shape *Shape
			switch sd.Kind {
			case "circle":
				shape = NewCircle(body, sd.Radius, sd.Offset)
			case "box":
				shape = NewBox(body, sd.Width, sd.Height)
			default:
				return fmt.Errorf("preset %s: unknown shape kind %q", filename, sd.Kind)
			}
			shape.Friction = sd.Friction
			shape.Restitution = sd.Restitution
			space.AddShape(shape)
		}
	}
	return nil
}
