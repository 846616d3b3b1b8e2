package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// Key identifies a keyboard key. Alias of ebiten's key codes so bindings and
// scripted device states share one constant set.
type Key = ebiten.Key

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec4 returns the color as a vector, in RGBA order.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// ColorFromVec4 builds a Color from an RGBA vector.
func ColorFromVec4(v mgl32.Vec4) Color {
	return Color{v[0], v[1], v[2], v[3]}
}

// NodeKind distinguishes the transform capability of a Node.
type NodeKind uint8

const (
	KindNode    NodeKind = iota // base node, no transform
	KindNode2D                  // 2D transform: position, rotation, scale
	KindNode3D                  // 3D transform: position, quaternion rotation, scale
	KindControl                 // UI layout: position, size, world-space flag
)

// TypeName returns the serialized name of the node kind.
func (k NodeKind) TypeName() string {
	switch k {
	case KindNode2D:
		return "Node2D"
	case KindNode3D:
		return "Node3D"
	case KindControl:
		return "Control"
	default:
		return "Node"
	}
}

// nodeKindFromTypeName maps a serialized type name back to a NodeKind.
// Unknown names fall back to the base kind.
func nodeKindFromTypeName(name string) NodeKind {
	switch name {
	case "Node2D":
		return KindNode2D
	case "Node3D":
		return KindNode3D
	case "Control":
		return KindControl
	default:
		return KindNode
	}
}

// RenderingContext distinguishes who is driving the render phase. 3D-only
// drawables skip rendering in the editor's 2D view.
type RenderingContext uint8

const (
	ContextRuntime  RenderingContext = iota // normal play; everything renders
	ContextEditor2D                         // editor 2D viewport
	ContextEditor3D                         // editor 3D viewport
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button
)

// InputDevice identifies the device class an input binding refers to.
type InputDevice uint8

const (
	DeviceKeyboard InputDevice = iota
	DeviceMouse
	DeviceGamepad
)

// TriggerKind selects which transition of a bound control activates an action.
type TriggerKind uint8

const (
	TriggerPressed  TriggerKind = iota // active the frame the control goes down
	TriggerReleased                    // active the frame the control goes up
	TriggerHeld                        // active every frame the control is down
)

// InputEventKind identifies a raw device transition delivered to OnInput.
type InputEventKind uint8

const (
	EventKeyDown InputEventKind = iota
	EventKeyUp
	EventMouseButtonDown
	EventMouseButtonUp
	EventMouseMove
	EventMouseWheel
	EventGamepadButtonDown
	EventGamepadButtonUp
)

// InputEvent is a raw device transition, delivered through the tree during
// the input phase.
type InputEvent struct {
	Kind    InputEventKind
	Code    int     // key code, mouse button, or gamepad button
	Gamepad int     // gamepad index for gamepad events
	X, Y    float64 // cursor position for mouse events, wheel delta for wheel events
}

// newUUID returns a fresh random identity. uuid.Nil is reserved for
// "unset reference" throughout the engine.
func newUUID() uuid.UUID {
	return uuid.New()
}
