package rowan

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEdgeDerivation(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)

	dev.PushKeys(ebiten.KeySpace)
	m.BeginFrame()
	assert.True(t, m.IsKeyPressed(ebiten.KeySpace))
	assert.True(t, m.IsKeyJustPressed(ebiten.KeySpace))
	assert.False(t, m.IsKeyJustReleased(ebiten.KeySpace))
	m.EndFrame()

	// held: pressed persists, the edge does not
	m.BeginFrame()
	assert.True(t, m.IsKeyPressed(ebiten.KeySpace))
	assert.False(t, m.IsKeyJustPressed(ebiten.KeySpace))
	m.EndFrame()

	dev.PushRelease()
	m.BeginFrame()
	assert.False(t, m.IsKeyPressed(ebiten.KeySpace))
	assert.True(t, m.IsKeyJustReleased(ebiten.KeySpace))
	m.EndFrame()

	m.BeginFrame()
	assert.False(t, m.IsKeyJustReleased(ebiten.KeySpace))
	m.EndFrame()
}

func TestMouseStateAndDelta(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)

	dev.Push(DeviceState{MouseX: 100, MouseY: 50})
	m.BeginFrame()
	x, y := m.MousePosition()
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 50.0, y)
	dx, dy := m.MouseDelta()
	assert.Zero(t, dx, "first frame has no delta")
	assert.Zero(t, dy)
	m.EndFrame()

	dev.Push(DeviceState{MouseX: 110, MouseY: 45, MouseButtons: []MouseButton{MouseButtonLeft}})
	m.BeginFrame()
	dx, dy = m.MouseDelta()
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, -5.0, dy)
	assert.True(t, m.IsMouseButtonJustPressed(MouseButtonLeft))
	m.EndFrame()
}

func TestMouseSensitivityScalesDelta(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)
	m.SetMouseSensitivity(2)

	dev.Push(DeviceState{MouseX: 0, MouseY: 0})
	m.BeginFrame()
	m.EndFrame()

	dev.Push(DeviceState{MouseX: 10, MouseY: 0})
	m.BeginFrame()
	dx, _ := m.MouseDelta()
	assert.Equal(t, 20.0, dx)
	m.EndFrame()
}

func TestRadialDeadzone(t *testing.T) {
	// inside the deadzone the stick reads exactly zero
	out := remapDeadzone([]float64{0.1, 0.05}, 0.15)
	assert.Zero(t, out[0])
	assert.Zero(t, out[1])

	// outside, the magnitude rescales so full deflection still reaches 1
	out = remapDeadzone([]float64{1, 0}, 0.15)
	assert.InDelta(t, 1.0, out[0], 1e-9)

	// halfway deflection maps smoothly, direction preserved
	out = remapDeadzone([]float64{0.5, 0.5}, 0.15)
	mag := math.Hypot(out[0], out[1])
	want := (math.Hypot(0.5, 0.5) - 0.15) / (1 - 0.15)
	assert.InDelta(t, want, mag, 1e-9)
	assert.InDelta(t, out[0], out[1], 1e-9)
}

func TestGamepadButtonsAndSlots(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)

	var s DeviceState
	s.Gamepads[1] = GamepadSnapshot{Connected: true, Buttons: []int{3}}
	dev.Push(s)
	m.BeginFrame()

	assert.False(t, m.IsGamepadConnected(0))
	assert.True(t, m.IsGamepadConnected(1))
	assert.True(t, m.IsGamepadButtonPressed(1, 3))
	assert.True(t, m.IsGamepadButtonJustPressed(1, 3))
	assert.False(t, m.IsGamepadButtonPressed(0, 3))
	assert.False(t, m.IsGamepadButtonPressed(-1, 3), "out of range slot")
	assert.False(t, m.IsGamepadButtonPressed(MaxGamepads, 3))
	m.EndFrame()
}

func TestActionRawQueries(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)
	m.AddAction("jump")
	m.BindActionKey("jump", ebiten.KeySpace, TriggerPressed)
	m.BindActionGamepad("jump", 0, 0, TriggerPressed)

	dev.PushKeys(ebiten.KeySpace)
	m.BeginFrame()
	assert.True(t, m.IsActionPressed("jump"))
	assert.True(t, m.IsActionJustPressed("jump"))
	m.EndFrame()

	// raw pressed stays true while held, regardless of the trigger kind
	m.BeginFrame()
	assert.True(t, m.IsActionPressed("jump"))
	assert.False(t, m.IsActionJustPressed("jump"))
	m.EndFrame()

	dev.PushRelease()
	m.BeginFrame()
	assert.False(t, m.IsActionPressed("jump"))
	assert.True(t, m.IsActionJustReleased("jump"))
	m.EndFrame()
}

func TestActionTriggerKinds(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)
	m.AddAction("fire")
	m.BindActionKey("fire", ebiten.KeyJ, TriggerPressed)
	m.AddAction("charge")
	m.BindActionKey("charge", ebiten.KeyJ, TriggerHeld)
	m.AddAction("release")
	m.BindActionKey("release", ebiten.KeyJ, TriggerReleased)

	dev.PushKeys(ebiten.KeyJ)
	m.BeginFrame()
	assert.True(t, m.IsActionActive("fire"), "pressed trigger fires on the press edge")
	assert.True(t, m.IsActionActive("charge"))
	assert.False(t, m.IsActionActive("release"))
	assert.True(t, m.ActionJustTriggered("fire"))
	m.EndFrame()

	m.BeginFrame()
	assert.False(t, m.IsActionActive("fire"), "press edge is one frame")
	assert.True(t, m.IsActionActive("charge"), "held trigger stays active")
	assert.False(t, m.ActionJustTriggered("charge"))
	m.EndFrame()

	dev.PushRelease()
	m.BeginFrame()
	assert.False(t, m.IsActionActive("charge"))
	assert.True(t, m.IsActionActive("release"), "released trigger fires on the release edge")
	assert.True(t, m.ActionJustDeactivated("charge"))
	m.EndFrame()
}

func TestActionMixedBindingTriggers(t *testing.T) {
	// one action, two bindings with different triggers: the key fires on
	// its press edge, the gamepad button for the whole hold
	dev := NewQueueDevice()
	m := NewInputManager(dev)
	m.AddAction("dash")
	m.BindActionKey("dash", ebiten.KeyShiftLeft, TriggerPressed)
	m.BindActionGamepad("dash", 0, 2, TriggerHeld)

	dev.PushKeys(ebiten.KeyShiftLeft)
	m.BeginFrame()
	assert.True(t, m.IsActionActive("dash"))
	m.EndFrame()

	m.BeginFrame()
	assert.False(t, m.IsActionActive("dash"), "key binding is edge-triggered")
	m.EndFrame()

	var s DeviceState
	s.Gamepads[0] = GamepadSnapshot{Connected: true, Buttons: []int{2}}
	dev.Push(s)
	m.BeginFrame()
	assert.True(t, m.IsActionActive("dash"))
	m.EndFrame()

	m.BeginFrame()
	assert.True(t, m.IsActionActive("dash"), "gamepad binding stays active while held")
	m.EndFrame()
}

func TestAxisFromKeysAndClamp(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)
	m.AddAxis("move_x")
	m.BindAxisKeys("move_x", ebiten.KeyA, ebiten.KeyD)

	dev.PushKeys(ebiten.KeyD)
	m.BeginFrame()
	assert.Equal(t, 1.0, m.GetAxis("move_x"))
	m.EndFrame()

	dev.PushKeys(ebiten.KeyA)
	m.BeginFrame()
	assert.Equal(t, -1.0, m.GetAxis("move_x"))
	m.EndFrame()

	dev.PushKeys(ebiten.KeyA, ebiten.KeyD)
	m.BeginFrame()
	assert.Zero(t, m.GetAxis("move_x"), "opposing keys cancel")
	m.EndFrame()
}

func TestEventsGeneratedAndCleared(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)

	dev.Push(DeviceState{Keys: []ebiten.Key{ebiten.KeyA}, MouseButtons: []MouseButton{MouseButtonLeft}})
	m.BeginFrame()
	require.Len(t, m.Events(), 2)
	kinds := []InputEventKind{m.Events()[0].Kind, m.Events()[1].Kind}
	assert.Contains(t, kinds, EventKeyDown)
	assert.Contains(t, kinds, EventMouseButtonDown)
	m.EndFrame()
	assert.Empty(t, m.Events())
}

func TestMouseWheelEvent(t *testing.T) {
	dev := NewQueueDevice()
	m := NewInputManager(dev)

	dev.Push(DeviceState{Wheel: 3})
	m.BeginFrame()
	assert.Equal(t, 3.0, m.Wheel())
	var wheel []InputEvent
	for _, ev := range m.Events() {
		if ev.Kind == EventMouseWheel {
			wheel = append(wheel, ev)
		}
	}
	require.Len(t, wheel, 1)
	assert.Equal(t, 3.0, wheel[0].Y)
	m.EndFrame()

	dev.Push(DeviceState{})
	m.BeginFrame()
	for _, ev := range m.Events() {
		assert.NotEqual(t, EventMouseWheel, ev.Kind, "no wheel motion, no event")
	}
	m.EndFrame()
}

func TestUndeclaredActionIsInert(t *testing.T) {
	m := NewInputManager(NewQueueDevice())
	assert.False(t, m.IsActionPressed("nope"))
	assert.False(t, m.IsActionActive("nope"))
	assert.Zero(t, m.GetAxis("nope"))
}
