package rowan

import (
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// MaxGamepads is the number of gamepad slots the manager tracks.
const MaxGamepads = 4

// defaultDeadzone is the radial deadzone applied to gamepad stick pairs.
const defaultDeadzone = 0.15

// DeviceState is one frame's raw device snapshot. Backends fill it; the
// input manager diffs consecutive snapshots to derive just-pressed and
// just-released edges.
type DeviceState struct {
	Keys         []ebiten.Key
	MouseButtons []MouseButton
	MouseX       float64
	MouseY       float64
	Wheel        float64
	Gamepads     [MaxGamepads]GamepadSnapshot
}

// GamepadSnapshot is one gamepad's raw state within a frame snapshot.
type GamepadSnapshot struct {
	Connected bool
	Buttons   []int
	Axes      []float64
}

// DeviceBackend supplies raw device snapshots. The ebiten backend polls the
// real devices; the queue backend replays scripted states for tests and the
// step runner.
type DeviceBackend interface {
	Poll() DeviceState
}

// Binding ties one physical control to an action, with its own trigger
// kind. The trigger kind decides when the binding reads as active: on the
// press edge, on the release edge, or for the whole hold.
type Binding struct {
	Device  InputDevice
	Trigger TriggerKind
	Key     ebiten.Key  // DeviceKeyboard
	Button  MouseButton // DeviceMouse
	PadSlot int         // DeviceGamepad
	PadBtn  int         // DeviceGamepad
}

// Action is a named input with one or more bindings. The action is active
// when any of its bindings is, each evaluated through its own trigger.
type Action struct {
	Name     string
	Bindings []Binding
}

// AxisBinding contributes to a virtual axis: either a key pair or a raw
// gamepad axis.
type AxisBinding struct {
	Device   InputDevice
	Positive ebiten.Key // DeviceKeyboard
	Negative ebiten.Key // DeviceKeyboard
	PadSlot  int        // DeviceGamepad
	PadAxis  int        // DeviceGamepad
	Scale    float64    // 0 means 1; negative inverts
}

// Axis is a named virtual axis in [-1, 1].
type Axis struct {
	Name     string
	Bindings []AxisBinding
}

type padState struct {
	connected    bool
	down         map[int]bool
	justPressed  map[int]bool
	justReleased map[int]bool
	axes         []float64
}

// InputManager turns raw device snapshots into per-frame pressed sets,
// just-pressed/just-released edges, named actions, and virtual axes. One
// frame's edges survive exactly until EndFrame.
type InputManager struct {
	backend DeviceBackend

	prev DeviceState

	keysDown         map[ebiten.Key]bool
	keysJustPressed  map[ebiten.Key]bool
	keysJustReleased map[ebiten.Key]bool

	mouseDown         map[MouseButton]bool
	mouseJustPressed  map[MouseButton]bool
	mouseJustReleased map[MouseButton]bool
	mouseX, mouseY    float64
	mouseDX, mouseDY  float64
	wheel             float64
	firstFrame        bool

	pads [MaxGamepads]padState

	sensitivity float64
	deadzone    float64

	actions map[string]*Action
	axes    map[string]*Axis

	// prev-frame trigger-kind activity, for action edges
	wasActive     map[string]bool
	justTriggered map[string]bool
	justReleased  map[string]bool

	events []InputEvent
}

// NewInputManager creates a manager over the given backend. Pass the ebiten
// backend for a real window, or a queue backend for headless use.
func NewInputManager(backend DeviceBackend) *InputManager {
	m := &InputManager{
		backend:           backend,
		keysDown:          make(map[ebiten.Key]bool),
		keysJustPressed:   make(map[ebiten.Key]bool),
		keysJustReleased:  make(map[ebiten.Key]bool),
		mouseDown:         make(map[MouseButton]bool),
		mouseJustPressed:  make(map[MouseButton]bool),
		mouseJustReleased: make(map[MouseButton]bool),
		sensitivity:       1,
		deadzone:          defaultDeadzone,
		actions:           make(map[string]*Action),
		axes:              make(map[string]*Axis),
		wasActive:         make(map[string]bool),
		justTriggered:     make(map[string]bool),
		justReleased:      make(map[string]bool),
		firstFrame:        true,
	}
	for i := range m.pads {
		m.pads[i].down = make(map[int]bool)
		m.pads[i].justPressed = make(map[int]bool)
		m.pads[i].justReleased = make(map[int]bool)
	}
	return m
}

// --- Frame phases ---

// BeginFrame polls the backend and derives this frame's edges from the
// previous snapshot. Called by the engine at the start of the input phase.
func (m *InputManager) BeginFrame() {
	cur := m.backend.Poll()
	m.events = m.events[:0]

	m.diffKeys(cur)
	m.diffMouse(cur)
	m.diffGamepads(cur)
	m.deriveActionEdges()

	m.prev = cur
	m.firstFrame = false
}

// EndFrame clears the per-frame edge sets and the event queue. Called by the
// engine at the end of the frame; pressed state carries over.
func (m *InputManager) EndFrame() {
	clear(m.keysJustPressed)
	clear(m.keysJustReleased)
	clear(m.mouseJustPressed)
	clear(m.mouseJustReleased)
	for i := range m.pads {
		clear(m.pads[i].justPressed)
		clear(m.pads[i].justReleased)
	}
	clear(m.justTriggered)
	clear(m.justReleased)
	m.events = m.events[:0]
	m.wheel = 0
	m.mouseDX, m.mouseDY = 0, 0
}

func (m *InputManager) diffKeys(cur DeviceState) {
	now := make(map[ebiten.Key]bool, len(cur.Keys))
	for _, k := range cur.Keys {
		now[k] = true
		if !m.keysDown[k] {
			m.keysJustPressed[k] = true
			m.events = append(m.events, InputEvent{Kind: EventKeyDown, Code: int(k)})
		}
	}
	for k := range m.keysDown {
		if !now[k] {
			m.keysJustReleased[k] = true
			m.events = append(m.events, InputEvent{Kind: EventKeyUp, Code: int(k)})
		}
	}
	m.keysDown = now
}

func (m *InputManager) diffMouse(cur DeviceState) {
	now := make(map[MouseButton]bool, len(cur.MouseButtons))
	for _, b := range cur.MouseButtons {
		now[b] = true
		if !m.mouseDown[b] {
			m.mouseJustPressed[b] = true
			m.events = append(m.events, InputEvent{Kind: EventMouseButtonDown, Code: int(b), X: cur.MouseX, Y: cur.MouseY})
		}
	}
	for b := range m.mouseDown {
		if !now[b] {
			m.mouseJustReleased[b] = true
			m.events = append(m.events, InputEvent{Kind: EventMouseButtonUp, Code: int(b), X: cur.MouseX, Y: cur.MouseY})
		}
	}
	m.mouseDown = now

	if m.firstFrame {
		m.mouseDX, m.mouseDY = 0, 0
	} else {
		m.mouseDX = (cur.MouseX - m.mouseX) * m.sensitivity
		m.mouseDY = (cur.MouseY - m.mouseY) * m.sensitivity
		if cur.MouseX != m.mouseX || cur.MouseY != m.mouseY {
			m.events = append(m.events, InputEvent{Kind: EventMouseMove, X: cur.MouseX, Y: cur.MouseY})
		}
	}
	m.mouseX, m.mouseY = cur.MouseX, cur.MouseY
	m.wheel = cur.Wheel
	if cur.Wheel != 0 {
		m.events = append(m.events, InputEvent{Kind: EventMouseWheel, Y: cur.Wheel})
	}
}

func (m *InputManager) diffGamepads(cur DeviceState) {
	for i := range m.pads {
		pad := &m.pads[i]
		snap := cur.Gamepads[i]
		pad.connected = snap.Connected

		now := make(map[int]bool, len(snap.Buttons))
		for _, b := range snap.Buttons {
			now[b] = true
			if !pad.down[b] {
				pad.justPressed[b] = true
				m.events = append(m.events, InputEvent{Kind: EventGamepadButtonDown, Code: b, Gamepad: i})
			}
		}
		for b := range pad.down {
			if !now[b] {
				pad.justReleased[b] = true
				m.events = append(m.events, InputEvent{Kind: EventGamepadButtonUp, Code: b, Gamepad: i})
			}
		}
		pad.down = now
		pad.axes = remapDeadzone(snap.Axes, m.deadzone)
	}
}

// remapDeadzone applies a radial deadzone to stick pairs (0,1) and (2,3)
// and a linear one to any remaining axes. Inside the deadzone the output is
// exactly zero; outside it rescales so the output still reaches 1.
func remapDeadzone(axes []float64, dz float64) []float64 {
	if len(axes) == 0 {
		return nil
	}
	out := make([]float64, len(axes))
	copy(out, axes)
	for pair := 0; pair+1 < len(out) && pair < 4; pair += 2 {
		x, y := out[pair], out[pair+1]
		mag := math.Hypot(x, y)
		if mag < dz {
			out[pair], out[pair+1] = 0, 0
			continue
		}
		scale := ((mag - dz) / (1 - dz)) / mag
		if scale > 1/mag {
			scale = 1 / mag
		}
		out[pair] = x * scale
		out[pair+1] = y * scale
	}
	for i := 4; i < len(out); i++ {
		v := out[i]
		if math.Abs(v) < dz {
			out[i] = 0
		} else {
			out[i] = math.Copysign((math.Abs(v)-dz)/(1-dz), v)
		}
	}
	return out
}

// --- Raw queries ---

// IsKeyPressed reports whether the key is currently down.
func (m *InputManager) IsKeyPressed(k ebiten.Key) bool { return m.keysDown[k] }

// IsKeyJustPressed reports whether the key went down this frame.
func (m *InputManager) IsKeyJustPressed(k ebiten.Key) bool { return m.keysJustPressed[k] }

// IsKeyJustReleased reports whether the key went up this frame.
func (m *InputManager) IsKeyJustReleased(k ebiten.Key) bool { return m.keysJustReleased[k] }

// IsMouseButtonPressed reports whether the button is currently down.
func (m *InputManager) IsMouseButtonPressed(b MouseButton) bool { return m.mouseDown[b] }

// IsMouseButtonJustPressed reports whether the button went down this frame.
func (m *InputManager) IsMouseButtonJustPressed(b MouseButton) bool { return m.mouseJustPressed[b] }

// IsMouseButtonJustReleased reports whether the button went up this frame.
func (m *InputManager) IsMouseButtonJustReleased(b MouseButton) bool { return m.mouseJustReleased[b] }

// MousePosition returns the cursor position in window coordinates.
func (m *InputManager) MousePosition() (x, y float64) { return m.mouseX, m.mouseY }

// MouseDelta returns this frame's cursor movement, scaled by sensitivity.
func (m *InputManager) MouseDelta() (dx, dy float64) { return m.mouseDX, m.mouseDY }

// Wheel returns this frame's scroll amount.
func (m *InputManager) Wheel() float64 { return m.wheel }

// SetMouseSensitivity sets the multiplier applied to mouse deltas.
func (m *InputManager) SetMouseSensitivity(s float64) { m.sensitivity = s }

// SetDeadzone sets the gamepad stick deadzone in [0, 1).
func (m *InputManager) SetDeadzone(dz float64) {
	if dz < 0 {
		dz = 0
	}
	if dz >= 1 {
		dz = 0.99
	}
	m.deadzone = dz
}

// IsGamepadConnected reports whether the slot had a pad this frame.
func (m *InputManager) IsGamepadConnected(slot int) bool {
	if slot < 0 || slot >= MaxGamepads {
		return false
	}
	return m.pads[slot].connected
}

// IsGamepadButtonPressed reports whether the pad button is currently down.
func (m *InputManager) IsGamepadButtonPressed(slot, button int) bool {
	if slot < 0 || slot >= MaxGamepads {
		return false
	}
	return m.pads[slot].down[button]
}

// IsGamepadButtonJustPressed reports whether the pad button went down this
// frame.
func (m *InputManager) IsGamepadButtonJustPressed(slot, button int) bool {
	if slot < 0 || slot >= MaxGamepads {
		return false
	}
	return m.pads[slot].justPressed[button]
}

// GamepadAxis returns the deadzone-remapped axis value, or 0 when the slot
// or axis is out of range.
func (m *InputManager) GamepadAxis(slot, axis int) float64 {
	if slot < 0 || slot >= MaxGamepads {
		return 0
	}
	if axis < 0 || axis >= len(m.pads[slot].axes) {
		return 0
	}
	return m.pads[slot].axes[axis]
}

// Events returns the raw events generated this frame, in device order. The
// returned slice MUST NOT be mutated and is only valid until EndFrame.
func (m *InputManager) Events() []InputEvent { return m.events }

// --- Actions ---

// AddAction declares a named action. Redeclaring a name drops its bindings.
func (m *InputManager) AddAction(name string) *Action {
	a := &Action{Name: name}
	m.actions[name] = a
	return a
}

// RemoveAction removes a named action.
func (m *InputManager) RemoveAction(name string) { delete(m.actions, name) }

// HasAction reports whether the action is declared.
func (m *InputManager) HasAction(name string) bool {
	_, ok := m.actions[name]
	return ok
}

// ActionNames returns the declared action names, sorted.
func (m *InputManager) ActionNames() []string {
	names := make([]string, 0, len(m.actions))
	for name := range m.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BindActionKey adds a keyboard binding with a trigger kind to an action.
func (m *InputManager) BindActionKey(name string, k ebiten.Key, trigger TriggerKind) {
	if a, ok := m.actions[name]; ok {
		a.Bindings = append(a.Bindings, Binding{Device: DeviceKeyboard, Trigger: trigger, Key: k})
	}
}

// BindActionMouse adds a mouse-button binding with a trigger kind to an
// action.
func (m *InputManager) BindActionMouse(name string, b MouseButton, trigger TriggerKind) {
	if a, ok := m.actions[name]; ok {
		a.Bindings = append(a.Bindings, Binding{Device: DeviceMouse, Trigger: trigger, Button: b})
	}
}

// BindActionGamepad adds a gamepad-button binding with a trigger kind to an
// action.
func (m *InputManager) BindActionGamepad(name string, slot, button int, trigger TriggerKind) {
	if a, ok := m.actions[name]; ok {
		a.Bindings = append(a.Bindings, Binding{Device: DeviceGamepad, Trigger: trigger, PadSlot: slot, PadBtn: button})
	}
}

// bindingDown reports whether the binding's control is currently down.
func (m *InputManager) bindingDown(b Binding) bool {
	switch b.Device {
	case DeviceKeyboard:
		return m.keysDown[b.Key]
	case DeviceMouse:
		return m.mouseDown[b.Button]
	case DeviceGamepad:
		return m.IsGamepadButtonPressed(b.PadSlot, b.PadBtn)
	}
	return false
}

func (m *InputManager) bindingJustPressed(b Binding) bool {
	switch b.Device {
	case DeviceKeyboard:
		return m.keysJustPressed[b.Key]
	case DeviceMouse:
		return m.mouseJustPressed[b.Button]
	case DeviceGamepad:
		return m.IsGamepadButtonJustPressed(b.PadSlot, b.PadBtn)
	}
	return false
}

func (m *InputManager) bindingJustReleased(b Binding) bool {
	switch b.Device {
	case DeviceKeyboard:
		return m.keysJustReleased[b.Key]
	case DeviceMouse:
		return m.mouseJustReleased[b.Button]
	case DeviceGamepad:
		if b.PadSlot < 0 || b.PadSlot >= MaxGamepads {
			return false
		}
		return m.pads[b.PadSlot].justReleased[b.PadBtn]
	}
	return false
}

// IsActionPressed reports whether any binding's control is currently down,
// regardless of the action's trigger kind.
func (m *InputManager) IsActionPressed(name string) bool {
	a, ok := m.actions[name]
	if !ok {
		return false
	}
	for _, b := range a.Bindings {
		if m.bindingDown(b) {
			return true
		}
	}
	return false
}

// IsActionJustPressed reports whether any binding's control went down this
// frame.
func (m *InputManager) IsActionJustPressed(name string) bool {
	a, ok := m.actions[name]
	if !ok {
		return false
	}
	for _, b := range a.Bindings {
		if m.bindingJustPressed(b) {
			return true
		}
	}
	return false
}

// IsActionJustReleased reports whether any binding's control went up this
// frame.
func (m *InputManager) IsActionJustReleased(name string) bool {
	a, ok := m.actions[name]
	if !ok {
		return false
	}
	for _, b := range a.Bindings {
		if m.bindingJustReleased(b) {
			return true
		}
	}
	return false
}

// bindingActive evaluates one binding through its trigger kind: a Pressed
// binding is active only on the press edge, a Released binding only on the
// release edge, a Held binding for the whole hold.
func (m *InputManager) bindingActive(b Binding) bool {
	switch b.Trigger {
	case TriggerPressed:
		return m.bindingJustPressed(b)
	case TriggerReleased:
		return m.bindingJustReleased(b)
	default:
		return m.bindingDown(b)
	}
}

// IsActionActive reports whether any binding of the action is active, each
// evaluated through its own trigger kind.
func (m *InputManager) IsActionActive(name string) bool {
	a, ok := m.actions[name]
	if !ok {
		return false
	}
	for _, b := range a.Bindings {
		if m.bindingActive(b) {
			return true
		}
	}
	return false
}

// ActionJustTriggered reports whether the action became active this frame.
func (m *InputManager) ActionJustTriggered(name string) bool { return m.justTriggered[name] }

// ActionJustDeactivated reports whether the action stopped being active this
// frame.
func (m *InputManager) ActionJustDeactivated(name string) bool { return m.justReleased[name] }

// deriveActionEdges compares each action's trigger-kind activity against the
// previous frame.
func (m *InputManager) deriveActionEdges() {
	for name := range m.actions {
		active := m.IsActionActive(name)
		was := m.wasActive[name]
		if active && !was {
			m.justTriggered[name] = true
		}
		if !active && was {
			m.justReleased[name] = true
		}
		m.wasActive[name] = active
	}
}

// --- Axes ---

// AddAxis declares a named virtual axis.
func (m *InputManager) AddAxis(name string) *Axis {
	ax := &Axis{Name: name}
	m.axes[name] = ax
	return ax
}

// BindAxisKeys adds a key-pair binding to an axis.
func (m *InputManager) BindAxisKeys(name string, negative, positive ebiten.Key) {
	if ax, ok := m.axes[name]; ok {
		ax.Bindings = append(ax.Bindings, AxisBinding{Device: DeviceKeyboard, Positive: positive, Negative: negative, Scale: 1})
	}
}

// BindAxisGamepad adds a raw gamepad-axis binding to an axis.
func (m *InputManager) BindAxisGamepad(name string, slot, axis int, scale float64) {
	if ax, ok := m.axes[name]; ok {
		if scale == 0 {
			scale = 1
		}
		ax.Bindings = append(ax.Bindings, AxisBinding{Device: DeviceGamepad, PadSlot: slot, PadAxis: axis, Scale: scale})
	}
}

// GetAxis returns the combined axis value clamped to [-1, 1].
func (m *InputManager) GetAxis(name string) float64 {
	ax, ok := m.axes[name]
	if !ok {
		return 0
	}
	var v float64
	for _, b := range ax.Bindings {
		switch b.Device {
		case DeviceKeyboard:
			if m.keysDown[b.Positive] {
				v += b.Scale
			}
			if m.keysDown[b.Negative] {
				v -= b.Scale
			}
		case DeviceGamepad:
			v += m.GamepadAxis(b.PadSlot, b.PadAxis) * b.Scale
		}
	}
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return v
}
