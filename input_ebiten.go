package rowan

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitenDevice polls the real window devices through ebiten. One instance is
// created by Run; headless engines use QueueDevice instead.
type EbitenDevice struct {
	gamepadIDs []ebiten.GamepadID
	keys       []ebiten.Key
}

// NewEbitenDevice creates the window-backed device poller.
func NewEbitenDevice() *EbitenDevice {
	return &EbitenDevice{}
}

// Poll implements DeviceBackend.
func (d *EbitenDevice) Poll() DeviceState {
	var s DeviceState

	d.keys = inpututil.AppendPressedKeys(d.keys[:0])
	s.Keys = append(s.Keys, d.keys...)

	for _, b := range []MouseButton{MouseButtonLeft, MouseButtonRight, MouseButtonMiddle} {
		if ebiten.IsMouseButtonPressed(ebitenMouseButton(b)) {
			s.MouseButtons = append(s.MouseButtons, b)
		}
	}
	cx, cy := ebiten.CursorPosition()
	s.MouseX, s.MouseY = float64(cx), float64(cy)
	_, s.Wheel = ebiten.Wheel()

	d.gamepadIDs = ebiten.AppendGamepadIDs(d.gamepadIDs[:0])
	for slot, id := range d.gamepadIDs {
		if slot >= MaxGamepads {
			break
		}
		snap := GamepadSnapshot{Connected: true}
		for b := 0; b <= int(ebiten.GamepadButtonMax); b++ {
			if ebiten.IsGamepadButtonPressed(id, ebiten.GamepadButton(b)) {
				snap.Buttons = append(snap.Buttons, b)
			}
		}
		axes := ebiten.GamepadAxisCount(id)
		for a := 0; a < axes; a++ {
			snap.Axes = append(snap.Axes, ebiten.GamepadAxisValue(id, ebiten.GamepadAxisType(a)))
		}
		s.Gamepads[slot] = snap
	}
	return s
}

func ebitenMouseButton(b MouseButton) ebiten.MouseButton {
	switch b {
	case MouseButtonRight:
		return ebiten.MouseButtonRight
	case MouseButtonMiddle:
		return ebiten.MouseButtonMiddle
	default:
		return ebiten.MouseButtonLeft
	}
}
