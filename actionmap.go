package rowan

import (
	"fmt"
	"os"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"gopkg.in/yaml.v3"
)

// Action map file layout. Each binding carries its own trigger, one of
// pressed/released/held; binding devices are keyboard/mouse/gamepad.

type actionMapFile struct {
	Actions []actionEntry `yaml:"actions"`
	Axes    []axisEntry   `yaml:"axes,omitempty"`
}

type actionEntry struct {
	Name     string         `yaml:"name"`
	Bindings []bindingEntry `yaml:"bindings"`
}

type bindingEntry struct {
	Device  string `yaml:"device"`
	Code    int    `yaml:"code"`
	Trigger string `yaml:"trigger"`
	Gamepad int    `yaml:"gamepad,omitempty"`
}

type axisEntry struct {
	Name     string             `yaml:"name"`
	Bindings []axisBindingEntry `yaml:"bindings"`
}

type axisBindingEntry struct {
	Device   string  `yaml:"device"`
	Positive int     `yaml:"positive,omitempty"`
	Negative int     `yaml:"negative,omitempty"`
	Gamepad  int     `yaml:"gamepad,omitempty"`
	Axis     int     `yaml:"axis,omitempty"`
	Scale    float64 `yaml:"scale,omitempty"`
}

func triggerName(t TriggerKind) string {
	switch t {
	case TriggerReleased:
		return "released"
	case TriggerHeld:
		return "held"
	default:
		return "pressed"
	}
}

func triggerFromName(s string) TriggerKind {
	switch s {
	case "released":
		return TriggerReleased
	case "held":
		return TriggerHeld
	default:
		return TriggerPressed
	}
}

func deviceName(d InputDevice) string {
	switch d {
	case DeviceMouse:
		return "mouse"
	case DeviceGamepad:
		return "gamepad"
	default:
		return "keyboard"
	}
}

func deviceFromName(s string) InputDevice {
	switch s {
	case "mouse":
		return DeviceMouse
	case "gamepad":
		return DeviceGamepad
	default:
		return DeviceKeyboard
	}
}

// SaveActionMap writes the manager's actions and axes as YAML. Entries are
// sorted by name so repeated saves are byte-identical.
func (m *InputManager) SaveActionMap(path string) error {
	var file actionMapFile
	for _, name := range m.ActionNames() {
		a := m.actions[name]
		entry := actionEntry{Name: a.Name}
		for _, b := range a.Bindings {
			be := bindingEntry{Device: deviceName(b.Device), Trigger: triggerName(b.Trigger)}
			switch b.Device {
			case DeviceKeyboard:
				be.Code = int(b.Key)
			case DeviceMouse:
				be.Code = int(b.Button)
			case DeviceGamepad:
				be.Code = b.PadBtn
				be.Gamepad = b.PadSlot
			}
			entry.Bindings = append(entry.Bindings, be)
		}
		file.Actions = append(file.Actions, entry)
	}

	axisNames := make([]string, 0, len(m.axes))
	for name := range m.axes {
		axisNames = append(axisNames, name)
	}
	sort.Strings(axisNames)
	for _, name := range axisNames {
		ax := m.axes[name]
		entry := axisEntry{Name: ax.Name}
		for _, b := range ax.Bindings {
			ae := axisBindingEntry{Device: deviceName(b.Device), Scale: b.Scale}
			switch b.Device {
			case DeviceKeyboard:
				ae.Positive = int(b.Positive)
				ae.Negative = int(b.Negative)
			case DeviceGamepad:
				ae.Gamepad = b.PadSlot
				ae.Axis = b.PadAxis
			}
			entry.Bindings = append(entry.Bindings, ae)
		}
		file.Axes = append(file.Axes, entry)
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal action map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write action map %s: %w", path, err)
	}
	return nil
}

// LoadActionMap replaces the manager's actions and axes wholesale with the
// file's contents. On error the existing map is left untouched.
func (m *InputManager) LoadActionMap(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read action map %s: %w", path, err)
	}
	var file actionMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse action map %s: %w", path, err)
	}

	m.actions = make(map[string]*Action, len(file.Actions))
	m.axes = make(map[string]*Axis, len(file.Axes))
	m.wasActive = make(map[string]bool)
	clear(m.justTriggered)
	clear(m.justReleased)

	for _, entry := range file.Actions {
		a := m.AddAction(entry.Name)
		for _, be := range entry.Bindings {
			trigger := triggerFromName(be.Trigger)
			switch deviceFromName(be.Device) {
			case DeviceKeyboard:
				a.Bindings = append(a.Bindings, Binding{Device: DeviceKeyboard, Trigger: trigger, Key: ebiten.Key(be.Code)})
			case DeviceMouse:
				a.Bindings = append(a.Bindings, Binding{Device: DeviceMouse, Trigger: trigger, Button: MouseButton(be.Code)})
			case DeviceGamepad:
				a.Bindings = append(a.Bindings, Binding{Device: DeviceGamepad, Trigger: trigger, PadSlot: be.Gamepad, PadBtn: be.Code})
			}
		}
	}
	for _, entry := range file.Axes {
		ax := m.AddAxis(entry.Name)
		for _, ae := range entry.Bindings {
			scale := ae.Scale
			if scale == 0 {
				scale = 1
			}
			switch deviceFromName(ae.Device) {
			case DeviceKeyboard:
				ax.Bindings = append(ax.Bindings, AxisBinding{
					Device:   DeviceKeyboard,
					Positive: ebiten.Key(ae.Positive),
					Negative: ebiten.Key(ae.Negative),
					Scale:    scale,
				})
			case DeviceGamepad:
				ax.Bindings = append(ax.Bindings, AxisBinding{
					Device:  DeviceGamepad,
					PadSlot: ae.Gamepad,
					PadAxis: ae.Axis,
					Scale:   scale,
				})
			}
		}
	}
	return nil
}
