package rowan

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Key    int     `json:"key,omitempty"`
	Button int     `json:"button,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences scripted device states across frames for automated
// testing. It drives a QueueDevice, so the engine under test must have been
// built over one. Actions:
//
//	press_key / release_key  — hold or release a key (code in "key")
//	press_mouse / release_mouse — hold or release a button at x, y
//	move_mouse               — move the cursor to x, y
//	wait                     — hold the current state for "frames" frames
type TestRunner struct {
	device    *QueueDevice
	steps     []testStep
	cursor    int
	waitCount int
	done      bool

	heldKeys    []Key
	heldButtons []MouseButton
	mouseX      float64
	mouseY      float64
}

// LoadTestScript parses a JSON test script and returns a TestRunner that
// feeds the given device.
func LoadTestScript(jsonData []byte, device *QueueDevice) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	return &TestRunner{device: device, steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// StepFrame applies the next script step and queues the resulting device
// state. Call once per frame before Engine.Step.
func (r *TestRunner) StepFrame() {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "press_key":
		r.heldKeys = append(r.heldKeys, Key(st.Key))
	case "release_key":
		r.heldKeys = removeKey(r.heldKeys, Key(st.Key))
	case "press_mouse":
		r.heldButtons = append(r.heldButtons, MouseButton(st.Button))
		r.mouseX, r.mouseY = st.X, st.Y
	case "release_mouse":
		r.heldButtons = removeButton(r.heldButtons, MouseButton(st.Button))
		r.mouseX, r.mouseY = st.X, st.Y
	case "move_mouse":
		r.mouseX, r.mouseY = st.X, st.Y
	case "wait":
		if st.Frames > 1 {
			r.waitCount = st.Frames - 1
		}
	default:
		logger.Warnf("test script: unknown action %q", st.Action)
	}

	r.device.Push(DeviceState{
		Keys:         append([]Key(nil), r.heldKeys...),
		MouseButtons: append([]MouseButton(nil), r.heldButtons...),
		MouseX:       r.mouseX,
		MouseY:       r.mouseY,
	})
}

func removeKey(keys []Key, k Key) []Key {
	out := keys[:0]
	for _, held := range keys {
		if held != k {
			out = append(out, held)
		}
	}
	return out
}

func removeButton(buttons []MouseButton, b MouseButton) []MouseButton {
	out := buttons[:0]
	for _, held := range buttons {
		if held != b {
			out = append(out, held)
		}
	}
	return out
}
