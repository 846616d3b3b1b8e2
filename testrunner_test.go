package rowan

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerDrivesInputAcrossFrames(t *testing.T) {
	script := []byte(`{
  "steps": [
    {"action": "press_key", "key": 0},
    {"action": "wait", "frames": 2},
    {"action": "release_key", "key": 0},
    {"action": "move_mouse", "x": 50, "y": 60}
  ]
}`)
	dev := NewQueueDevice()
	runner, err := LoadTestScript(script, dev)
	require.NoError(t, err)

	m := NewInputManager(dev)
	key := ebiten.Key(0)

	// frame 1: press
	runner.StepFrame()
	m.BeginFrame()
	assert.True(t, m.IsKeyJustPressed(key))
	m.EndFrame()

	// frames 2-3: held through the wait
	for i := 0; i < 2; i++ {
		runner.StepFrame()
		m.BeginFrame()
		assert.True(t, m.IsKeyPressed(key))
		assert.False(t, m.IsKeyJustPressed(key))
		m.EndFrame()
	}

	// frame 4: release
	runner.StepFrame()
	m.BeginFrame()
	assert.True(t, m.IsKeyJustReleased(key))
	m.EndFrame()

	// frame 5: mouse move
	runner.StepFrame()
	m.BeginFrame()
	x, y := m.MousePosition()
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 60.0, y)
	m.EndFrame()

	assert.False(t, runner.Done())
	runner.StepFrame()
	assert.True(t, runner.Done())
}

func TestRunnerRejectsEmptyScript(t *testing.T) {
	dev := NewQueueDevice()
	_, err := LoadTestScript([]byte(`{"steps": []}`), dev)
	assert.Error(t, err)

	_, err = LoadTestScript([]byte(`not json`), dev)
	assert.Error(t, err)
}
