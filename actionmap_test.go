package rowan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionMapRoundTrip(t *testing.T) {
	m := NewInputManager(NewQueueDevice())
	m.AddAction("jump")
	m.BindActionKey("jump", ebiten.KeySpace, TriggerPressed)
	m.BindActionGamepad("jump", 0, 0, TriggerHeld)
	m.AddAction("aim")
	m.BindActionMouse("aim", MouseButtonRight, TriggerHeld)
	m.AddAction("drop")
	m.BindActionKey("drop", ebiten.KeyG, TriggerReleased)

	m.AddAxis("move_x")
	m.BindAxisKeys("move_x", ebiten.KeyA, ebiten.KeyD)
	m.BindAxisGamepad("move_x", 0, 0, 1)

	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, m.SaveActionMap(path))

	loaded := NewInputManager(NewQueueDevice())
	loaded.AddAction("stale")
	require.NoError(t, loaded.LoadActionMap(path))

	assert.ElementsMatch(t, []string{"jump", "aim", "drop"}, loaded.ActionNames(),
		"load replaces the map wholesale")

	jump := loaded.actions["jump"]
	require.NotNil(t, jump)
	require.Len(t, jump.Bindings, 2)
	assert.Equal(t, ebiten.KeySpace, jump.Bindings[0].Key)
	assert.Equal(t, TriggerPressed, jump.Bindings[0].Trigger)
	assert.Equal(t, DeviceGamepad, jump.Bindings[1].Device)
	assert.Equal(t, TriggerHeld, jump.Bindings[1].Trigger,
		"each binding keeps its own trigger")

	aim := loaded.actions["aim"]
	require.NotNil(t, aim)
	assert.Equal(t, MouseButtonRight, aim.Bindings[0].Button)
	assert.Equal(t, TriggerHeld, aim.Bindings[0].Trigger)

	drop := loaded.actions["drop"]
	require.NotNil(t, drop)
	assert.Equal(t, TriggerReleased, drop.Bindings[0].Trigger)

	moveX := loaded.axes["move_x"]
	require.NotNil(t, moveX)
	require.Len(t, moveX.Bindings, 2)
	assert.Equal(t, ebiten.KeyD, moveX.Bindings[0].Positive)
	assert.Equal(t, ebiten.KeyA, moveX.Bindings[0].Negative)
	assert.Equal(t, 1.0, moveX.Bindings[1].Scale)
}

func TestActionMapSaveIsStable(t *testing.T) {
	m := NewInputManager(NewQueueDevice())
	// registration order must not leak into the file
	m.AddAction("zoom")
	m.AddAction("attack")
	m.BindActionKey("attack", ebiten.KeyJ, TriggerPressed)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	require.NoError(t, m.SaveActionMap(first))
	require.NoError(t, m.SaveActionMap(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLoadActionMapErrorsLeaveMapIntact(t *testing.T) {
	m := NewInputManager(NewQueueDevice())
	m.AddAction("jump")

	err := m.LoadActionMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Equal(t, []string{"jump"}, m.ActionNames())

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("actions: {not: a list}"), 0o644))
	assert.Error(t, m.LoadActionMap(bad))
	assert.Equal(t, []string{"jump"}, m.ActionNames())
}
