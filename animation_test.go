package rowan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolateNumeric(t *testing.T) {
	v := Interpolate(FloatValue(0), FloatValue(10), 0.5)
	assert.InDelta(t, 5, v.F, 1e-9)

	v = Interpolate(IntValue(0), IntValue(9), 0.5)
	assert.Equal(t, 5, v.I, "ints round to nearest")

	v = Interpolate(Vec2Value(mgl32.Vec2{0, 0}), Vec2Value(mgl32.Vec2{10, 20}), 0.25)
	assert.InDelta(t, 2.5, v.V2[0], 1e-5)
	assert.InDelta(t, 5, v.V2[1], 1e-5)
}

func TestInterpolateStepKinds(t *testing.T) {
	// bools and strings hold the start value until t reaches 1
	v := Interpolate(BoolValue(false), BoolValue(true), 0.99)
	assert.False(t, v.B)
	v = Interpolate(BoolValue(false), BoolValue(true), 1)
	assert.True(t, v.B)

	v = Interpolate(StringValue("a"), StringValue("b"), 0.5)
	assert.Equal(t, "a", v.S)
}

func TestInterpolateIdentities(t *testing.T) {
	from, to := FloatValue(3), FloatValue(7)
	assert.Equal(t, from, Interpolate(from, to, 0))
	assert.Equal(t, to, Interpolate(from, to, 1))

	// kind mismatch leaves the start value
	assert.Equal(t, from, Interpolate(from, StringValue("x"), 0.5))
}

func TestAnimateCompletesExactlyOnce(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	completions := 0

	err := pa.Animate(n, "position", Vec2Value(mgl32.Vec2{10, 0}), 1, EaseLinear, func() { completions++ })
	require.NoError(t, err)
	assert.True(t, pa.IsAnimating(n.UUID(), "position"))

	pa.Update(0.5)
	assert.Zero(t, completions)
	assert.Greater(t, n.Position2D[0], float32(0))
	assert.Less(t, n.Position2D[0], float32(10))

	pa.Update(0.6)
	assert.Equal(t, 1, completions)
	assert.Equal(t, float32(10), n.Position2D[0], "final value is exact")
	assert.False(t, pa.IsAnimating(n.UUID(), "position"))

	pa.Update(1)
	assert.Equal(t, 1, completions, "no second completion")
}

func TestAnimateZeroDuration(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	completions := 0

	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{5, 5}), 0, EaseLinear, func() { completions++ }))
	pa.Update(0.016)
	assert.Equal(t, 1, completions, "zero duration completes on the first tick")
	assert.Equal(t, float32(5), n.Position2D[0])
}

func TestAnimateReplacementCancelsSilently(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	firstCompleted := false

	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{10, 0}), 1, EaseLinear, func() { firstCompleted = true }))
	pa.Update(0.25)

	// restarting the same (node, property) replaces without completing
	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{0, 10}), 0.1, EaseLinear, nil))
	pa.Update(0.2)
	assert.False(t, firstCompleted)
	assert.Equal(t, float32(10), n.Position2D[1])
}

func TestStopAndDirectSetCancel(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	completed := false

	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{10, 0}), 1, EaseLinear, func() { completed = true }))
	pa.NotifyDirectSet(n.UUID(), "position")
	assert.False(t, pa.IsAnimating(n.UUID(), "position"))

	pa.Update(2)
	assert.False(t, completed, "cancelled animation never completes")
}

func TestClearNode(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{1, 0}), 1, EaseLinear, nil))
	require.NoError(t, pa.Animate(n, "scale", Vec2Value(mgl32.Vec2{2, 2}), 1, EaseLinear, nil))
	require.Equal(t, 2, pa.Len())

	pa.ClearNode(n.UUID())
	assert.Zero(t, pa.Len())
}

func TestAnimateCustomEasing(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")

	quad := EaseCustom(func(p float64) float64 { return p * p })
	require.NoError(t, pa.Animate(n, "position", Vec2Value(mgl32.Vec2{10, 0}), 1, quad, nil))

	// halfway through, the quadratic curve has covered a quarter of the way
	pa.Update(0.5)
	assert.InDelta(t, 2.5, n.Position2D[0], 1e-4)

	pa.Update(0.6)
	assert.Equal(t, float32(10), n.Position2D[0], "final value is exact")
}

func TestAnimateValidation(t *testing.T) {
	pa := NewPropertyAnimator()
	n := NewNode2D("n")

	assert.Error(t, pa.Animate(n, "no_such_property", FloatValue(1), 1, EaseLinear, nil))
	assert.Error(t, pa.Animate(n, "position", FloatValue(1), 1, EaseLinear, nil), "kind mismatch")
}

func TestAnimateComponentExport(t *testing.T) {
	ClearComponentRegistry()
	RegisterBuiltinComponents()

	pa := NewPropertyAnimator()
	n := NewNode2D("n")
	sprite := NewSprite2D()
	require.NoError(t, n.AddComponent(sprite))

	require.NoError(t, pa.Animate(n, "Sprite2D.tint", ColorValue(Color{1, 0, 0, 1}), 1, EaseLinear, nil))
	pa.Update(1.1)

	tint, _ := sprite.Exports().Get("tint")
	assert.InDelta(t, 1, tint.Color().R, 1e-5)
	assert.InDelta(t, 0, tint.Color().G, 1e-5)
}

func TestNodePropertyAccess(t *testing.T) {
	n := NewNode3D("n")
	n.Position3D = mgl32.Vec3{1, 2, 3}

	v, ok := getNodeProperty(n, "position")
	require.True(t, ok)
	assert.Equal(t, ValueVec3, v.Kind)

	assert.True(t, setNodeProperty(n, "visible", BoolValue(false)))
	assert.False(t, n.Visible)

	assert.False(t, setNodeProperty(n, "visible", IntValue(1)), "kind mismatch rejected")
	_, ok = getNodeProperty(n, "bogus")
	assert.False(t, ok)
}
