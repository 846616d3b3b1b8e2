package rowan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChildRejectsNil(t *testing.T) {
	parent := NewNode("parent")
	assert.ErrorIs(t, parent.AddChild(nil), ErrNilChild)
	assert.Equal(t, 0, parent.NumChildren())
}

func TestAddChildRejectsReparenting(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")
	require.NoError(t, a.AddChild(child))

	err := b.AddChild(child)
	assert.ErrorIs(t, err, ErrHasParent)
	assert.Same(t, a, child.Parent())
	assert.Equal(t, 0, b.NumChildren())
}

func TestAddChildRejectsCycle(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))

	// re-rooting an ancestor under its descendant must fail
	detached := root
	err := leaf.AddChild(detached)
	assert.ErrorIs(t, err, ErrWouldCycle)
	assert.Nil(t, root.Parent())

	// self-parenting is the degenerate cycle
	assert.ErrorIs(t, root.AddChild(root), ErrWouldCycle)
}

func TestRemoveChildReturnsOwnership(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	require.NoError(t, parent.AddChild(child))

	got := parent.RemoveChild(child.UUID())
	require.Same(t, child, got)
	assert.Nil(t, child.Parent())
	assert.Equal(t, 0, parent.NumChildren())

	// the detached subtree can be reattached elsewhere
	other := NewNode("other")
	assert.NoError(t, other.AddChild(got))
}

func TestRemoveChildUnknownUUID(t *testing.T) {
	parent := NewNode("parent")
	require.NoError(t, parent.AddChild(NewNode("child")))
	assert.Nil(t, parent.RemoveChild(uuid.New()))
	assert.Equal(t, 1, parent.NumChildren())
}

func TestFindChildByName(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	deep := NewNode("target")
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(deep))

	// direct child shadowing a deeper node with the same name
	direct := NewNode("target")
	require.NoError(t, root.AddChild(direct))

	assert.Same(t, direct, root.FindChildByName("target", true))
	assert.Same(t, direct, root.FindChildByName("target", false))
	assert.Nil(t, root.FindChildByName("missing", true))
}

func TestComponentLookup(t *testing.T) {
	ClearComponentRegistry()
	RegisterBuiltinComponents()

	n := NewNode2D("player")
	sprite := NewSprite2D()
	require.NoError(t, n.AddComponent(sprite))

	assert.Same(t, Component(sprite), n.GetComponent("Sprite2D"))
	assert.Nil(t, n.GetComponent("Label"))
	assert.Len(t, n.GetComponents("Sprite2D"), 1)

	// a component cannot be shared between nodes
	other := NewNode2D("other")
	assert.ErrorIs(t, other.AddComponent(sprite), ErrOwned)

	removed := n.RemoveComponent(sprite.UUID())
	require.NotNil(t, removed)
	assert.Nil(t, removed.Owner())
	assert.Nil(t, n.GetComponent("Sprite2D"))
}

func TestGlobalTransform2DComposition(t *testing.T) {
	parent := NewNode2D("parent")
	parent.Position2D = mgl32.Vec2{10, 20}
	child := NewNode2D("child")
	child.Position2D = mgl32.Vec2{5, 0}
	require.NoError(t, parent.AddChild(child))

	pos := child.GlobalPosition2D()
	assert.InDelta(t, 15, pos[0], 1e-5)
	assert.InDelta(t, 25, pos[1], 1e-5)

	parent.Scale2D = mgl32.Vec2{2, 2}
	pos = child.GlobalPosition2D()
	assert.InDelta(t, 20, pos[0], 1e-5)
	assert.InDelta(t, 20, pos[1], 1e-5)
}

func TestControlIgnoresParentUnlessWorldSpace(t *testing.T) {
	parent := NewNode2D("parent")
	parent.Position2D = mgl32.Vec2{100, 100}
	ui := NewControl("panel")
	ui.Position2D = mgl32.Vec2{8, 8}
	require.NoError(t, parent.AddChild(ui))

	pos := ui.GlobalPosition2D()
	assert.InDelta(t, 8, pos[0], 1e-5)
	assert.InDelta(t, 8, pos[1], 1e-5)

	ui.WorldSpace = true
	pos = ui.GlobalPosition2D()
	assert.InDelta(t, 108, pos[0], 1e-5)
	assert.InDelta(t, 108, pos[1], 1e-5)
}

func TestGlobalTransform3D(t *testing.T) {
	parent := NewNode3D("parent")
	parent.Position3D = mgl32.Vec3{0, 10, 0}
	child := NewNode3D("child")
	child.Position3D = mgl32.Vec3{1, 0, 0}
	require.NoError(t, parent.AddChild(child))

	pos := child.GlobalPosition3D()
	assert.InDelta(t, 1, pos[0], 1e-5)
	assert.InDelta(t, 10, pos[1], 1e-5)
	assert.InDelta(t, 0, pos[2], 1e-5)
}

func TestDuplicateRegeneratesIdentity(t *testing.T) {
	ClearComponentRegistry()
	RegisterBuiltinComponents()

	src := NewNode2D("src")
	child := NewNode2D("child")
	require.NoError(t, src.AddChild(child))
	require.NoError(t, child.AddComponent(NewSprite2D()))

	dup := src.Duplicate()
	require.NotNil(t, dup)
	assert.NotEqual(t, src.UUID(), dup.UUID())
	assert.Nil(t, dup.Parent())
	assert.Nil(t, dup.Scene())

	require.Equal(t, 1, dup.NumChildren())
	dupChild := dup.ChildAt(0)
	assert.NotEqual(t, child.UUID(), dupChild.UUID())
	dupSprite := dupChild.GetComponent("Sprite2D")
	require.NotNil(t, dupSprite)
	assert.NotEqual(t, child.GetComponent("Sprite2D").UUID(), dupSprite.UUID())
}

func TestDuplicateRewiresInternalNodeRefs(t *testing.T) {
	ClearComponentRegistry()
	RegisterBuiltinComponents()

	src := NewNode2D("src")
	target := NewNode2D("target")
	external := NewNode2D("external")
	require.NoError(t, src.AddChild(target))

	holder := NewSprite2D()
	holder.Exports().Add("follow", NodeRefValue(target.UUID()), "")
	holder.Exports().Add("outside", NodeRefValue(external.UUID()), "")
	require.NoError(t, src.AddComponent(holder))

	dup := src.Duplicate()
	dupHolder := dup.GetComponent("Sprite2D")
	require.NotNil(t, dupHolder)

	follow, _ := dupHolder.Exports().Get("follow")
	assert.Equal(t, dup.ChildAt(0).UUID(), follow.Ref, "internal ref follows the copy")

	outside, _ := dupHolder.Exports().Get("outside")
	assert.Equal(t, external.UUID(), outside.Ref, "external ref is preserved")
}

func TestDuplicatePreservesExportValues(t *testing.T) {
	ClearComponentRegistry()
	RegisterBuiltinComponents()

	src := NewNode2D("src")
	sprite := NewSprite2D()
	require.NoError(t, sprite.Exports().Set("texture_path", FilePathValue("hero.png")))
	require.NoError(t, src.AddComponent(sprite))

	dup := src.Duplicate()
	v, ok := dup.GetComponent("Sprite2D").Exports().Get("texture_path")
	require.True(t, ok)
	assert.Equal(t, "hero.png", v.S)
}
