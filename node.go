package rowan

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Tree operation errors. These are recoverable: a failing operation never
// mutates the tree.
var (
	ErrNilChild     = errors.New("nil child")
	ErrHasParent    = errors.New("child already has a parent")
	ErrWouldCycle   = errors.New("adding child would create a cycle")
	ErrNilComponent = errors.New("nil component")
	ErrOwned        = errors.New("component already owned by a node")
)

// Node is the fundamental scene tree entity. A single flat struct is used
// for all node kinds; Kind selects which transform fields are meaningful.
//
// A node exclusively owns its children and components. Parent is a
// non-owning back-reference, cleared on detach.
type Node struct {
	// Identity
	id   uuid.UUID
	Name string
	Kind NodeKind

	// Hierarchy
	parent     *Node
	children   []*Node
	components []Component
	scene      *Scene

	Active  bool
	Visible bool

	// Node2D fields
	Position2D mgl32.Vec2
	Rotation2D float32 // radians
	Scale2D    mgl32.Vec2

	// Node3D fields
	Position3D mgl32.Vec3
	Rotation3D mgl32.Quat
	Scale3D    mgl32.Vec3

	// Control fields
	Size       mgl32.Vec2
	WorldSpace bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.id = newUUID()
	n.Active = true
	n.Visible = true
	n.Scale2D = mgl32.Vec2{1, 1}
	n.Scale3D = mgl32.Vec3{1, 1, 1}
	n.Rotation3D = mgl32.QuatIdent()
}

// NewNode creates a base node with no transform.
func NewNode(name string) *Node {
	n := &Node{Name: name, Kind: KindNode}
	nodeDefaults(n)
	return n
}

// NewNode2D creates a node with a 2D transform.
func NewNode2D(name string) *Node {
	n := &Node{Name: name, Kind: KindNode2D}
	nodeDefaults(n)
	return n
}

// NewNode3D creates a node with a 3D transform.
func NewNode3D(name string) *Node {
	n := &Node{Name: name, Kind: KindNode3D}
	nodeDefaults(n)
	return n
}

// NewControl creates a UI layout node with position, size, and a world-space
// flag.
func NewControl(name string) *Node {
	n := &Node{Name: name, Kind: KindControl}
	nodeDefaults(n)
	return n
}

// newNodeOfKind creates a node of the given serialized kind name.
func newNodeOfKind(typeName, name string) *Node {
	n := &Node{Name: name, Kind: nodeKindFromTypeName(typeName)}
	nodeDefaults(n)
	return n
}

// UUID returns the node's stable identity.
func (n *Node) UUID() uuid.UUID { return n.id }

// SetUUID overrides the identity. Used by deserialization to preserve
// identities stored in a scene file; the scene index is updated if the node
// is attached.
func (n *Node) SetUUID(id uuid.UUID) {
	if n.scene != nil {
		n.scene.unindex(n)
		n.id = id
		n.scene.index(n)
		return
	}
	n.id = id
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Scene returns the scene this node is attached to, or nil.
func (n *Node) Scene() *Scene { return n.scene }

// Children returns the child list. The returned slice MUST NOT be mutated by
// the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index, or nil if out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// isAncestor reports whether a is an ancestor of n (or n itself).
func isAncestor(a, n *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == a {
			return true
		}
	}
	return false
}

// AddChild attaches child to this node, taking ownership. It fails without
// mutating the tree if child is nil, already has a parent, or is an ancestor
// of this node. If the node is part of a live scene, the child's subtree
// receives OnAwake and OnReady.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilChild
	}
	if child.parent != nil {
		return fmt.Errorf("add child %q: %w", child.Name, ErrHasParent)
	}
	if isAncestor(child, n) {
		return fmt.Errorf("add child %q: %w", child.Name, ErrWouldCycle)
	}
	child.parent = n
	n.children = append(n.children, child)
	if n.scene != nil {
		n.scene.attach(child)
	}
	return nil
}

// RemoveChild detaches the child with the given UUID, clears its parent
// back-reference, and returns ownership to the caller. Returns nil when no
// direct child matches. If the scene is live, the subtree receives OnDestroy
// before detach.
func (n *Node) RemoveChild(id uuid.UUID) *Node {
	for i, child := range n.children {
		if child.id != id {
			continue
		}
		if n.scene != nil {
			n.scene.detach(child)
		}
		copy(n.children[i:], n.children[i+1:])
		n.children[len(n.children)-1] = nil
		n.children = n.children[:len(n.children)-1]
		child.parent = nil
		return child
	}
	return nil
}

// FindChild searches for a node by UUID among children, recursively when
// requested.
func (n *Node) FindChild(id uuid.UUID, recursive bool) *Node {
	for _, child := range n.children {
		if child.id == id {
			return child
		}
	}
	if recursive {
		for _, child := range n.children {
			if found := child.FindChild(id, true); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindChildByName searches for a node by name among children, recursively
// when requested. Direct children win over deeper matches.
func (n *Node) FindChildByName(name string, recursive bool) *Node {
	for _, child := range n.children {
		if child.Name == name {
			return child
		}
	}
	if recursive {
		for _, child := range n.children {
			if found := child.FindChildByName(name, true); found != nil {
				return found
			}
		}
	}
	return nil
}

// --- Components ---

// AddComponent attaches a component, taking ownership. Fails if the
// component is nil or already owned. If the node is in a live scene the
// component receives OnAwake and OnReady immediately.
func (n *Node) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	if c.Owner() != nil {
		return fmt.Errorf("add component %q: %w", c.Name(), ErrOwned)
	}
	c.setOwner(n)
	n.components = append(n.components, c)
	if n.scene != nil && n.scene.live {
		safeDispatch(c, c.OnAwake)
		safeDispatch(c, c.OnReady)
	}
	return nil
}

// RemoveComponent detaches the component with the given UUID and returns
// ownership to the caller, or nil when not found. The component receives
// OnDestroy before detach.
func (n *Node) RemoveComponent(id uuid.UUID) Component {
	for i, c := range n.components {
		if c.UUID() != id {
			continue
		}
		safeDispatch(c, c.OnDestroy)
		copy(n.components[i:], n.components[i+1:])
		n.components[len(n.components)-1] = nil
		n.components = n.components[:len(n.components)-1]
		c.setOwner(nil)
		return c
	}
	return nil
}

// Components returns the component list. The returned slice MUST NOT be
// mutated by the caller.
func (n *Node) Components() []Component { return n.components }

// GetComponent returns the first component whose type name matches, or nil.
func (n *Node) GetComponent(typeName string) Component {
	for _, c := range n.components {
		if c.TypeName() == typeName {
			return c
		}
	}
	return nil
}

// GetComponents returns every component whose type name matches.
func (n *Node) GetComponents(typeName string) []Component {
	var out []Component
	for _, c := range n.components {
		if c.TypeName() == typeName {
			out = append(out, c)
		}
	}
	return out
}

// --- Transforms ---

// LocalTransform2D returns the node's local 2D affine transform. Identity
// for kinds without a 2D transform.
func (n *Node) LocalTransform2D() mgl32.Mat3 {
	switch n.Kind {
	case KindNode2D:
		return composeTransform2D(n.Position2D, n.Rotation2D, n.Scale2D)
	case KindControl:
		return composeTransform2D(n.Position2D, 0, mgl32.Vec2{1, 1})
	default:
		return mgl32.Ident3()
	}
}

// GlobalTransform2D composes the local 2D transforms along the parent chain.
// A Control with WorldSpace=false ignores ancestor transforms.
func (n *Node) GlobalTransform2D() mgl32.Mat3 {
	if n.Kind == KindControl && !n.WorldSpace {
		return n.LocalTransform2D()
	}
	if n.parent == nil {
		return n.LocalTransform2D()
	}
	return n.parent.GlobalTransform2D().Mul3(n.LocalTransform2D())
}

// LocalTransform3D returns the node's local TRS matrix. Identity for kinds
// without a 3D transform.
func (n *Node) LocalTransform3D() mgl32.Mat4 {
	if n.Kind != KindNode3D {
		return mgl32.Ident4()
	}
	return composeTransform3D(n.Position3D, n.Rotation3D, n.Scale3D)
}

// GlobalTransform3D composes the local 3D transforms along the parent chain.
func (n *Node) GlobalTransform3D() mgl32.Mat4 {
	if n.parent == nil {
		return n.LocalTransform3D()
	}
	return n.parent.GlobalTransform3D().Mul4(n.LocalTransform3D())
}

// GlobalPosition2D returns the node's 2D world position.
func (n *Node) GlobalPosition2D() mgl32.Vec2 {
	m := n.GlobalTransform2D()
	return mgl32.Vec2{m.At(0, 2), m.At(1, 2)}
}

// GlobalPosition3D returns the node's 3D world position.
func (n *Node) GlobalPosition3D() mgl32.Vec3 {
	m := n.GlobalTransform3D()
	return mgl32.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
}

// --- Duplication ---

// Duplicate deep-copies the subtree rooted at this node, components
// included. Every node and component in the copy receives a fresh UUID.
// Node-reference export variables pointing inside the duplicated subtree
// are rewired to the corresponding new UUIDs; references to nodes outside
// the subtree are preserved as-is. The copy is detached: it has no parent
// and no scene.
func (n *Node) Duplicate() *Node {
	remap := make(map[uuid.UUID]uuid.UUID)
	dup := n.duplicateInto(remap)
	rewireNodeRefs(dup, remap)
	return dup
}

func (n *Node) duplicateInto(remap map[uuid.UUID]uuid.UUID) *Node {
	dup := &Node{
		Name:       n.Name,
		Kind:       n.Kind,
		Active:     n.Active,
		Visible:    n.Visible,
		Position2D: n.Position2D,
		Rotation2D: n.Rotation2D,
		Scale2D:    n.Scale2D,
		Position3D: n.Position3D,
		Rotation3D: n.Rotation3D,
		Scale3D:    n.Scale3D,
		Size:       n.Size,
		WorldSpace: n.WorldSpace,
	}
	dup.id = newUUID()
	remap[n.id] = dup.id

	for _, c := range n.components {
		copied := duplicateComponent(c)
		if copied == nil {
			continue
		}
		remap[c.UUID()] = copied.UUID()
		copied.setOwner(dup)
		dup.components = append(dup.components, copied)
	}
	for _, child := range n.children {
		dupChild := child.duplicateInto(remap)
		dupChild.parent = dup
		dup.children = append(dup.children, dupChild)
	}
	return dup
}

// duplicateComponent builds a fresh component of the same registered type
// and copies name, activity, and export-variable values. Returns nil when
// the type is not registered.
func duplicateComponent(c Component) Component {
	copied, err := NewComponentByType(c.TypeName())
	if err != nil {
		logger.Warnf("duplicate: %v", err)
		return nil
	}
	copied.SetName(c.Name())
	copied.SetActive(c.Active())
	for _, v := range c.Exports().All() {
		ev := copied.Exports().Add(v.Name, v.Default, v.Description)
		ev.EnumOptions = append([]string(nil), v.EnumOptions...)
		ev.Value = v.Value
		ev.Kind = v.Kind
	}
	return copied
}

// rewireNodeRefs rewrites node-reference export variables that point at
// UUIDs inside the duplicated subtree.
func rewireNodeRefs(n *Node, remap map[uuid.UUID]uuid.UUID) {
	for _, c := range n.components {
		for _, v := range c.Exports().All() {
			if v.Kind != ValueNodeRef {
				continue
			}
			if newID, ok := remap[v.Value.Ref]; ok {
				v.Value.Ref = newID
			}
			if newID, ok := remap[v.Default.Ref]; ok {
				v.Default.Ref = newID
			}
		}
	}
	for _, child := range n.children {
		rewireNodeRefs(child, remap)
	}
}

// --- Lifecycle walks ---

// walkAwake fires OnAwake on active components in pre-order.
func walkAwake(n *Node) {
	for _, c := range n.components {
		if c.Active() {
			safeDispatch(c, c.OnAwake)
		}
	}
	for _, child := range n.children {
		walkAwake(child)
	}
}

// walkReady fires OnReady on active components in pre-order.
func walkReady(n *Node) {
	for _, c := range n.components {
		if c.Active() {
			safeDispatch(c, c.OnReady)
		}
	}
	for _, child := range n.children {
		walkReady(child)
	}
}

// walkUpdate fires OnUpdate on active components of active nodes in
// pre-order. An inactive node prunes its whole subtree.
func walkUpdate(n *Node, dt float64) {
	if !n.Active {
		return
	}
	for _, c := range n.components {
		if c.Active() {
			safeDispatch(c, func() { c.OnUpdate(dt) })
		}
	}
	for _, child := range n.children {
		walkUpdate(child, dt)
	}
}

// walkPhysicsProcess fires OnPhysicsProcess on active components of active
// nodes in pre-order.
func walkPhysicsProcess(n *Node, dt float64) {
	if !n.Active {
		return
	}
	for _, c := range n.components {
		if c.Active() {
			safeDispatch(c, func() { c.OnPhysicsProcess(dt) })
		}
	}
	for _, child := range n.children {
		walkPhysicsProcess(child, dt)
	}
}

// walkInput delivers a raw input event to active components of active nodes
// in pre-order.
func walkInput(n *Node, ev InputEvent) {
	if !n.Active {
		return
	}
	for _, c := range n.components {
		if c.Active() {
			safeDispatch(c, func() { c.OnInput(ev) })
		}
	}
	for _, child := range n.children {
		walkInput(child, ev)
	}
}

// walkDestroy fires OnDestroy in post-order: children before parents,
// components after the node's children.
func walkDestroy(n *Node) {
	for _, child := range n.children {
		walkDestroy(child)
	}
	for _, c := range n.components {
		safeDispatch(c, c.OnDestroy)
	}
}

// safeDispatch invokes a lifecycle callback, recovering panics so one broken
// component cannot unwind the frame pipeline. The failure is logged with the
// component and owner names.
func safeDispatch(c Component, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			owner := "<detached>"
			if c.Owner() != nil {
				owner = c.Owner().Name
			}
			logger.Errorf("component %s on node %s: %v", c.Name(), owner, r)
		}
	}()
	fn()
}
