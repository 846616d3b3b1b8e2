package rowan

import (
	"github.com/google/uuid"
)

// Scene owns a node tree and drives its lifecycle. A scene starts cold:
// nodes and components can be assembled freely, nothing fires. MakeLive
// transitions it to live, awaking the whole tree; from then on every attach
// and detach fires lifecycle callbacks immediately.
type Scene struct {
	id   uuid.UUID
	name string
	root *Node
	live bool

	// byUUID indexes every attached node, root included. Node-reference
	// export variables and script lookups resolve through it.
	byUUID map[uuid.UUID]*Node
}

// NewScene creates a scene with an empty base root node named after the
// scene.
func NewScene(name string) *Scene {
	s := &Scene{
		id:     newUUID(),
		name:   name,
		byUUID: make(map[uuid.UUID]*Node),
	}
	s.setRoot(NewNode(name))
	return s
}

// UUID returns the scene's identity.
func (s *Scene) UUID() uuid.UUID { return s.id }

// SetUUID overrides the identity. Used by deserialization.
func (s *Scene) SetUUID(id uuid.UUID) { s.id = id }

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// SetName sets the scene name.
func (s *Scene) SetName(name string) { s.name = name }

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.root }

// Live reports whether lifecycle callbacks are firing.
func (s *Scene) Live() bool { return s.live }

// setRoot installs a new root, indexing its subtree. Used by construction
// and deserialization; the previous root, if any, is dropped without
// OnDestroy since setRoot only runs on cold scenes.
func (s *Scene) setRoot(root *Node) {
	if s.root != nil {
		s.unindexTree(s.root)
		s.root.scene = nil
	}
	s.root = root
	if root != nil {
		s.indexTree(root)
	}
}

// MakeLive transitions the scene to live. Every component in the tree
// receives OnAwake in pre-order, then every component receives OnReady in a
// second pre-order pass, so any OnReady can rely on the entire tree being
// awake. Calling MakeLive on a live scene is a no-op.
func (s *Scene) MakeLive() {
	if s.live {
		return
	}
	s.live = true
	walkAwake(s.root)
	walkReady(s.root)
}

// Shutdown tears the scene down: OnDestroy fires across the tree in
// post-order and the scene returns to cold. The tree itself stays intact so
// it can be inspected or serialized after shutdown.
func (s *Scene) Shutdown() {
	if !s.live {
		return
	}
	walkDestroy(s.root)
	s.live = false
}

// Update runs the per-frame variable-rate callbacks.
func (s *Scene) Update(dt float64) {
	if !s.live {
		return
	}
	walkUpdate(s.root, dt)
}

// PhysicsProcess runs the fixed-rate callbacks.
func (s *Scene) PhysicsProcess(dt float64) {
	if !s.live {
		return
	}
	walkPhysicsProcess(s.root, dt)
}

// DispatchInput delivers a raw input event to the tree.
func (s *Scene) DispatchInput(ev InputEvent) {
	if !s.live {
		return
	}
	walkInput(s.root, ev)
}

// FindNode resolves a node by UUID through the scene index. O(1).
func (s *Scene) FindNode(id uuid.UUID) *Node {
	return s.byUUID[id]
}

// FindNodeByName searches the tree for a node by name, breadth-last
// pre-order. The root itself is considered.
func (s *Scene) FindNodeByName(name string) *Node {
	if s.root == nil {
		return nil
	}
	if s.root.Name == name {
		return s.root
	}
	return s.root.FindChildByName(name, true)
}

// NodeCount returns the number of attached nodes.
func (s *Scene) NodeCount() int { return len(s.byUUID) }

// attach indexes a freshly added subtree and, when live, awakes it.
// Called from Node.AddChild.
func (s *Scene) attach(n *Node) {
	s.indexTree(n)
	if s.live {
		walkAwake(n)
		walkReady(n)
	}
}

// detach destroys (when live) and unindexes a subtree about to be removed.
// Called from Node.RemoveChild.
func (s *Scene) detach(n *Node) {
	if s.live {
		walkDestroy(n)
	}
	s.unindexTree(n)
}

func (s *Scene) index(n *Node)   { s.byUUID[n.id] = n }
func (s *Scene) unindex(n *Node) { delete(s.byUUID, n.id) }

func (s *Scene) indexTree(n *Node) {
	n.scene = s
	s.index(n)
	for _, child := range n.children {
		s.indexTree(child)
	}
}

func (s *Scene) unindexTree(n *Node) {
	for _, child := range n.children {
		s.unindexTree(child)
	}
	s.unindex(n)
	n.scene = nil
}
