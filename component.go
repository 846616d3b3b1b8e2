package rowan

import (
	"github.com/google/uuid"
)

// Component is a behavior/data unit attached to exactly one node. The node
// dispatches the lifecycle callbacks; implementations embed BaseComponent
// and override the callbacks they care about.
//
// Callback order, driven by the scene: OnAwake fires once when the scene
// becomes live (or immediately on attach to a live scene), OnReady once after
// the whole subtree is attached, OnUpdate/OnPhysicsProcess every frame while
// the component and its owning node are active, OnInput during the input
// phase, and OnDestroy once just before detach or teardown.
type Component interface {
	UUID() uuid.UUID
	SetUUID(uuid.UUID)
	Name() string
	SetName(string)
	TypeName() string
	Category() string
	Active() bool
	SetActive(bool)
	Owner() *Node
	Exports() *ExportVars

	OnAwake()
	OnReady()
	OnUpdate(dt float64)
	OnPhysicsProcess(dt float64)
	OnInput(ev InputEvent)
	OnDestroy()

	setOwner(*Node)
}

// BaseComponent carries the identity, activity, and export-variable state
// shared by every component. Lifecycle callbacks are no-ops; concrete
// components override what they need.
type BaseComponent struct {
	id       uuid.UUID
	name     string
	typeName string
	category string
	active   bool
	owner    *Node
	exports  ExportVars
}

// NewBaseComponent initializes the shared component state. Concrete
// components call this from their constructors with their registered type
// name and category.
func NewBaseComponent(typeName, category string) BaseComponent {
	return BaseComponent{
		id:       newUUID(),
		name:     typeName,
		typeName: typeName,
		category: category,
		active:   true,
	}
}

// UUID returns the component's stable identity.
func (c *BaseComponent) UUID() uuid.UUID { return c.id }

// SetUUID overrides the identity. Used by deserialization to preserve
// identities stored in a scene file.
func (c *BaseComponent) SetUUID(id uuid.UUID) { c.id = id }

// Name returns the display name.
func (c *BaseComponent) Name() string { return c.name }

// SetName sets the display name.
func (c *BaseComponent) SetName(name string) { c.name = name }

// TypeName returns the registered type name used for serialization and
// GetComponent lookups.
func (c *BaseComponent) TypeName() string { return c.typeName }

// Category returns the editor category.
func (c *BaseComponent) Category() string { return c.category }

// SetCategory sets the editor category.
func (c *BaseComponent) SetCategory(cat string) { c.category = cat }

// Active reports whether lifecycle callbacks are dispatched to this component.
func (c *BaseComponent) Active() bool { return c.active }

// SetActive enables or disables lifecycle dispatch.
func (c *BaseComponent) SetActive(active bool) { c.active = active }

// Owner returns the owning node, or nil while detached.
func (c *BaseComponent) Owner() *Node { return c.owner }

// Exports returns the component's export-variable set.
func (c *BaseComponent) Exports() *ExportVars { return &c.exports }

func (c *BaseComponent) setOwner(n *Node) { c.owner = n }

// Default no-op lifecycle.

func (c *BaseComponent) OnAwake()                  {}
func (c *BaseComponent) OnReady()                  {}
func (c *BaseComponent) OnUpdate(float64)          {}
func (c *BaseComponent) OnPhysicsProcess(float64)  {}
func (c *BaseComponent) OnInput(InputEvent)        {}
func (c *BaseComponent) OnDestroy()                {}
