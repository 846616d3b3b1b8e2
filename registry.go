package rowan

import (
	"fmt"
	"sort"
)

// componentFactory creates a fresh component of a registered type.
type componentFactory func() Component

// componentEntry describes one registered component type.
type componentEntry struct {
	typeName    string
	category    string
	description string
	factory     componentFactory
}

// componentRegistry maps type names to factories. It is process-wide state:
// populated once at engine startup, read-only during frames, cleared at
// shutdown. Deserialization and duplication construct components through it.
var componentRegistry = map[string]componentEntry{}

// RegisterComponent registers a component factory under its type name.
// Re-registering a name replaces the previous entry.
func RegisterComponent(typeName, category, description string, factory func() Component) {
	componentRegistry[typeName] = componentEntry{
		typeName:    typeName,
		category:    category,
		description: description,
		factory:     factory,
	}
}

// NewComponentByType constructs a component by registered type name.
func NewComponentByType(typeName string) (Component, error) {
	entry, ok := componentRegistry[typeName]
	if !ok {
		return nil, fmt.Errorf("component type %q not registered", typeName)
	}
	return entry.factory(), nil
}

// ComponentTypeRegistered reports whether a type name is registered.
func ComponentTypeRegistered(typeName string) bool {
	_, ok := componentRegistry[typeName]
	return ok
}

// RegisteredComponentTypes returns the registered type names, sorted.
func RegisteredComponentTypes() []string {
	names := make([]string, 0, len(componentRegistry))
	for name := range componentRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearComponentRegistry removes all registrations. Called at engine
// shutdown; also useful to isolate tests.
func ClearComponentRegistry() {
	componentRegistry = map[string]componentEntry{}
}

// RegisterBuiltinComponents registers every component type the core ships
// with. Called once from NewEngine; safe to call again.
func RegisterBuiltinComponents() {
	RegisterComponent("Sprite2D", "2D", "textured quad in 2D space", func() Component { return NewSprite2D() })
	RegisterComponent("Label", "UI", "localized text element", func() Component { return NewLabel() })
	RegisterComponent("Camera2D", "2D", "2D viewport camera", func() Component { return NewCamera2D() })
	RegisterComponent("Camera3D", "3D", "perspective camera", func() Component { return NewCamera3D() })
	RegisterComponent("MeshInstance3D", "3D", "shadow-casting mesh drawable", func() Component { return NewMeshInstance3D() })
	RegisterComponent("OmniLight", "Light", "omnidirectional point light", func() Component { return NewOmniLight() })
	RegisterComponent("DirectionalLight", "Light", "sun-style directional light", func() Component { return NewDirectionalLight() })
	RegisterComponent("SpotLight", "Light", "cone spot light", func() Component { return NewSpotLight() })
	RegisterComponent("RigidBody2D", "Physics", "2D rigid body", func() Component { return NewRigidBody2D() })
	RegisterComponent("Area2D", "Physics", "2D sensor area", func() Component { return NewArea2D() })
	RegisterComponent("RigidBody3D", "Physics", "3D rigid body", func() Component { return NewRigidBody3D() })
	RegisterComponent("LuaScriptComponent", "Scripting", "Lua script host", func() Component { return NewLuaScriptComponent() })
	RegisterComponent("StarlarkScriptComponent", "Scripting", "Starlark script host", func() Component { return NewStarlarkScriptComponent() })
}
