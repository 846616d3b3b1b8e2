package rowan

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Scene files are YAML. Export variables serialize as {type, value} pairs
// with the value in its text form; the loader additionally accepts bare
// typed scalars for hand-written files. Map keys marshal sorted, so saving
// an unmodified loaded scene reproduces the file byte for byte.

type sceneFile struct {
	Scene sceneMeta `yaml:"scene"`
	Root  *nodeYAML `yaml:"root,omitempty"`
}

type sceneMeta struct {
	UUID string `yaml:"uuid"`
	Name string `yaml:"name"`
}

type nodeYAML struct {
	Type    string `yaml:"type"`
	Name    string `yaml:"name"`
	UUID    string `yaml:"uuid"`
	Active  bool   `yaml:"active"`
	Visible bool   `yaml:"visible"`

	Position []float32 `yaml:"position,omitempty,flow"`
	Rotation []float32 `yaml:"rotation,omitempty,flow"`
	Scale    []float32 `yaml:"scale,omitempty,flow"`
	Size     []float32 `yaml:"size,omitempty,flow"`

	WorldSpace bool `yaml:"world_space,omitempty"`

	Components []*componentYAML `yaml:"components,omitempty"`
	Children   []*nodeYAML      `yaml:"children,omitempty"`
}

type componentYAML struct {
	Type    string                `yaml:"type"`
	Name    string                `yaml:"name"`
	UUID    string                `yaml:"uuid"`
	Active  bool                  `yaml:"active"`
	Exports map[string]exportYAML `yaml:"exports,omitempty"`
}

// exportYAML is one serialized export variable. It marshals as the typed
// form and unmarshals from either the typed form or a bare scalar.
type exportYAML struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func (e *exportYAML) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		type plain exportYAML
		return node.Decode((*plain)(e))
	}
	// bare scalar: infer the kind from the YAML tag
	e.Value = node.Value
	switch node.Tag {
	case "!!bool":
		e.Type = "bool"
	case "!!int":
		e.Type = "int"
	case "!!float":
		e.Type = "float"
	default:
		e.Type = "string"
	}
	return nil
}

// --- Saving ---

// SerializeScene renders the scene tree as YAML.
func SerializeScene(scene *Scene) ([]byte, error) {
	file := sceneFile{
		Scene: sceneMeta{UUID: scene.UUID().String(), Name: scene.Name()},
	}
	if scene.Root() != nil {
		file.Root = nodeToYAML(scene.Root())
	}
	return yaml.Marshal(&file)
}

// SaveScene writes the scene to a file.
func SaveScene(scene *Scene, path string) error {
	data, err := SerializeScene(scene)
	if err != nil {
		return fmt.Errorf("serialize scene %s: %w", scene.Name(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scene %s: %w", path, err)
	}
	return nil
}

func nodeToYAML(n *Node) *nodeYAML {
	out := &nodeYAML{
		Type:    n.Kind.TypeName(),
		Name:    n.Name,
		UUID:    n.UUID().String(),
		Active:  n.Active,
		Visible: n.Visible,
	}
	switch n.Kind {
	case KindNode2D:
		out.Position = []float32{n.Position2D[0], n.Position2D[1]}
		out.Rotation = []float32{n.Rotation2D}
		out.Scale = []float32{n.Scale2D[0], n.Scale2D[1]}
	case KindNode3D:
		out.Position = []float32{n.Position3D[0], n.Position3D[1], n.Position3D[2]}
		q := n.Rotation3D
		out.Rotation = []float32{q.W, q.X(), q.Y(), q.Z()}
		out.Scale = []float32{n.Scale3D[0], n.Scale3D[1], n.Scale3D[2]}
	case KindControl:
		out.Position = []float32{n.Position2D[0], n.Position2D[1]}
		out.Size = []float32{n.Size[0], n.Size[1]}
		out.WorldSpace = n.WorldSpace
	}
	for _, c := range n.Components() {
		out.Components = append(out.Components, componentToYAML(c))
	}
	for _, child := range n.Children() {
		out.Children = append(out.Children, nodeToYAML(child))
	}
	return out
}

func componentToYAML(c Component) *componentYAML {
	out := &componentYAML{
		Type:   c.TypeName(),
		Name:   c.Name(),
		UUID:   c.UUID().String(),
		Active: c.Active(),
	}
	if c.Exports().Len() > 0 {
		out.Exports = make(map[string]exportYAML, c.Exports().Len())
		for _, v := range c.Exports().All() {
			out.Exports[v.Name] = exportYAML{Type: v.Kind.String(), Value: v.Value.String()}
		}
	}
	return out
}

// --- Loading ---

// DeserializeScene parses scene YAML into a scene tree. A file without a
// root yields an empty scene and a warning instead of an error. Unknown
// component types and malformed export values are skipped with warnings.
func DeserializeScene(data []byte) (*Scene, error) {
	var file sceneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	name := file.Scene.Name
	if name == "" {
		name = "Scene"
	}
	scene := NewScene(name)
	if id, err := uuid.Parse(file.Scene.UUID); err == nil {
		scene.SetUUID(id)
	}
	if file.Root == nil {
		logger.Warnf("scene %s has no root node, starting empty", name)
		return scene, nil
	}
	scene.setRoot(nodeFromYAML(file.Root))
	return scene, nil
}

// LoadScene reads and parses a scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	return DeserializeScene(data)
}

func nodeFromYAML(in *nodeYAML) *Node {
	n := newNodeOfKind(in.Type, in.Name)
	if id, err := uuid.Parse(in.UUID); err == nil {
		n.SetUUID(id)
	}
	n.Active = in.Active
	n.Visible = in.Visible

	switch n.Kind {
	case KindNode2D:
		if len(in.Position) >= 2 {
			n.Position2D = mgl32.Vec2{in.Position[0], in.Position[1]}
		}
		if len(in.Rotation) >= 1 {
			n.Rotation2D = in.Rotation[0]
		}
		if len(in.Scale) >= 2 {
			n.Scale2D = mgl32.Vec2{in.Scale[0], in.Scale[1]}
		}
	case KindNode3D:
		if len(in.Position) >= 3 {
			n.Position3D = mgl32.Vec3{in.Position[0], in.Position[1], in.Position[2]}
		}
		if len(in.Rotation) >= 4 {
			n.Rotation3D = mgl32.Quat{W: in.Rotation[0], V: mgl32.Vec3{in.Rotation[1], in.Rotation[2], in.Rotation[3]}}
		}
		if len(in.Scale) >= 3 {
			n.Scale3D = mgl32.Vec3{in.Scale[0], in.Scale[1], in.Scale[2]}
		}
	case KindControl:
		if len(in.Position) >= 2 {
			n.Position2D = mgl32.Vec2{in.Position[0], in.Position[1]}
		}
		if len(in.Size) >= 2 {
			n.Size = mgl32.Vec2{in.Size[0], in.Size[1]}
		}
		n.WorldSpace = in.WorldSpace
	}

	for _, cy := range in.Components {
		c := componentFromYAML(cy)
		if c == nil {
			continue
		}
		c.setOwner(n)
		n.components = append(n.components, c)
	}
	for _, childYAML := range in.Children {
		child := nodeFromYAML(childYAML)
		child.parent = n
		n.children = append(n.children, child)
	}
	return n
}

func componentFromYAML(in *componentYAML) Component {
	c, err := NewComponentByType(in.Type)
	if err != nil {
		logger.Warnf("scene load: %v", err)
		return nil
	}
	if id, err := uuid.Parse(in.UUID); err == nil {
		c.SetUUID(id)
	}
	if in.Name != "" {
		c.SetName(in.Name)
	}
	c.SetActive(in.Active)

	for name, ey := range in.Exports {
		kind, ok := valueKindFromString(ey.Type)
		if !ok {
			logger.Warnf("scene load: component %s export %q has unknown type %q", in.Type, name, ey.Type)
			continue
		}
		value, err := ParseValue(kind, ey.Value)
		if err != nil {
			logger.Warnf("scene load: component %s export %q: %v", in.Type, name, err)
			continue
		}
		if _, declared := c.Exports().Get(name); declared {
			if err := c.Exports().Set(name, value); err != nil {
				logger.Warnf("scene load: component %s: %v", in.Type, err)
			}
			continue
		}
		// not declared by the constructor: script exports discovered at
		// runtime land here, declared now so the value survives until the
		// script loads
		c.Exports().Add(name, value, "")
	}
	return c
}
